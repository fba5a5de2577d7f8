package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/nativeload/internal/loader"
)

// LoaderConfig is the process-wide load configuration read from TOML.
type LoaderConfig struct {
	Modules                      []string
	ExpectedVersion              string
	BridgeModule                 string
	SearchDirs                   []string
	CustomLoader                 bool
	SharedRelocationSharing      bool
	LoadFromArchive              bool
	ProcessRole                  string
	ArchivePath                  string
	WorkaroundDir                string
	StagingDir                   string
	DeleteOldWorkaroundArtifacts bool
	Switches                     []string
	StatusAddr                   string
	CorsOrigins                  []string
}

type fileConfig struct {
	Modules                      []string `toml:"modules"`
	ExpectedVersion              string   `toml:"expected_version"`
	BridgeModule                 string   `toml:"bridge_module"`
	SearchDirs                   []string `toml:"search_dirs"`
	CustomLoader                 bool     `toml:"custom_loader"`
	SharedRelocationSharing      bool     `toml:"shared_relocation_sharing"`
	LoadFromArchive              bool     `toml:"load_from_archive"`
	ProcessRole                  string   `toml:"process_role"`
	ArchivePath                  string   `toml:"archive_path"`
	WorkaroundDir                string   `toml:"workaround_dir"`
	StagingDir                   string   `toml:"staging_dir"`
	DeleteOldWorkaroundArtifacts bool     `toml:"delete_old_workaround_artifacts"`
	Switches                     []string `toml:"switches"`
	StatusAddr                   string   `toml:"status_addr"`
	CorsOrigins                  []string `toml:"cors_origins"`
}

// DefaultLoaderConfig is the system loader setup for a main process.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		ProcessRole:   "main",
		WorkaroundDir: filepath.Join("local", "workaround"),
		StagingDir:    filepath.Join("local", "staging"),
		CorsOrigins:   []string{"http://localhost:3000"},
	}
}

// LoadLoaderConfig reads path and applies only the keys it defines on top of
// DefaultLoaderConfig.
func LoadLoaderConfig(path string) (LoaderConfig, error) {
	cfg := DefaultLoaderConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return LoaderConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return LoaderConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("modules") {
		cfg.Modules = normalizeList(raw.Modules)
	}
	if meta.IsDefined("expected_version") {
		cfg.ExpectedVersion = raw.ExpectedVersion
	}
	if meta.IsDefined("bridge_module") {
		cfg.BridgeModule = strings.TrimSpace(raw.BridgeModule)
	}
	if meta.IsDefined("search_dirs") {
		cfg.SearchDirs = normalizeList(raw.SearchDirs)
	}
	if meta.IsDefined("custom_loader") {
		cfg.CustomLoader = raw.CustomLoader
	}
	if meta.IsDefined("shared_relocation_sharing") {
		cfg.SharedRelocationSharing = raw.SharedRelocationSharing
	}
	if meta.IsDefined("load_from_archive") {
		cfg.LoadFromArchive = raw.LoadFromArchive
	}
	if meta.IsDefined("process_role") {
		cfg.ProcessRole = strings.TrimSpace(raw.ProcessRole)
	}
	if meta.IsDefined("archive_path") {
		cfg.ArchivePath = strings.TrimSpace(raw.ArchivePath)
	}
	if meta.IsDefined("workaround_dir") {
		cfg.WorkaroundDir = strings.TrimSpace(raw.WorkaroundDir)
	}
	if meta.IsDefined("staging_dir") {
		cfg.StagingDir = strings.TrimSpace(raw.StagingDir)
	}
	if meta.IsDefined("delete_old_workaround_artifacts") {
		cfg.DeleteOldWorkaroundArtifacts = raw.DeleteOldWorkaroundArtifacts
	}
	if meta.IsDefined("switches") {
		cfg.Switches = normalizeList(raw.Switches)
	}
	if meta.IsDefined("status_addr") {
		cfg.StatusAddr = strings.TrimSpace(raw.StatusAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}

	if cfg.BridgeModule == "" && len(cfg.Modules) > 0 {
		cfg.BridgeModule = cfg.Modules[len(cfg.Modules)-1]
	}
	if err := ValidateLoaderConfig(cfg); err != nil {
		return LoaderConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func ValidateLoaderConfig(cfg LoaderConfig) error {
	if len(cfg.Modules) == 0 {
		return fmt.Errorf("modules is required")
	}
	seen := make(map[string]struct{}, len(cfg.Modules))
	for i, module := range cfg.Modules {
		if strings.ContainsAny(module, `/\`) {
			return fmt.Errorf("modules[%d] %q must be a module name, not a path", i, module)
		}
		if _, ok := seen[module]; ok {
			return fmt.Errorf("modules[%d] %q listed twice", i, module)
		}
		seen[module] = struct{}{}
	}
	if cfg.ExpectedVersion == "" {
		return fmt.Errorf("expected_version is required")
	}
	if _, ok := seen[cfg.BridgeModule]; !ok {
		return fmt.Errorf("bridge_module %q is not in modules", cfg.BridgeModule)
	}
	if _, ok := loader.ParseRole(cfg.ProcessRole); !ok {
		return fmt.Errorf("process_role %q must be main or worker", cfg.ProcessRole)
	}
	if cfg.LoadFromArchive {
		if !cfg.CustomLoader {
			return fmt.Errorf("load_from_archive requires custom_loader")
		}
		if cfg.ArchivePath == "" {
			return fmt.Errorf("load_from_archive requires archive_path")
		}
		if cfg.StagingDir == "" {
			return fmt.Errorf("load_from_archive requires staging_dir")
		}
	}
	if cfg.SharedRelocationSharing && !cfg.CustomLoader {
		return fmt.Errorf("shared_relocation_sharing requires custom_loader")
	}
	return nil
}

// Options converts the file config to coordinator options.
func (cfg LoaderConfig) Options() loader.Options {
	role, _ := loader.ParseRole(cfg.ProcessRole)
	return loader.Options{
		Modules:                 append([]string(nil), cfg.Modules...),
		ExpectedVersion:         cfg.ExpectedVersion,
		UseCustomLoader:         cfg.CustomLoader,
		SharedRelocationSharing: cfg.SharedRelocationSharing,
		LoadFromArchive:         cfg.LoadFromArchive,
		Role:                    role,
	}
}

// Environment returns nil when no archive is configured.
func (cfg LoaderConfig) Environment() loader.Environment {
	if cfg.ArchivePath == "" {
		return nil
	}
	return loader.ArchiveEnvironment(cfg.ArchivePath)
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
