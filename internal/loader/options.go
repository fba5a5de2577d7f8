package loader

import "strings"

// ProcessRole is the role of the current process in a multi-process host.
type ProcessRole int

const (
	RoleMain ProcessRole = iota
	RoleWorker
)

func (r ProcessRole) String() string {
	if r == RoleWorker {
		return "worker"
	}
	return "main"
}

// ParseRole accepts "main" or "worker" (case insensitive).
func ParseRole(raw string) (ProcessRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "main", "browser":
		return RoleMain, true
	case "worker", "renderer":
		return RoleWorker, true
	default:
		return RoleMain, false
	}
}

// LoadPath is the loading mechanism picked for a process.
type LoadPath string

const (
	PathSystem LoadPath = "system"
	PathCustom LoadPath = "custom"
)

// Options is the process-wide load configuration.
type Options struct {
	// Modules are loaded in order; later modules may depend on earlier ones.
	Modules         []string
	ExpectedVersion string

	UseCustomLoader         bool
	SharedRelocationSharing bool
	LoadFromArchive         bool
	Role                    ProcessRole
}

// Path selects the custom loader only when it is configured and a custom
// loader facility exists.
func (o Options) Path(custom CustomLoader) LoadPath {
	if o.UseCustomLoader && custom != nil {
		return PathCustom
	}
	return PathSystem
}

// Environment is the execution environment handle handed in by callers.
// A nil Environment disables the workaround loader and artifact cleanup.
type Environment interface {
	ArchivePath() string
}

// ArchiveEnvironment is an Environment backed by an application archive path.
type ArchiveEnvironment string

func (e ArchiveEnvironment) ArchivePath() string {
	return string(e)
}

func archivePathOf(env Environment) string {
	if env == nil {
		return ""
	}
	return strings.TrimSpace(env.ArchivePath())
}
