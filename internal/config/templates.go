package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "main":
		return mainTemplate, nil
	case "worker":
		return workerTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const mainTemplate = `modules = ["base", "core"]
expected_version = "0.1.0"
bridge_module = "core"
search_dirs = ["local/lib"]
process_role = "main"
archive_path = ""
workaround_dir = "local/workaround"
delete_old_workaround_artifacts = true
switches = ["--enable-logging"]
status_addr = "127.0.0.1:7070"
cors_origins = ["http://localhost:3000"]
`

const workerTemplate = `modules = ["base", "core"]
expected_version = "0.1.0"
bridge_module = "core"
search_dirs = ["local/lib"]
custom_loader = true
shared_relocation_sharing = true
load_from_archive = true
process_role = "worker"
archive_path = "local/app.apk"
staging_dir = "local/staging"
switches = []
`
