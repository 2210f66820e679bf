package shell

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the run-control configuration of the interactive shell, read
// from a YAML file.
type Config struct {
	// Prompt is the interactive prompt.
	Prompt string `yaml:"prompt"`
	// DB is the path of the history/operator database.
	DB string `yaml:"db"`
	// Optimize enables the optimizer over emitted functions.
	Optimize bool `yaml:"optimize"`
}

func defaultConfig() Config {
	return Config{Prompt: "ready> ", DB: defaultDBPath()}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kales", "db.bolt")
}

// loadConfig reads the configuration from path. A missing file yields the
// defaults; a present but malformed file is an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "cannot read rc file %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "cannot parse rc file %s", path)
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "ready> "
	}
	return cfg, nil
}

func defaultRCPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kales", "rc.yaml")
}
