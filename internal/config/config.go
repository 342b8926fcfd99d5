package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port    int    `yaml:"port"`
	Shell   string `yaml:"shell"`
	WorkDir string `yaml:"work_dir"`
	DBPath  string `yaml:"db_path"`

	ConfigPath string `yaml:"-"`
}

// Load reads ~/.config/termrec/config.yaml when present, then applies
// flag overrides. Missing values fall back to environment defaults:
// $SHELL for the shell, the current directory for work_dir, and
// ~/.termrec/termrec.db for the database.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	cfg := &Config{
		Port:       8765,
		DBPath:     filepath.Join(homeDir, ".termrec", "termrec.db"),
		ConfigPath: filepath.Join(homeDir, ".config", "termrec", "config.yaml"),
	}

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port (1-65535)")
	flag.StringVar(&cfg.Shell, "shell", cfg.Shell, "shell command to spawn (defaults to $SHELL)")
	flag.StringVar(&cfg.WorkDir, "workdir", cfg.WorkDir, "working directory for spawned shells")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the session database")
	flag.Parse()

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config file %q: %w", c.ConfigPath, err)
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}

	if c.Shell == "" {
		c.Shell = os.Getenv("SHELL")
	}
	if c.Shell == "" {
		c.Shell = "/bin/bash"
	}

	if c.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		c.WorkDir = wd
	}

	return nil
}

// ShellArgv splits the configured shell command into argv, honoring
// shell-style quoting.
func (c *Config) ShellArgv() ([]string, error) {
	argv, err := shellquote.Split(c.Shell)
	if err != nil {
		return nil, fmt.Errorf("invalid shell command %q: %w", c.Shell, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("shell command is empty")
	}
	return argv, nil
}
