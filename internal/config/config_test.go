package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadFromFileParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: 9000\nshell: /bin/zsh -l\ndb_path: /tmp/rec.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := &Config{Port: 8765, ConfigPath: path}
	if err := cfg.loadFromFile(); err != nil {
		t.Fatalf("loadFromFile() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.Shell != "/bin/zsh -l" {
		t.Errorf("Shell = %q", cfg.Shell)
	}
	if cfg.DBPath != "/tmp/rec.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadFromFileMissingIsNotExist(t *testing.T) {
	cfg := &Config{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")}
	if err := cfg.loadFromFile(); !os.IsNotExist(err) {
		t.Fatalf("loadFromFile() error = %v, want not-exist", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Port: 8765}
	if err := cfg.applyDefaults(); err != nil {
		t.Fatalf("applyDefaults() error = %v", err)
	}
	if cfg.Shell == "" {
		t.Error("Shell not defaulted")
	}
	if cfg.WorkDir == "" {
		t.Error("WorkDir not defaulted")
	}
}

func TestApplyDefaultsRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := &Config{Port: port}
		if err := cfg.applyDefaults(); err == nil {
			t.Errorf("applyDefaults() with port %d succeeded, want error", port)
		}
	}
}

func TestShellArgv(t *testing.T) {
	tests := []struct {
		shell string
		want  []string
	}{
		{"/bin/bash", []string{"/bin/bash"}},
		{"/bin/zsh -l", []string{"/bin/zsh", "-l"}},
		{`sh -c "echo hi"`, []string{"sh", "-c", "echo hi"}},
	}
	for _, tt := range tests {
		cfg := &Config{Shell: tt.shell}
		got, err := cfg.ShellArgv()
		if err != nil {
			t.Errorf("ShellArgv(%q) error = %v", tt.shell, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ShellArgv(%q) = %v, want %v", tt.shell, got, tt.want)
		}
	}
}

func TestShellArgvEmpty(t *testing.T) {
	cfg := &Config{Shell: "   "}
	if _, err := cfg.ShellArgv(); err == nil {
		t.Fatal("ShellArgv() with blank shell succeeded, want error")
	}
}
