package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "nascal.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q, want default", cfg.Listen)
	}
	if cfg.Year != 2016 {
		t.Errorf("Year = %d, want 2016", cfg.Year)
	}
	if cfg.StartMonth != 1 {
		t.Errorf("StartMonth = %d, want 1 (February)", cfg.StartMonth)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not created: %v", err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("Load(\"\") should fail")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Config
		check func(t *testing.T, c Config)
	}{
		{
			name: "zero config gets defaults",
			in:   Config{},
			check: func(t *testing.T, c Config) {
				if c.Listen == "" || c.DataDir == "" || c.Year != 2016 || c.LogLevel != "info" {
					t.Errorf("unexpected normalized config: %+v", c)
				}
			},
		},
		{
			name: "out of range start month resets",
			in:   Config{StartMonth: 99},
			check: func(t *testing.T, c Config) {
				if c.StartMonth != 1 {
					t.Errorf("StartMonth = %d, want 1", c.StartMonth)
				}
			},
		},
		{
			name: "unknown log level resets",
			in:   Config{LogLevel: "chatty"},
			check: func(t *testing.T, c Config) {
				if c.LogLevel != "info" {
					t.Errorf("LogLevel = %q, want info", c.LogLevel)
				}
			},
		},
		{
			name: "explicit values survive",
			in:   Config{Listen: "0.0.0.0:9000", Year: 2017, StartMonth: 7, LogLevel: "debug"},
			check: func(t *testing.T, c Config) {
				if c.Listen != "0.0.0.0:9000" || c.Year != 2017 || c.StartMonth != 7 || c.LogLevel != "debug" {
					t.Errorf("explicit values changed: %+v", c)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			c.Normalize()
			tt.check(t, c)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nascal.yaml")

	in := &Config{
		Listen:       "127.0.0.1:9999",
		DataDir:      "/tmp/nascal-data",
		Year:         2016,
		StartMonth:   1,
		SnapshotCron: "0 3 * * *",
		LogLevel:     "debug",
		BasicAuth:    &BasicAuthConfig{Username: "ayumi", Password: "segredo"},
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if out.Listen != in.Listen || out.DataDir != in.DataDir || out.SnapshotCron != in.SnapshotCron {
		t.Errorf("round trip changed config: %+v", out)
	}
	if out.BasicAuth == nil || out.BasicAuth.Username != "ayumi" {
		t.Errorf("basic auth lost in round trip: %+v", out.BasicAuth)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file perms = %o, want 600", perm)
	}
}
