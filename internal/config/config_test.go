package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
db:
  path: /tmp/readings.db
dashboard:
  retention: 50
  fetch_timeout: 2s
  reconnect:
    enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBPath != "/tmp/readings.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Dashboard.Retention != 50 {
		t.Errorf("Retention = %d", cfg.Dashboard.Retention)
	}
	if cfg.Dashboard.FetchTimeout != 2*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.Dashboard.FetchTimeout)
	}
	if !cfg.Dashboard.Reconnect.Enabled || cfg.Dashboard.Reconnect.Max != 30*time.Second {
		t.Errorf("Reconnect = %+v", cfg.Dashboard.Reconnect)
	}
	// untouched keys keep defaults
	if cfg.Simulator.Tick != time.Second || !cfg.Dashboard.ReseedOnLive {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero retention": "dashboard:\n  retention: 0\n",
		"negative tick":  "simulator:\n  tick: -1s\n",
		"zero timeout":   "dashboard:\n  fetch_timeout: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FRIDGE_PORT", "7070")
	cfg, err := Load(writeConfig(t, "port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env override not applied: %q", cfg.Port)
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	cfg, err := Load(writeConfig(t, "port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("default origins = %v", cfg.AllowedOrigins)
	}

	cfg, err = Load(writeConfig(t, "cors:\n  origins:\n    - http://a.example\n    - http://b.example\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
}
