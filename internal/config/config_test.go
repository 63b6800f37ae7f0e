package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mackeh/AegisGate/internal/scope"
)

func TestDefaultConfigDir(t *testing.T) {
	dir, err := DefaultConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir == "" {
		t.Fatal("expected non-empty directory")
	}
	if filepath.Base(dir) != ".aegisgate" {
		t.Errorf("expected dir ending in .aegisgate, got %s", dir)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/tmp/aegisgate")
	if cfg.Trust.DefaultLevel != "normal" {
		t.Errorf("expected default trust 'normal', got '%s'", cfg.Trust.DefaultLevel)
	}
	if cfg.Approval.DefaultTimeoutMinutes != 60 {
		t.Errorf("expected 60 minute timeout, got %d", cfg.Approval.DefaultTimeoutMinutes)
	}
	if !cfg.Audit.Enabled {
		t.Error("expected audit enabled by default")
	}
	if cfg.Approval.DatabasePath != "/tmp/aegisgate/approvals.db" {
		t.Errorf("unexpected database path: %s", cfg.Approval.DatabasePath)
	}
}

func TestLoadSave(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")

	cfg := &Config{
		Version: "0.1.0",
		Trust:   TrustConfig{DefaultLevel: "elevated"},
		Workspaces: []scope.Workspace{
			{ID: "ws-1", Name: "project", Root: "/home/dev/project"},
			{ID: "ws-2", Name: "scratch", Root: "/home/dev/scratch"},
		},
		Approval: ApprovalConfig{
			DatabasePath:          "/var/lib/aegisgate/approvals.db",
			DefaultTimeoutMinutes: 30,
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "/var/log/aegisgate/audit.log",
		},
		Policy: PolicyConfig{
			OverridePath: "/etc/aegisgate/override.rego",
		},
		Telemetry: TelemetryConfig{
			Enabled:  true,
			Exporter: "stdout",
		},
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if loaded.Version != "0.1.0" {
		t.Errorf("expected version '0.1.0', got '%s'", loaded.Version)
	}
	if loaded.Trust.DefaultLevel != "elevated" {
		t.Errorf("expected trust 'elevated', got '%s'", loaded.Trust.DefaultLevel)
	}
	if len(loaded.Workspaces) != 2 {
		t.Fatalf("expected 2 workspaces, got %d", len(loaded.Workspaces))
	}
	if loaded.Workspaces[0].ID != "ws-1" || loaded.Workspaces[0].Root != "/home/dev/project" {
		t.Errorf("unexpected workspace: %+v", loaded.Workspaces[0])
	}
	if loaded.Approval.DefaultTimeoutMinutes != 30 {
		t.Errorf("expected 30 minute timeout, got %d", loaded.Approval.DefaultTimeoutMinutes)
	}
	if !loaded.Audit.Enabled {
		t.Error("expected audit enabled")
	}
	if loaded.Policy.OverridePath != "/etc/aegisgate/override.rego" {
		t.Errorf("unexpected override path: %s", loaded.Policy.OverridePath)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bad.yaml")
	// Use a truly unparseable YAML structure (tab in flow context)
	os.WriteFile(path, []byte("{\t\x00invalid}"), 0600)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestSave_Permissions(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")

	cfg := &Config{Version: "1.0"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat error: %v", err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("expected file mode 0600, got %o", perm)
	}
}
