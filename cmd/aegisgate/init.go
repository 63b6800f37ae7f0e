package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mackeh/AegisGate/internal/approval"
	"github.com/mackeh/AegisGate/internal/config"
)

// overrideTemplate is the starter Rego override written during init. It
// abstains on everything, leaving the built-in rules in charge until an
// operator edits it.
const overrideTemplate = `package aegisgate.policy

import rego.v1

# Operator override policy. The engine consults this before its built-in
# rules; return "default" to let the built-in rules decide.
#
# input.action.label     e.g. "file_read", "shell_command"
# input.action.category  e.g. "filesystem", "shell", "network"
# input.context.trust    "normal", "elevated", or "full_system"
default decision = "default"

# Example: block all credential reads for normal-trust sessions.
# decision = "deny" if {
# 	input.action.label == "credential_read"
# 	input.context.trust == "normal"
# }

# Example: pre-approve clipboard reads.
# decision = "allow" if {
# 	input.action.label == "clipboard_read"
# }
`

func runInit() error {
	configDir, err := config.DefaultConfigDir()
	if err != nil {
		return err
	}

	fmt.Println("🛡️  AegisGate Setup")
	fmt.Println()

	// Create directories
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	auditDir := filepath.Join(configDir, "audit")
	if err := os.MkdirAll(auditDir, 0700); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	// Write config
	cfg := config.Default(configDir)
	cfg.Audit.Path = filepath.Join(auditDir, "audit.log")
	cfg.Policy.OverridePath = filepath.Join(configDir, "override.rego")

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("⚠️  Config already exists at %s, leaving it untouched.\n", configPath)
	} else {
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Printf("✅ Created %s\n", configPath)
	}

	// Write override policy template
	overridePath := filepath.Join(configDir, "override.rego")
	if _, err := os.Stat(overridePath); os.IsNotExist(err) {
		if err := os.WriteFile(overridePath, []byte(overrideTemplate), 0600); err != nil {
			return fmt.Errorf("failed to write override policy: %w", err)
		}
		fmt.Printf("✅ Created %s (abstaining template)\n", overridePath)
	}

	// Initialize the approval store schema
	wf, err := approval.Open(context.Background(), cfg.Approval.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize approval store: %w", err)
	}
	wf.Close()
	fmt.Printf("✅ Created %s\n", cfg.Approval.DatabasePath)

	fmt.Println()
	fmt.Println("🦅 AegisGate initialized successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Run 'aegisgate workspaces add myproject ~/code/myproject' to trust a directory\n")
	fmt.Printf("  2. Run 'aegisgate eval file_read --path ~/code/myproject/README.md' to test a decision\n")
	fmt.Printf("  3. Run 'aegisgate approvals list' to review pending requests\n")

	return nil
}
