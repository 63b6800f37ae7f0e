// Package scope classifies filesystem paths relative to the registered
// workspaces and the user's home directory. The policy engine bases its
// tiered rules on this classification, so paths are canonicalized
// (".." rejected, symlinks resolved) before they are judged.
package scope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mackeh/AegisGate/internal/telemetry"
)

// Kind is the classification of a path.
type Kind int

const (
	// InWorkspace means the path is inside a registered workspace root.
	InWorkspace Kind = iota
	// InUserHome means the path is under the user's home directory but
	// outside every workspace.
	InUserHome
	// OutsideScope means the path is outside both.
	OutsideScope
)

func (k Kind) String() string {
	switch k {
	case InWorkspace:
		return "in_workspace"
	case InUserHome:
		return "in_user_home"
	case OutsideScope:
		return "outside_scope"
	default:
		return "unknown"
	}
}

// Result is the outcome of a classification.
type Result struct {
	Kind        Kind
	Path        string // canonical absolute path
	WorkspaceID string // set when Kind == InWorkspace
	Write       bool   // whether the caller intends to mutate
}

// Classifier is the narrow interface the policy engine consumes.
type Classifier interface {
	// Classify resolves path to a canonical absolute form and reports
	// where it falls. write indicates a mutating operation; an
	// implementation may apply stricter boundaries for writes.
	Classify(path string, write bool) (Result, error)
}

// ErrBlacklisted is returned when a path touches a system-critical
// location that must never be classified at all.
var ErrBlacklisted = errors.New("path is in a system-critical location")

// Workspace is a trusted directory tree the agent may operate in.
type Workspace struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Root      string    `json:"root" yaml:"root"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Manager implements Classifier against the local filesystem.
type Manager struct {
	workspaces []Workspace
	home       string
	blacklist  []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithHome overrides the user home directory, mainly for tests.
func WithHome(home string) Option {
	return func(m *Manager) { m.home = home }
}

// NewManager creates a Manager. Without WithHome the user's real home
// directory is used.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{blacklist: defaultBlacklist()}
	for _, opt := range opts {
		opt(m)
	}
	if m.home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		m.home = home
	}
	return m, nil
}

func defaultBlacklist() []string {
	return []string{
		"/etc/passwd",
		"/etc/shadow",
		"/etc/sudoers",
		"/root",
	}
}

// sensitivePatterns are directory or file names that indicate secret
// material regardless of where they live.
var sensitivePatterns = []string{
	".ssh",
	".aws",
	".gnupg",
	".kube",
	"credentials",
	"private_key",
	"id_rsa",
	"id_ed25519",
}

// AddWorkspace registers a workspace root. The root must exist and be a
// directory, and must not fall inside a blacklisted location.
func (m *Manager) AddWorkspace(ws Workspace) error {
	info, err := os.Stat(ws.Root)
	if err != nil {
		return fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root %s is not a directory", ws.Root)
	}

	canonical, err := filepath.EvalSymlinks(ws.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	if m.isBlacklisted(canonical) {
		return fmt.Errorf("workspace root %s: %w", ws.Root, ErrBlacklisted)
	}

	ws.Root = canonical
	m.workspaces = append(m.workspaces, ws)
	return nil
}

// RemoveWorkspace unregisters a workspace by ID.
func (m *Manager) RemoveWorkspace(id string) {
	kept := m.workspaces[:0]
	for _, ws := range m.workspaces {
		if ws.ID != id {
			kept = append(kept, ws)
		}
	}
	m.workspaces = kept
}

// Workspaces returns the registered workspaces.
func (m *Manager) Workspaces() []Workspace {
	return m.workspaces
}

// Classify implements Classifier.
func (m *Manager) Classify(path string, write bool) (Result, error) {
	canonical, err := m.canonicalize(path)
	if err != nil {
		return Result{}, err
	}

	if m.isBlacklisted(canonical) {
		return Result{}, fmt.Errorf("%s: %w", canonical, ErrBlacklisted)
	}

	for _, ws := range m.workspaces {
		if within(canonical, ws.Root) {
			telemetry.ScopeClassificationsTotal.WithLabelValues(InWorkspace.String()).Inc()
			return Result{Kind: InWorkspace, Path: canonical, WorkspaceID: ws.ID, Write: write}, nil
		}
	}

	homeCanonical, err := filepath.EvalSymlinks(m.home)
	if err == nil && within(canonical, homeCanonical) {
		telemetry.ScopeClassificationsTotal.WithLabelValues(InUserHome.String()).Inc()
		return Result{Kind: InUserHome, Path: canonical, Write: write}, nil
	}

	telemetry.ScopeClassificationsTotal.WithLabelValues(OutsideScope.String()).Inc()
	return Result{Kind: OutsideScope, Path: canonical, Write: write}, nil
}

// canonicalize validates the raw path and resolves it to a canonical
// absolute form. A nonexistent leaf is resolved through its parent so a
// path about to be created still classifies correctly.
func (m *Manager) canonicalize(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if strings.ContainsRune(path, 0) {
		return "", errors.New("path contains null byte")
	}
	if len(path) > 4096 {
		return "", errors.New("path too long (max 4096 characters)")
	}
	// ".." must never reach Abs: Clean folds "link/../x" lexically,
	// before the symlinked component resolves.
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return "", errors.New("path contains parent directory traversal")
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	// Leaf doesn't exist yet: resolve the parent and re-attach the name.
	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent of %s: %w", path, err)
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}

func (m *Manager) isBlacklisted(canonical string) bool {
	for _, b := range m.blacklist {
		if within(canonical, b) {
			return true
		}
	}
	lower := strings.ToLower(canonical)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// within reports whether path is root or a descendant of root.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
