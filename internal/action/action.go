// Package action defines the closed set of security-sensitive operations
// that the policy engine can evaluate. An Action is a pure description of
// what the caller intends to do; constructing one performs no I/O and
// grants no capability.
package action

import "fmt"

// Category groups actions for policy rules and reporting.
type Category string

const (
	CategoryFileSystem  Category = "filesystem"
	CategoryShell       Category = "shell"
	CategoryAutomation  Category = "automation"
	CategoryDatabase    Category = "database"
	CategoryNetwork     Category = "network"
	CategoryBrowser     Category = "browser"
	CategoryCredentials Category = "credentials"
)

// Action is the sealed interface implemented by every variant below.
// The isAction marker keeps the set closed to this package.
type Action interface {
	// Label returns the stable snake_case type label used for persistence
	// and the approval workflow's risk table.
	Label() string

	// Category returns the action's grouping.
	Category() Category

	// Description returns a human-readable summary for audit logs and
	// approval prompts.
	Description() string

	// Resource returns the type and identifier persisted with an approval
	// request. The identifier may be empty for actions without a natural
	// resource (e.g. clipboard reads).
	Resource() (resourceType, resourceID string)

	isAction()
}

// GitOp enumerates git operations.
type GitOp string

const (
	GitInit     GitOp = "init"
	GitClone    GitOp = "clone"
	GitFetch    GitOp = "fetch"
	GitPull     GitOp = "pull"
	GitPush     GitOp = "push"
	GitCommit   GitOp = "commit"
	GitAdd      GitOp = "add"
	GitStatus   GitOp = "status"
	GitLog      GitOp = "log"
	GitDiff     GitOp = "diff"
	GitBranch   GitOp = "branch"
	GitCheckout GitOp = "checkout"
	GitMerge    GitOp = "merge"
	GitRebase   GitOp = "rebase"
	GitReset    GitOp = "reset"
	GitStash    GitOp = "stash"
	GitRemote   GitOp = "remote"
)

// QueryKind enumerates SQL statement kinds for database queries.
type QueryKind string

const (
	QuerySelect QueryKind = "select"
	QueryInsert QueryKind = "insert"
	QueryUpdate QueryKind = "update"
	QueryDelete QueryKind = "delete"
	QueryCreate QueryKind = "create"
	QueryDrop   QueryKind = "drop"
	QueryAlter  QueryKind = "alter"
)

// InputKind enumerates simulated input events.
type InputKind string

const (
	InputClick       InputKind = "click"
	InputDoubleClick InputKind = "double_click"
	InputType        InputKind = "type"
	InputKeyPress    InputKind = "key_press"
	InputMouseMove   InputKind = "mouse_move"
)

// CaptureRegion describes a screen sub-rectangle.
type CaptureRegion struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FileRead describes reading a file.
type FileRead struct {
	Path        string
	WorkspaceID string
}

func (FileRead) isAction()          {}
func (FileRead) Label() string      { return "file_read" }
func (FileRead) Category() Category { return CategoryFileSystem }
func (a FileRead) Description() string {
	return fmt.Sprintf("Read file: %s", a.Path)
}
func (a FileRead) Resource() (string, string) { return "file", a.Path }

// FileWrite describes writing a file. SizeBytes is zero when unknown.
type FileWrite struct {
	Path        string
	WorkspaceID string
	SizeBytes   int64
}

func (FileWrite) isAction()          {}
func (FileWrite) Label() string      { return "file_write" }
func (FileWrite) Category() Category { return CategoryFileSystem }
func (a FileWrite) Description() string {
	return fmt.Sprintf("Write file: %s", a.Path)
}
func (a FileWrite) Resource() (string, string) { return "file", a.Path }

// FileDelete describes deleting a file.
type FileDelete struct {
	Path        string
	WorkspaceID string
}

func (FileDelete) isAction()          {}
func (FileDelete) Label() string      { return "file_delete" }
func (FileDelete) Category() Category { return CategoryFileSystem }
func (a FileDelete) Description() string {
	return fmt.Sprintf("Delete file: %s", a.Path)
}
func (a FileDelete) Resource() (string, string) { return "file", a.Path }

// DirectoryCreate describes creating a directory.
type DirectoryCreate struct {
	Path        string
	WorkspaceID string
}

func (DirectoryCreate) isAction()          {}
func (DirectoryCreate) Label() string      { return "directory_create" }
func (DirectoryCreate) Category() Category { return CategoryFileSystem }
func (a DirectoryCreate) Description() string {
	return fmt.Sprintf("Create directory: %s", a.Path)
}
func (a DirectoryCreate) Resource() (string, string) { return "directory", a.Path }

// DirectoryDelete describes deleting a directory.
type DirectoryDelete struct {
	Path        string
	Recursive   bool
	WorkspaceID string
}

func (DirectoryDelete) isAction()          {}
func (DirectoryDelete) Label() string      { return "directory_delete" }
func (DirectoryDelete) Category() Category { return CategoryFileSystem }
func (a DirectoryDelete) Description() string {
	if a.Recursive {
		return fmt.Sprintf("Delete directory recursively: %s", a.Path)
	}
	return fmt.Sprintf("Delete directory: %s", a.Path)
}
func (a DirectoryDelete) Resource() (string, string) { return "directory", a.Path }

// DirectoryList describes listing a directory.
type DirectoryList struct {
	Path        string
	Recursive   bool
	WorkspaceID string
}

func (DirectoryList) isAction()          {}
func (DirectoryList) Label() string      { return "directory_list" }
func (DirectoryList) Category() Category { return CategoryFileSystem }
func (a DirectoryList) Description() string {
	return fmt.Sprintf("List directory: %s", a.Path)
}
func (a DirectoryList) Resource() (string, string) { return "directory", a.Path }

// ShellCommand describes running a shell command.
type ShellCommand struct {
	Command     string
	Args        []string
	Cwd         string
	WorkspaceID string
}

func (ShellCommand) isAction()          {}
func (ShellCommand) Label() string      { return "shell_command" }
func (ShellCommand) Category() Category { return CategoryShell }
func (a ShellCommand) Description() string {
	return fmt.Sprintf("Run command '%s' in %s", a.Command, a.Cwd)
}
func (a ShellCommand) Resource() (string, string) { return "command", a.Command }

// TerminalSpawn describes spawning an interactive terminal.
type TerminalSpawn struct {
	ShellType   string
	Cwd         string
	WorkspaceID string
}

func (TerminalSpawn) isAction()          {}
func (TerminalSpawn) Label() string      { return "terminal_spawn" }
func (TerminalSpawn) Category() Category { return CategoryShell }
func (a TerminalSpawn) Description() string {
	return fmt.Sprintf("Spawn %s terminal in %s", a.ShellType, a.Cwd)
}
func (a TerminalSpawn) Resource() (string, string) { return "terminal", a.Cwd }

// GitOperation describes a git operation on a repository.
type GitOperation struct {
	Op          GitOp
	RepoPath    string
	WorkspaceID string
}

func (GitOperation) isAction()          {}
func (GitOperation) Label() string      { return "git_operation" }
func (GitOperation) Category() Category { return CategoryShell }
func (a GitOperation) Description() string {
	return fmt.Sprintf("Git %s in %s", a.Op, a.RepoPath)
}
func (a GitOperation) Resource() (string, string) { return "repository", a.RepoPath }

// ScreenCapture describes capturing the screen or a region of it.
type ScreenCapture struct {
	Region     *CaptureRegion
	SaveToDisk bool
}

func (ScreenCapture) isAction()          {}
func (ScreenCapture) Label() string      { return "screen_capture" }
func (ScreenCapture) Category() Category { return CategoryAutomation }
func (a ScreenCapture) Description() string {
	if a.Region != nil {
		return fmt.Sprintf("Capture screen region %dx%d", a.Region.Width, a.Region.Height)
	}
	return "Capture full screen"
}
func (ScreenCapture) Resource() (string, string) { return "screen", "" }

// InputSimulation describes simulated keyboard or mouse input.
type InputSimulation struct {
	Kind         InputKind
	TargetWindow string
}

func (InputSimulation) isAction()          {}
func (InputSimulation) Label() string      { return "input_simulation" }
func (InputSimulation) Category() Category { return CategoryAutomation }
func (a InputSimulation) Description() string {
	switch a.Kind {
	case InputClick, InputDoubleClick:
		return "Simulate mouse click"
	case InputType:
		return "Type text"
	case InputKeyPress:
		return "Press key"
	default:
		return "Simulate input"
	}
}
func (a InputSimulation) Resource() (string, string) { return "input", string(a.Kind) }

// ClipboardRead describes reading the system clipboard.
type ClipboardRead struct{}

func (ClipboardRead) isAction()                 {}
func (ClipboardRead) Label() string             { return "clipboard_read" }
func (ClipboardRead) Category() Category        { return CategoryAutomation }
func (ClipboardRead) Description() string       { return "Read clipboard" }
func (ClipboardRead) Resource() (string, string) { return "clipboard", "" }

// ClipboardWrite describes writing to the system clipboard.
type ClipboardWrite struct {
	ContentType string
}

func (ClipboardWrite) isAction()                 {}
func (ClipboardWrite) Label() string             { return "clipboard_write" }
func (ClipboardWrite) Category() Category        { return CategoryAutomation }
func (ClipboardWrite) Description() string       { return "Write to clipboard" }
func (ClipboardWrite) Resource() (string, string) { return "clipboard", "" }

// DatabaseConnect describes opening a database connection.
type DatabaseConnect struct {
	Driver   string
	Host     string
	Database string
	IsLocal  bool
}

func (DatabaseConnect) isAction()          {}
func (DatabaseConnect) Label() string      { return "database_connect" }
func (DatabaseConnect) Category() Category { return CategoryDatabase }
func (a DatabaseConnect) Description() string {
	return fmt.Sprintf("Connect to %s database: %s on %s", a.Driver, a.Database, a.Host)
}
func (a DatabaseConnect) Resource() (string, string) { return "database", a.Host }

// DatabaseQuery describes executing a statement on an open connection.
type DatabaseQuery struct {
	Driver       string
	ConnectionID string
	Query        QueryKind
}

func (DatabaseQuery) isAction()          {}
func (DatabaseQuery) Label() string      { return "database_query" }
func (DatabaseQuery) Category() Category { return CategoryDatabase }
func (a DatabaseQuery) Description() string {
	return fmt.Sprintf("Execute %s query", a.Query)
}
func (a DatabaseQuery) Resource() (string, string) { return "connection", a.ConnectionID }

// NetworkRequest describes an outbound HTTP(S) request.
type NetworkRequest struct {
	Method        string
	URL           string
	Domain        string
	SensitiveData bool
}

func (NetworkRequest) isAction()          {}
func (NetworkRequest) Label() string      { return "network_request" }
func (NetworkRequest) Category() Category { return CategoryNetwork }
func (a NetworkRequest) Description() string {
	return fmt.Sprintf("%s request to %s", a.Method, a.URL)
}
func (a NetworkRequest) Resource() (string, string) { return "domain", a.Domain }

// BrowserLaunch describes launching a browser instance.
type BrowserLaunch struct {
	Headless    bool
	ProfilePath string
}

func (BrowserLaunch) isAction()          {}
func (BrowserLaunch) Label() string      { return "browser_launch" }
func (BrowserLaunch) Category() Category { return CategoryBrowser }
func (a BrowserLaunch) Description() string {
	if a.Headless {
		return "Launch headless browser"
	}
	return "Launch browser"
}
func (BrowserLaunch) Resource() (string, string) { return "browser", "" }

// BrowserNavigate describes navigating a browser to a URL.
type BrowserNavigate struct {
	URL    string
	Domain string
}

func (BrowserNavigate) isAction()          {}
func (BrowserNavigate) Label() string      { return "browser_navigate" }
func (BrowserNavigate) Category() Category { return CategoryBrowser }
func (a BrowserNavigate) Description() string {
	return fmt.Sprintf("Navigate browser to %s", a.URL)
}
func (a BrowserNavigate) Resource() (string, string) { return "url", a.URL }

// CredentialRead describes reading a stored credential.
type CredentialRead struct {
	Service string
	Account string
}

func (CredentialRead) isAction()          {}
func (CredentialRead) Label() string      { return "credential_read" }
func (CredentialRead) Category() Category { return CategoryCredentials }
func (a CredentialRead) Description() string {
	return fmt.Sprintf("Read credentials for %s", a.Service)
}
func (a CredentialRead) Resource() (string, string) { return "credential", a.Service }

// CredentialWrite describes storing a credential.
type CredentialWrite struct {
	Service string
	Account string
}

func (CredentialWrite) isAction()          {}
func (CredentialWrite) Label() string      { return "credential_write" }
func (CredentialWrite) Category() Category { return CategoryCredentials }
func (a CredentialWrite) Description() string {
	return fmt.Sprintf("Store credentials for %s", a.Service)
}
func (a CredentialWrite) Resource() (string, string) { return "credential", a.Service }
