package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/mackeh/AegisGate/internal/action"
	"github.com/mackeh/AegisGate/internal/audit"
	"github.com/mackeh/AegisGate/internal/scope"
	"github.com/mackeh/AegisGate/internal/telemetry"
)

// destructivePatterns force a critical approval when they appear anywhere
// in a shell command, regardless of scope or trust level.
var destructivePatterns = []string{
	"rm -rf /",
	"format ",
	"del /s",
	"deltree",
	"mkfs",
	"dd if=",
}

// safeDomains short-circuit network requests to known APIs.
var safeDomains = []string{
	"api.openai.com",
	"api.anthropic.com",
	"github.com",
	"api.github.com",
}

// suspiciousTLDs force approval before the browser navigates to them.
var suspiciousTLDs = []string{".onion", ".tk", ".ml"}

// Engine evaluates security actions against the built-in tiered rules,
// optionally consulting an operator-supplied override policy first.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	classifier  scope.Classifier
	override    *Override
	safeDomains []string
	log         *audit.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOverride attaches an operator-supplied Rego override policy.
func WithOverride(o *Override) EngineOption {
	return func(e *Engine) { e.override = o }
}

// WithSafeDomains replaces the built-in network safe list.
func WithSafeDomains(domains []string) EngineOption {
	return func(e *Engine) { e.safeDomains = domains }
}

// WithAudit attaches an audit logger; every decision is recorded.
func WithAudit(l *audit.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine backed by the given path classifier.
func New(classifier scope.Classifier, opts ...EngineOption) *Engine {
	e := &Engine{classifier: classifier, safeDomains: safeDomains}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate maps an action plus the caller's context to a decision.
// A classifier failure propagates as an error; it is never folded into a
// deny, so callers can distinguish "refused" from "could not judge".
func (e *Engine) Evaluate(ctx context.Context, act action.Action, pctx Context) (Decision, error) {
	if act == nil {
		return Decision{}, fmt.Errorf("nil action")
	}

	if e.override != nil {
		d, matched, err := e.override.Evaluate(ctx, act, pctx)
		if err != nil {
			return Decision{}, fmt.Errorf("override policy: %w", err)
		}
		if matched {
			e.record(act, pctx, d)
			return d, nil
		}
	}

	d, err := e.evaluate(act, pctx)
	if err != nil {
		return Decision{}, err
	}
	e.record(act, pctx, d)
	return d, nil
}

func (e *Engine) record(act action.Action, pctx Context, d Decision) {
	telemetry.PolicyDecisionsTotal.WithLabelValues(d.Verdict.String()).Inc()
	if e.log != nil {
		e.log.LogDecision(act.Label(), d.Verdict.String(), d.Risk.String(), pctx.UserID, d.Reason)
	}
}

func (e *Engine) evaluate(act action.Action, pctx Context) (Decision, error) {
	switch a := act.(type) {
	case action.FileRead:
		return e.evaluateFileRead(a, pctx)
	case action.FileWrite:
		return e.evaluateFileWrite(a, pctx)
	case action.FileDelete:
		return e.evaluateFileDelete(a, pctx)
	case action.DirectoryCreate:
		return e.evaluateDirectoryCreate(a, pctx)
	case action.DirectoryDelete:
		return e.evaluateDirectoryDelete(a, pctx)
	case action.DirectoryList:
		return e.evaluateDirectoryList(a, pctx)
	case action.ShellCommand:
		return e.evaluateShellCommand(a, pctx)
	case action.TerminalSpawn:
		return e.evaluateTerminalSpawn(a, pctx)
	case action.GitOperation:
		return e.evaluateGitOperation(a, pctx)
	case action.ScreenCapture:
		return e.evaluateScreenCapture(a, pctx), nil
	case action.InputSimulation:
		return e.evaluateInputSimulation(pctx), nil
	case action.ClipboardRead:
		return e.evaluateClipboardRead(pctx), nil
	case action.ClipboardWrite:
		return allow("Clipboard write is low-risk"), nil
	case action.DatabaseConnect:
		return e.evaluateDatabaseConnect(a, pctx), nil
	case action.DatabaseQuery:
		return e.evaluateDatabaseQuery(a), nil
	case action.NetworkRequest:
		return e.evaluateNetworkRequest(a, pctx), nil
	case action.BrowserLaunch:
		return allow("Browser launch is safe"), nil
	case action.BrowserNavigate:
		return e.evaluateBrowserNavigate(a), nil
	case action.CredentialRead:
		return e.evaluateCredentialRead(pctx), nil
	case action.CredentialWrite:
		return allow("Storing credentials securely"), nil
	default:
		return Decision{}, fmt.Errorf("unhandled action type %T", act)
	}
}

// File system evaluations

func (e *Engine) evaluateFileRead(a action.FileRead, pctx Context) (Decision, error) {
	res, err := e.classifier.Classify(a.Path, false)
	if err != nil {
		return Decision{}, err
	}
	switch res.Kind {
	case scope.InWorkspace:
		return allow("Reading file in workspace"), nil
	case scope.InUserHome:
		if pctx.Trust.IsElevated() {
			return allow("Reading file in user home (elevated mode)"), nil
		}
		return needsApproval(RiskMedium, fmt.Sprintf("Reading file outside workspace: %s", a.Path), true), nil
	default:
		if pctx.Trust.IsFullSystem() {
			return needsApproval(RiskHigh, fmt.Sprintf("Reading system file: %s", a.Path), false), nil
		}
		return deny(fmt.Sprintf("File %s is outside workspace. Enable Full System mode to access system files.", a.Path), true), nil
	}
}

func (e *Engine) evaluateFileWrite(a action.FileWrite, pctx Context) (Decision, error) {
	res, err := e.classifier.Classify(a.Path, true)
	if err != nil {
		return Decision{}, err
	}
	switch res.Kind {
	case scope.InWorkspace:
		// Large writes get a second look even in trusted territory.
		if a.SizeBytes > 100_000_000 {
			return needsApproval(RiskMedium, fmt.Sprintf("Writing large file (%d MB)", a.SizeBytes/1_000_000), false), nil
		}
		return allow("Writing file in workspace"), nil
	case scope.InUserHome:
		if pctx.Trust.IsElevated() {
			return needsApproval(RiskMedium, fmt.Sprintf("Writing file outside workspace: %s", a.Path), true), nil
		}
		return deny(fmt.Sprintf("Cannot write to %s - outside workspace. Elevate trust level to allow.", a.Path), true), nil
	default:
		return deny(fmt.Sprintf("Cannot write to system location: %s", a.Path), false), nil
	}
}

func (e *Engine) evaluateFileDelete(a action.FileDelete, pctx Context) (Decision, error) {
	res, err := e.classifier.Classify(a.Path, true)
	if err != nil {
		return Decision{}, err
	}
	switch res.Kind {
	case scope.InWorkspace:
		// Deletion is never auto-allowed, even inside the workspace.
		return needsApproval(RiskMedium, fmt.Sprintf("Delete file: %s", a.Path), false), nil
	case scope.InUserHome:
		if pctx.Trust.IsElevated() {
			return needsApproval(RiskHigh, fmt.Sprintf("Delete file outside workspace: %s", a.Path), false), nil
		}
		return deny("Cannot delete files outside workspace in Normal mode", true), nil
	default:
		return deny("Cannot delete system files", false), nil
	}
}

func (e *Engine) evaluateDirectoryCreate(a action.DirectoryCreate, pctx Context) (Decision, error) {
	res, err := e.classifier.Classify(a.Path, true)
	if err != nil {
		return Decision{}, err
	}
	switch res.Kind {
	case scope.InWorkspace:
		return allow("Creating directory in workspace"), nil
	case scope.InUserHome:
		if pctx.Trust.IsElevated() {
			return allow("Creating directory in user home (elevated)"), nil
		}
		return needsApproval(RiskMedium, fmt.Sprintf("Create directory outside workspace: %s", a.Path), true), nil
	default:
		return deny("Cannot create directories in system locations", false), nil
	}
}

func (e *Engine) evaluateDirectoryDelete(a action.DirectoryDelete, pctx Context) (Decision, error) {
	risk := RiskMedium
	reason := fmt.Sprintf("Delete directory: %s", a.Path)
	if a.Recursive {
		risk = RiskHigh
		reason = fmt.Sprintf("Recursively delete directory: %s", a.Path)
	}

	res, err := e.classifier.Classify(a.Path, true)
	if err != nil {
		return Decision{}, err
	}
	if res.Kind == scope.InWorkspace {
		return needsApproval(risk, reason, false), nil
	}
	if pctx.Trust.IsFullSystem() {
		return needsApproval(RiskCritical, fmt.Sprintf("Delete directory outside workspace: %s", a.Path), false), nil
	}
	return deny("Cannot delete directories outside workspace", true), nil
}

func (e *Engine) evaluateDirectoryList(a action.DirectoryList, pctx Context) (Decision, error) {
	res, err := e.classifier.Classify(a.Path, false)
	if err != nil {
		return Decision{}, err
	}
	switch res.Kind {
	case scope.InWorkspace:
		return allow("Listing directory in workspace"), nil
	case scope.InUserHome:
		if pctx.Trust.IsElevated() {
			return allow("Listing directory in user home"), nil
		}
		return needsApproval(RiskLow, fmt.Sprintf("List directory outside workspace: %s", a.Path), true), nil
	default:
		if pctx.Trust.IsFullSystem() {
			return allow("Listing system directory (full system mode)"), nil
		}
		return deny("Cannot list system directories in Normal/Elevated mode", true), nil
	}
}

// Shell and command evaluations

func (e *Engine) evaluateShellCommand(a action.ShellCommand, pctx Context) (Decision, error) {
	// Pattern match dominates scope and trust.
	lower := strings.ToLower(a.Command)
	for _, pattern := range destructivePatterns {
		if strings.Contains(lower, pattern) {
			return needsApproval(RiskCritical, fmt.Sprintf("Potentially destructive command: %s", a.Command), false), nil
		}
	}

	res, err := e.classifier.Classify(a.Cwd, false)
	if err != nil {
		return Decision{}, err
	}
	switch res.Kind {
	case scope.InWorkspace:
		return allow("Running command in workspace"), nil
	case scope.InUserHome:
		if pctx.Trust.IsElevated() {
			return allow("Running command in user home (elevated)"), nil
		}
		return needsApproval(RiskHigh, fmt.Sprintf("Run '%s' outside workspace", a.Command), false), nil
	default:
		if pctx.Trust.IsFullSystem() {
			return needsApproval(RiskCritical, fmt.Sprintf("Run '%s' in system directory", a.Command), false), nil
		}
		return deny("Cannot run commands in system directories", true), nil
	}
}

func (e *Engine) evaluateTerminalSpawn(a action.TerminalSpawn, pctx Context) (Decision, error) {
	res, err := e.classifier.Classify(a.Cwd, false)
	if err != nil {
		return Decision{}, err
	}
	switch res.Kind {
	case scope.InWorkspace:
		return allow("Spawning terminal in workspace"), nil
	case scope.InUserHome:
		if pctx.Trust.IsElevated() {
			return allow("Spawning terminal in user home"), nil
		}
		return needsApproval(RiskMedium, fmt.Sprintf("Spawn terminal outside workspace: %s", a.Cwd), true), nil
	default:
		return deny("Cannot spawn terminal in system directories", true), nil
	}
}

func (e *Engine) evaluateGitOperation(a action.GitOperation, pctx Context) (Decision, error) {
	// Remote writes are sensitive wherever the repository lives.
	if a.Op == action.GitPush {
		return needsApproval(RiskHigh, fmt.Sprintf("Git %s - pushes to remote repository", a.Op), true), nil
	}

	res, err := e.classifier.Classify(a.RepoPath, false)
	if err != nil {
		return Decision{}, err
	}
	if res.Kind == scope.InWorkspace {
		return allow(fmt.Sprintf("Git %s in workspace", a.Op)), nil
	}
	if pctx.Trust.IsElevated() {
		return allow(fmt.Sprintf("Git %s (elevated mode)", a.Op)), nil
	}
	return needsApproval(RiskMedium, fmt.Sprintf("Git %s outside workspace", a.Op), true), nil
}

// Automation evaluations

func (e *Engine) evaluateScreenCapture(a action.ScreenCapture, pctx Context) Decision {
	if pctx.Trust.IsFullSystem() {
		return allow("Screen capture in full system mode")
	}
	risk := RiskLow
	if a.SaveToDisk {
		risk = RiskMedium
	}
	return needsApproval(risk, "Capture screenshot", true)
}

func (e *Engine) evaluateInputSimulation(pctx Context) Decision {
	if pctx.Trust.IsFullSystem() {
		return allow("Input simulation in full system mode")
	}
	return needsApproval(RiskMedium, "Simulate keyboard/mouse input", true)
}

func (e *Engine) evaluateClipboardRead(pctx Context) Decision {
	if pctx.Trust.IsElevated() {
		return allow("Clipboard read (elevated mode)")
	}
	return needsApproval(RiskMedium, "Read clipboard contents", true)
}

// Database evaluations

func (e *Engine) evaluateDatabaseConnect(a action.DatabaseConnect, pctx Context) Decision {
	if a.IsLocal || a.Host == "localhost" || a.Host == "127.0.0.1" {
		return allow("Connecting to local database")
	}
	if pctx.Trust.IsElevated() {
		return needsApproval(RiskHigh, fmt.Sprintf("Connect to external database: %s", a.Host), true)
	}
	return deny("Cannot connect to external databases in Normal mode", true)
}

func (e *Engine) evaluateDatabaseQuery(a action.DatabaseQuery) Decision {
	switch a.Query {
	case action.QuerySelect:
		return allow("Read-only database query")
	case action.QueryInsert, action.QueryUpdate:
		return allow("Database modification")
	case action.QueryDelete, action.QueryDrop, action.QueryAlter:
		return needsApproval(RiskHigh, fmt.Sprintf("Destructive database operation: %s", a.Query), false)
	case action.QueryCreate:
		return allow("Database schema creation")
	default:
		return needsApproval(RiskHigh, fmt.Sprintf("Unrecognized database operation: %s", a.Query), false)
	}
}

// Network evaluations

func (e *Engine) evaluateNetworkRequest(a action.NetworkRequest, pctx Context) Decision {
	for _, d := range e.safeDomains {
		if strings.Contains(a.Domain, d) {
			return allow("Request to known safe API")
		}
	}

	if a.SensitiveData {
		if pctx.Trust.IsElevated() {
			return needsApproval(RiskHigh, fmt.Sprintf("Sending sensitive data to %s", a.Domain), false)
		}
		return deny("Cannot send sensitive data to external domains in Normal mode", true)
	}
	return allow("Non-sensitive network request")
}

// Browser evaluations

func (e *Engine) evaluateBrowserNavigate(a action.BrowserNavigate) Decision {
	for _, tld := range suspiciousTLDs {
		if strings.Contains(a.URL, tld) {
			return needsApproval(RiskHigh, fmt.Sprintf("Navigate to suspicious URL: %s", a.URL), false)
		}
	}
	return allow("Browser navigation")
}

// Credential evaluations

func (e *Engine) evaluateCredentialRead(pctx Context) Decision {
	if pctx.Trust.IsElevated() {
		return allow("Reading credentials (elevated mode)")
	}
	return needsApproval(RiskHigh, "Access stored credentials", true)
}
