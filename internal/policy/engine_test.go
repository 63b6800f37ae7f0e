package policy

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mackeh/AegisGate/internal/action"
	"github.com/mackeh/AegisGate/internal/audit"
	"github.com/mackeh/AegisGate/internal/scope"
)

// fakeClassifier classifies by path prefix so engine tests need no
// filesystem.
type fakeClassifier struct {
	err error
}

func (f fakeClassifier) Classify(path string, write bool) (scope.Result, error) {
	if f.err != nil {
		return scope.Result{}, f.err
	}
	switch {
	case strings.HasPrefix(path, "/ws"):
		return scope.Result{Kind: scope.InWorkspace, Path: path, WorkspaceID: "ws-1", Write: write}, nil
	case strings.HasPrefix(path, "/home"):
		return scope.Result{Kind: scope.InUserHome, Path: path, Write: write}, nil
	default:
		return scope.Result{Kind: scope.OutsideScope, Path: path, Write: write}, nil
	}
}

func testEngine() *Engine {
	return New(fakeClassifier{})
}

func TestEvaluateFileRead(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	tests := []struct {
		name    string
		path    string
		trust   TrustLevel
		verdict Verdict
		risk    RiskLevel
	}{
		{"workspace normal", "/ws/notes.txt", TrustNormal, Allow, 0},
		{"workspace elevated", "/ws/notes.txt", TrustElevated, Allow, 0},
		{"home normal", "/home/user/doc.md", TrustNormal, RequireApproval, RiskMedium},
		{"home elevated", "/home/user/doc.md", TrustElevated, Allow, 0},
		{"outside normal", "/opt/x", TrustNormal, Deny, 0},
		{"outside full system", "/opt/x", TrustFullSystem, RequireApproval, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Evaluate(ctx, action.FileRead{Path: tt.path}, Context{Trust: tt.trust})
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if d.Verdict != tt.verdict {
				t.Errorf("Verdict = %v, want %v", d.Verdict, tt.verdict)
			}
			if tt.verdict == RequireApproval && d.Risk != tt.risk {
				t.Errorf("Risk = %v, want %v", d.Risk, tt.risk)
			}
		})
	}
}

func TestEvaluateFileWrite(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	// Large writes need approval even inside the workspace.
	d, err := e.Evaluate(ctx, action.FileWrite{Path: "/ws/big.bin", SizeBytes: 200_000_000}, Context{Trust: TrustFullSystem})
	if err != nil {
		t.Fatal(err)
	}
	if d.Verdict != RequireApproval || d.Risk != RiskMedium {
		t.Errorf("large write = %v/%v, want RequireApproval/medium", d.Verdict, d.Risk)
	}

	d, err = e.Evaluate(ctx, action.FileWrite{Path: "/ws/small.txt", SizeBytes: 1024}, Context{Trust: TrustNormal})
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsAllowed() {
		t.Errorf("small workspace write = %v, want allow", d.Verdict)
	}

	// Home writes deny under normal but can elevate.
	d, err = e.Evaluate(ctx, action.FileWrite{Path: "/home/user/x.txt"}, Context{Trust: TrustNormal})
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsDenied() || !d.CanElevate {
		t.Errorf("home write normal = %+v, want deny with can_elevate", d)
	}

	// System writes deny with no elevation path.
	d, err = e.Evaluate(ctx, action.FileWrite{Path: "/usr/bin/x"}, Context{Trust: TrustFullSystem})
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsDenied() || d.CanElevate {
		t.Errorf("system write = %+v, want terminal deny", d)
	}
}

func TestEvaluateFileDeleteNeverAutoAllows(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	for _, trust := range []TrustLevel{TrustNormal, TrustElevated, TrustFullSystem} {
		d, err := e.Evaluate(ctx, action.FileDelete{Path: "/ws/data.csv"}, Context{Trust: trust})
		if err != nil {
			t.Fatal(err)
		}
		if d.Verdict != RequireApproval {
			t.Errorf("delete in workspace under %v = %v, want RequireApproval", trust, d.Verdict)
		}
		if d.Risk != RiskMedium {
			t.Errorf("delete in workspace risk = %v, want medium", d.Risk)
		}
	}
}

func TestEvaluateShellCommand(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	// Destructive pattern dominates scope and trust.
	for _, cmd := range []string{"rm -rf /", "sudo RM -RF /tmp/../", "mkfs.ext4 /dev/sda", "dd if=/dev/zero of=/dev/sda"} {
		d, err := e.Evaluate(ctx, action.ShellCommand{Command: cmd, Cwd: "/ws"}, Context{Trust: TrustFullSystem})
		if err != nil {
			t.Fatal(err)
		}
		if d.Verdict != RequireApproval || d.Risk != RiskCritical {
			t.Errorf("destructive %q = %v/%v, want RequireApproval/critical", cmd, d.Verdict, d.Risk)
		}
	}

	d, err := e.Evaluate(ctx, action.ShellCommand{Command: "go test ./...", Cwd: "/ws"}, Context{Trust: TrustNormal})
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsAllowed() {
		t.Errorf("benign workspace command = %v, want allow", d.Verdict)
	}

	d, err = e.Evaluate(ctx, action.ShellCommand{Command: "ls", Cwd: "/home/user"}, Context{Trust: TrustNormal})
	if err != nil {
		t.Fatal(err)
	}
	if d.Verdict != RequireApproval || d.Risk != RiskHigh {
		t.Errorf("home command normal = %v/%v, want RequireApproval/high", d.Verdict, d.Risk)
	}
}

func TestEvaluateGitPushAlwaysNeedsApproval(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	for _, trust := range []TrustLevel{TrustNormal, TrustElevated, TrustFullSystem} {
		d, err := e.Evaluate(ctx, action.GitOperation{Op: action.GitPush, RepoPath: "/ws/repo"}, Context{Trust: trust})
		if err != nil {
			t.Fatal(err)
		}
		if d.Verdict != RequireApproval || d.Risk != RiskHigh {
			t.Errorf("git push under %v = %v/%v, want RequireApproval/high", trust, d.Verdict, d.Risk)
		}
	}

	d, err := e.Evaluate(ctx, action.GitOperation{Op: action.GitStatus, RepoPath: "/ws/repo"}, Context{Trust: TrustNormal})
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsAllowed() {
		t.Errorf("git status in workspace = %v, want allow", d.Verdict)
	}
}

func TestEvaluateDatabase(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	d, _ := e.Evaluate(ctx, action.DatabaseConnect{Host: "localhost"}, Context{Trust: TrustNormal})
	if !d.IsAllowed() {
		t.Errorf("localhost connect = %v, want allow", d.Verdict)
	}

	d, _ = e.Evaluate(ctx, action.DatabaseConnect{Host: "db.example.com"}, Context{Trust: TrustNormal})
	if !d.IsDenied() || !d.CanElevate {
		t.Errorf("remote connect normal = %+v, want deny with can_elevate", d)
	}

	d, _ = e.Evaluate(ctx, action.DatabaseConnect{Host: "db.example.com"}, Context{Trust: TrustElevated})
	if d.Verdict != RequireApproval || d.Risk != RiskHigh {
		t.Errorf("remote connect elevated = %v/%v, want RequireApproval/high", d.Verdict, d.Risk)
	}

	for _, kind := range []action.QueryKind{action.QuerySelect, action.QueryInsert, action.QueryUpdate, action.QueryCreate} {
		d, _ = e.Evaluate(ctx, action.DatabaseQuery{Query: kind}, Context{Trust: TrustNormal})
		if !d.IsAllowed() {
			t.Errorf("query %s = %v, want allow", kind, d.Verdict)
		}
	}
	for _, kind := range []action.QueryKind{action.QueryDelete, action.QueryDrop, action.QueryAlter} {
		d, _ = e.Evaluate(ctx, action.DatabaseQuery{Query: kind}, Context{Trust: TrustFullSystem})
		if d.Verdict != RequireApproval || d.Risk != RiskHigh {
			t.Errorf("query %s = %v/%v, want RequireApproval/high", kind, d.Verdict, d.Risk)
		}
	}
}

func TestEvaluateNetworkRequest(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	// Safe-domain allow-list wins even for sensitive payloads.
	d, _ := e.Evaluate(ctx, action.NetworkRequest{Domain: "api.github.com", SensitiveData: true}, Context{Trust: TrustNormal})
	if !d.IsAllowed() {
		t.Errorf("safe domain sensitive = %v, want allow", d.Verdict)
	}

	d, _ = e.Evaluate(ctx, action.NetworkRequest{Domain: "evil.example.com", SensitiveData: true}, Context{Trust: TrustNormal})
	if !d.IsDenied() || !d.CanElevate {
		t.Errorf("sensitive to unknown domain normal = %+v, want deny with can_elevate", d)
	}

	d, _ = e.Evaluate(ctx, action.NetworkRequest{Domain: "evil.example.com", SensitiveData: true}, Context{Trust: TrustElevated})
	if d.Verdict != RequireApproval || d.Risk != RiskHigh {
		t.Errorf("sensitive to unknown domain elevated = %v/%v, want RequireApproval/high", d.Verdict, d.Risk)
	}

	d, _ = e.Evaluate(ctx, action.NetworkRequest{Domain: "weather.example.com"}, Context{Trust: TrustNormal})
	if !d.IsAllowed() {
		t.Errorf("non-sensitive unknown domain = %v, want allow", d.Verdict)
	}
}

func TestEvaluateBrowserNavigate(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	d, _ := e.Evaluate(ctx, action.BrowserNavigate{URL: "http://example.onion/x"}, Context{Trust: TrustFullSystem})
	if d.Verdict != RequireApproval || d.Risk != RiskHigh {
		t.Errorf("suspicious TLD = %v/%v, want RequireApproval/high", d.Verdict, d.Risk)
	}

	d, _ = e.Evaluate(ctx, action.BrowserNavigate{URL: "https://example.com"}, Context{Trust: TrustNormal})
	if !d.IsAllowed() {
		t.Errorf("normal navigation = %v, want allow", d.Verdict)
	}
}

func TestEvaluateAutomationAndCredentials(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	d, _ := e.Evaluate(ctx, action.ScreenCapture{SaveToDisk: true}, Context{Trust: TrustNormal})
	if d.Verdict != RequireApproval || d.Risk != RiskMedium {
		t.Errorf("capture to disk = %v/%v, want RequireApproval/medium", d.Verdict, d.Risk)
	}
	d, _ = e.Evaluate(ctx, action.ScreenCapture{}, Context{Trust: TrustNormal})
	if d.Verdict != RequireApproval || d.Risk != RiskLow {
		t.Errorf("capture in memory = %v/%v, want RequireApproval/low", d.Verdict, d.Risk)
	}
	d, _ = e.Evaluate(ctx, action.ScreenCapture{}, Context{Trust: TrustFullSystem})
	if !d.IsAllowed() {
		t.Errorf("capture full system = %v, want allow", d.Verdict)
	}

	d, _ = e.Evaluate(ctx, action.ClipboardWrite{ContentType: "text/plain"}, Context{Trust: TrustNormal})
	if !d.IsAllowed() {
		t.Errorf("clipboard write = %v, want allow", d.Verdict)
	}

	d, _ = e.Evaluate(ctx, action.CredentialRead{Service: "github"}, Context{Trust: TrustNormal})
	if d.Verdict != RequireApproval || d.Risk != RiskHigh {
		t.Errorf("credential read normal = %v/%v, want RequireApproval/high", d.Verdict, d.Risk)
	}
	d, _ = e.Evaluate(ctx, action.CredentialRead{Service: "github"}, Context{Trust: TrustElevated})
	if !d.IsAllowed() {
		t.Errorf("credential read elevated = %v, want allow", d.Verdict)
	}
	d, _ = e.Evaluate(ctx, action.CredentialWrite{Service: "github"}, Context{Trust: TrustNormal})
	if !d.IsAllowed() {
		t.Errorf("credential write = %v, want allow", d.Verdict)
	}
}

// allActions returns one value per variant, touching every scope tier.
func allActions() []action.Action {
	return []action.Action{
		action.FileRead{Path: "/ws/a"},
		action.FileWrite{Path: "/home/user/a", SizeBytes: 10},
		action.FileDelete{Path: "/opt/a"},
		action.DirectoryCreate{Path: "/home/user/d"},
		action.DirectoryDelete{Path: "/ws/d", Recursive: true},
		action.DirectoryList{Path: "/opt/d"},
		action.ShellCommand{Command: "make", Cwd: "/ws"},
		action.TerminalSpawn{ShellType: "bash", Cwd: "/home/user"},
		action.GitOperation{Op: action.GitPull, RepoPath: "/ws/repo"},
		action.ScreenCapture{SaveToDisk: true},
		action.InputSimulation{Kind: action.InputType},
		action.ClipboardRead{},
		action.ClipboardWrite{ContentType: "text/plain"},
		action.DatabaseConnect{Host: "db.example.com"},
		action.DatabaseQuery{Query: action.QueryDrop},
		action.NetworkRequest{Domain: "x.example.com", SensitiveData: true},
		action.BrowserLaunch{},
		action.BrowserNavigate{URL: "https://example.com"},
		action.CredentialRead{Service: "s"},
		action.CredentialWrite{Service: "s"},
	}
}

// Every variant under every trust level yields exactly one decision and
// no error.
func TestEvaluateIsTotal(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	for _, act := range allActions() {
		for _, trust := range []TrustLevel{TrustNormal, TrustElevated, TrustFullSystem} {
			d, err := e.Evaluate(ctx, act, Context{Trust: trust})
			if err != nil {
				t.Fatalf("Evaluate(%s, %v) error = %v", act.Label(), trust, err)
			}
			switch d.Verdict {
			case Allow, Deny, RequireApproval:
			default:
				t.Errorf("Evaluate(%s, %v) verdict = %v", act.Label(), trust, d.Verdict)
			}
		}
	}
}

// severity ranks a decision for the monotonicity check: allow < approval
// < deny.
func severity(d Decision) int {
	switch d.Verdict {
	case Allow:
		return 0
	case RequireApproval:
		return 1
	default:
		return 2
	}
}

// Raising trust never makes an outcome stricter and never raises the
// risk attached to a required approval.
func TestTrustMonotonicity(t *testing.T) {
	e := testEngine()
	ctx := context.Background()
	levels := []TrustLevel{TrustNormal, TrustElevated, TrustFullSystem}

	for _, act := range allActions() {
		prevSeverity := -1
		prevRisk := RiskCritical + 1
		first := true
		for _, trust := range levels {
			d, err := e.Evaluate(ctx, act, Context{Trust: trust})
			if err != nil {
				t.Fatalf("Evaluate(%s, %v) error = %v", act.Label(), trust, err)
			}
			if !first {
				if severity(d) > prevSeverity {
					t.Errorf("%s: severity rose from %d to %d at %v", act.Label(), prevSeverity, severity(d), trust)
				}
				if d.Verdict == RequireApproval && prevRisk <= RiskCritical && d.Risk > prevRisk {
					t.Errorf("%s: approval risk rose from %v to %v at %v", act.Label(), prevRisk, d.Risk, trust)
				}
			}
			prevSeverity = severity(d)
			if d.Verdict == RequireApproval {
				prevRisk = d.Risk
			} else {
				prevRisk = RiskCritical + 1
			}
			first = false
		}
	}
}

func TestWithSafeDomains(t *testing.T) {
	e := New(fakeClassifier{}, WithSafeDomains([]string{"internal.corp"}))
	ctx := context.Background()

	d, err := e.Evaluate(ctx, action.NetworkRequest{Domain: "api.internal.corp", SensitiveData: true}, Context{Trust: TrustNormal})
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsAllowed() {
		t.Errorf("configured safe domain = %v, want allow", d.Verdict)
	}

	// The built-in list is replaced, not extended.
	d, err = e.Evaluate(ctx, action.NetworkRequest{Domain: "api.github.com", SensitiveData: true}, Context{Trust: TrustNormal})
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsDenied() {
		t.Errorf("replaced safe list = %v, want deny", d.Verdict)
	}
}

func TestWithAuditRecordsDecisions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	logger, err := audit.NewLogger(logPath)
	if err != nil {
		t.Fatalf("failed to open audit log: %v", err)
	}
	defer logger.Close()

	e := New(fakeClassifier{}, WithAudit(logger))
	if _, err := e.Evaluate(context.Background(), action.FileRead{Path: "/ws/a"}, Context{Trust: TrustNormal, UserID: "agent-1"}); err != nil {
		t.Fatal(err)
	}

	entries, err := audit.ReadAll(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Action != "file_read" || entries[0].Decision != "allow" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[0].Actor != "agent-1" {
		t.Errorf("expected actor agent-1, got %s", entries[0].Actor)
	}
}

func TestClassifierErrorPropagates(t *testing.T) {
	wantErr := errors.New("io failure")
	e := New(fakeClassifier{err: wantErr})

	_, err := e.Evaluate(context.Background(), action.FileRead{Path: "/ws/a"}, Context{Trust: TrustNormal})
	if err == nil {
		t.Fatal("expected error when classifier fails")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want to wrap %v", err, wantErr)
	}
}
