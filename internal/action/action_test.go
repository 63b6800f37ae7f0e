package action

import "testing"

func TestLabelsAreUniqueAndStable(t *testing.T) {
	actions := []Action{
		FileRead{Path: "/tmp/a"},
		FileWrite{Path: "/tmp/a"},
		FileDelete{Path: "/tmp/a"},
		DirectoryCreate{Path: "/tmp/d"},
		DirectoryDelete{Path: "/tmp/d"},
		DirectoryList{Path: "/tmp/d"},
		ShellCommand{Command: "ls", Cwd: "/tmp"},
		TerminalSpawn{ShellType: "bash", Cwd: "/tmp"},
		GitOperation{Op: GitStatus, RepoPath: "/tmp/repo"},
		ScreenCapture{},
		InputSimulation{Kind: InputClick},
		ClipboardRead{},
		ClipboardWrite{ContentType: "text/plain"},
		DatabaseConnect{Host: "localhost"},
		DatabaseQuery{Query: QuerySelect},
		NetworkRequest{Method: "GET", Domain: "example.com"},
		BrowserLaunch{},
		BrowserNavigate{URL: "https://example.com", Domain: "example.com"},
		CredentialRead{Service: "github"},
		CredentialWrite{Service: "github"},
	}

	seen := map[string]bool{}
	for _, a := range actions {
		label := a.Label()
		if label == "" {
			t.Errorf("%T has empty label", a)
		}
		if seen[label] {
			t.Errorf("duplicate label %q", label)
		}
		seen[label] = true

		if a.Category() == "" {
			t.Errorf("%T has empty category", a)
		}
		if a.Description() == "" {
			t.Errorf("%T has empty description", a)
		}
	}
}

func TestDescriptions(t *testing.T) {
	tests := []struct {
		name string
		a    Action
		want string
	}{
		{"file read", FileRead{Path: "/w/notes.txt"}, "Read file: /w/notes.txt"},
		{"recursive delete", DirectoryDelete{Path: "/w/out", Recursive: true}, "Delete directory recursively: /w/out"},
		{"plain delete", DirectoryDelete{Path: "/w/out"}, "Delete directory: /w/out"},
		{"shell", ShellCommand{Command: "make", Cwd: "/w"}, "Run command 'make' in /w"},
		{"capture region", ScreenCapture{Region: &CaptureRegion{Width: 800, Height: 600}}, "Capture screen region 800x600"},
		{"capture full", ScreenCapture{}, "Capture full screen"},
		{"headless browser", BrowserLaunch{Headless: true}, "Launch headless browser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResourceIdentifiers(t *testing.T) {
	rt, rid := FileDelete{Path: "/w/data.csv"}.Resource()
	if rt != "file" || rid != "/w/data.csv" {
		t.Errorf("FileDelete.Resource() = %q/%q", rt, rid)
	}

	rt, rid = ShellCommand{Command: "rm -rf build", Cwd: "/w"}.Resource()
	if rt != "command" || rid != "rm -rf build" {
		t.Errorf("ShellCommand.Resource() = %q/%q", rt, rid)
	}

	rt, rid = ClipboardRead{}.Resource()
	if rt != "clipboard" || rid != "" {
		t.Errorf("ClipboardRead.Resource() = %q/%q", rt, rid)
	}
}
