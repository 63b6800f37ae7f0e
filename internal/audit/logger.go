// Package audit provides tamper-evident logging for AegisGate.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry represents a single audit log entry
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Action    string         `json:"action,omitempty"`
	Decision  string         `json:"decision,omitempty"`
	Risk      string         `json:"risk,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	PrevHash  string         `json:"prev_hash"`
	Hash      string         `json:"hash"`
}

// Logger provides append-only, tamper-evident logging
type Logger struct {
	file     *os.File
	mu       sync.Mutex
	lastHash string
}

// NewLogger creates a new audit logger
func NewLogger(path string) (*Logger, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	// Open file in append mode
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	logger := &Logger{
		file:     file,
		lastHash: "genesis",
	}

	// Read last hash from existing log if present
	if err := logger.loadLastHash(path); err != nil {
		// Ignore errors - start fresh if can't read
	}

	return logger, nil
}

// Log records an entry to the audit log
func (l *Logger) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Timestamp = time.Now().UTC()
	entry.PrevHash = l.lastHash

	// Compute hash of entry (excluding hash field)
	entry.Hash = computeHash(entry)
	l.lastHash = entry.Hash

	// Serialize and write
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	return l.file.Sync()
}

// LogDecision records a policy evaluation outcome.
func (l *Logger) LogDecision(actionLabel, decision, risk, actor, reason string) error {
	return l.Log(Entry{
		Event:    "policy_decision",
		Action:   actionLabel,
		Decision: decision,
		Risk:     risk,
		Actor:    actor,
		Details:  map[string]any{"reason": reason},
	})
}

// LogApprovalCreated records a new approval request.
func (l *Logger) LogApprovalCreated(requestID, actionLabel, risk, requester string) error {
	return l.Log(Entry{
		Event:   "approval_created",
		Action:  actionLabel,
		Risk:    risk,
		Actor:   requester,
		Details: map[string]any{"request_id": requestID},
	})
}

// LogApprovalDecided records a reviewer verdict on a request.
func (l *Logger) LogApprovalDecided(requestID, status, reviewer, reason string) error {
	return l.Log(Entry{
		Event:    "approval_decided",
		Decision: status,
		Actor:    reviewer,
		Details:  map[string]any{"request_id": requestID, "reason": reason},
	})
}

// LogApprovalsExpired records an expiry sweep that changed rows.
func (l *Logger) LogApprovalsExpired(count int64) error {
	return l.Log(Entry{
		Event:   "approvals_expired",
		Details: map[string]any{"count": count},
	})
}

// LogWarning records a non-fatal anomaly, such as a permissive default
// applied to an unknown stored value.
func (l *Logger) LogWarning(message string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	details["message"] = message
	return l.Log(Entry{
		Event:   "warning",
		Details: details,
	})
}

// Close closes the audit log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func computeHash(entry Entry) string {
	// Create a copy without the hash field for hashing
	hashInput := struct {
		Timestamp time.Time      `json:"timestamp"`
		Event     string         `json:"event"`
		Action    string         `json:"action,omitempty"`
		Decision  string         `json:"decision,omitempty"`
		Risk      string         `json:"risk,omitempty"`
		Actor     string         `json:"actor,omitempty"`
		Details   map[string]any `json:"details,omitempty"`
		PrevHash  string         `json:"prev_hash"`
	}{
		Timestamp: entry.Timestamp,
		Event:     entry.Event,
		Action:    entry.Action,
		Decision:  entry.Decision,
		Risk:      entry.Risk,
		Actor:     entry.Actor,
		Details:   entry.Details,
		PrevHash:  entry.PrevHash,
	}

	data, _ := json.Marshal(hashInput)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (l *Logger) loadLastHash(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Find last non-empty line
	lines := splitLines(data)
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var entry Entry
			if err := json.Unmarshal(lines[i], &entry); err == nil {
				l.lastHash = entry.Hash
				return nil
			}
		}
	}

	return nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

// ReadAll reads all entries from the log file
func ReadAll(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []Entry
	lines := splitLines(data)
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Verify checks the integrity of the audit log
func Verify(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read audit log: %w", err)
	}

	lines := splitLines(data)
	prevHash := "genesis"

	for i, line := range lines {
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return false, fmt.Errorf("failed to parse entry %d: %w", i, err)
		}

		// Verify chain
		if entry.PrevHash != prevHash {
			return false, fmt.Errorf("chain broken at entry %d (timestamp: %s)", i, entry.Timestamp)
		}

		// Verify hash (recompute)
		if computeHash(entry) != entry.Hash {
			return false, fmt.Errorf("hash mismatch at entry %d (timestamp: %s)", i, entry.Timestamp)
		}

		prevHash = entry.Hash
	}

	return true, nil
}
