// Package policy implements the security policy engine for AegisGate.
// It maps a described action plus the caller's trust level to a decision:
// allow, deny, or require human approval.
package policy

// TrustLevel is the ordered capability tier the caller currently holds.
type TrustLevel int

const (
	// TrustNormal is restrictive: workspace-scoped, many approvals required.
	TrustNormal TrustLevel = iota
	// TrustElevated grants broader scope with fewer approvals.
	TrustElevated
	// TrustFullSystem lets the agent act like a full human operator.
	// Sessions in this mode should be clearly marked and heavily audited.
	TrustFullSystem
)

func (t TrustLevel) String() string {
	switch t {
	case TrustNormal:
		return "normal"
	case TrustElevated:
		return "elevated"
	case TrustFullSystem:
		return "full_system"
	default:
		return "unknown"
	}
}

// ParseTrustLevel maps a string to a TrustLevel, defaulting to normal.
func ParseTrustLevel(s string) TrustLevel {
	switch s {
	case "elevated":
		return TrustElevated
	case "full_system":
		return TrustFullSystem
	default:
		return TrustNormal
	}
}

// IsElevated reports whether the level grants elevated allowances.
func (t TrustLevel) IsElevated() bool {
	return t == TrustElevated || t == TrustFullSystem
}

// IsFullSystem reports whether the level grants full-system allowances.
func (t TrustLevel) IsFullSystem() bool {
	return t == TrustFullSystem
}

// Description returns a short explanation suitable for display.
func (t TrustLevel) Description() string {
	switch t {
	case TrustNormal:
		return "Standard security mode - workspace-scoped access with approval prompts for sensitive operations"
	case TrustElevated:
		return "Elevated access - broader permissions with reduced approval prompts"
	case TrustFullSystem:
		return "Full system access - agent can perform any operation a human can, with comprehensive audit logging"
	default:
		return "Unknown trust level"
	}
}

// RiskLevel is the ordered severity attached to an action or approval.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseRisk maps a string to a RiskLevel. Unknown strings default to
// medium; callers that care should log the fallback.
func ParseRisk(s string) RiskLevel {
	switch s {
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	case "critical":
		return RiskCritical
	default:
		return RiskMedium
	}
}

// Description returns a short explanation suitable for display.
func (r RiskLevel) Description() string {
	switch r {
	case RiskLow:
		return "Low risk operation"
	case RiskMedium:
		return "Medium risk operation"
	case RiskHigh:
		return "High risk operation - requires careful review"
	case RiskCritical:
		return "Critical risk operation - potentially dangerous"
	default:
		return "Unknown risk"
	}
}

// Context is the per-call snapshot of the caller's standing. The engine
// treats it as read-only input; trust can change between calls, so it is
// never cached.
type Context struct {
	Trust     TrustLevel
	UserID    string
	SessionID string
}

// Verdict is the kind of decision the engine reached.
type Verdict int

const (
	// Allow lets the caller proceed immediately.
	Allow Verdict = iota
	// Deny stops the operation.
	Deny
	// RequireApproval means the caller must open an approval request
	// and suspend until it resolves.
	RequireApproval
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case RequireApproval:
		return "require_approval"
	default:
		return "unknown"
	}
}

// Decision is the engine's verdict for one action, with metadata.
type Decision struct {
	Verdict Verdict
	// Reason explains the decision to the caller or reviewer.
	Reason string
	// CanElevate is set on Deny when raising the trust level could
	// change the outcome.
	CanElevate bool
	// Risk is set on RequireApproval.
	Risk RiskLevel
	// AllowRemember is set on RequireApproval when the caller may cache
	// the reviewer's answer for this class of action. The cache itself
	// lives with the caller, not here.
	AllowRemember bool
}

// IsAllowed reports whether the caller may proceed.
func (d Decision) IsAllowed() bool { return d.Verdict == Allow }

// IsDenied reports whether the action was denied.
func (d Decision) IsDenied() bool { return d.Verdict == Deny }

// RequiresApproval reports whether the action needs a human verdict.
func (d Decision) RequiresApproval() bool { return d.Verdict == RequireApproval }

func allow(reason string) Decision {
	return Decision{Verdict: Allow, Reason: reason}
}

func deny(reason string, canElevate bool) Decision {
	return Decision{Verdict: Deny, Reason: reason, CanElevate: canElevate}
}

func needsApproval(risk RiskLevel, reason string, remember bool) Decision {
	return Decision{Verdict: RequireApproval, Risk: risk, Reason: reason, AllowRemember: remember}
}
