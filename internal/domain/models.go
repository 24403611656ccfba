package domain

import "time"

// DefaultTarget is monitored when no targets are configured.
const DefaultTarget = "https://example.com"

// CachedState is the last committed observation of a target.
// Content, Fingerprint and LastUpdated are always written together.
type CachedState struct {
	Target      string    `json:"target"`
	Content     string    `json:"content"`
	Fingerprint string    `json:"fingerprint"`
	LastUpdated time.Time `json:"last_updated"`
}

type Outcome string

const (
	OutcomeInitialized Outcome = "initialized"
	OutcomeChanged     Outcome = "changed"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeError       Outcome = "error"
)

// CheckResult is produced fresh for every check of a target and never persisted.
type CheckResult struct {
	Target              string     `json:"target"`
	Outcome             Outcome    `json:"outcome"`
	Fingerprint         string     `json:"fingerprint,omitempty"`
	PreviousFingerprint string     `json:"previous_fingerprint,omitempty"`
	LastUpdated         *time.Time `json:"last_updated,omitempty"`
	Error               string     `json:"error,omitempty"`
}

func (r CheckResult) Changed() bool { return r.Outcome == OutcomeChanged }

func (r CheckResult) Failed() bool { return r.Outcome == OutcomeError }

// ErrorResult builds the error-outcome result for a target.
func ErrorResult(target string, detail string) CheckResult {
	return CheckResult{Target: target, Outcome: OutcomeError, Error: detail}
}
