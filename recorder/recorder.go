// Package recorder persists training attempts and retrieves previously
// successful patterns to enrich future prompts.
//
// Information Hiding:
// - SQLite connection management hidden behind the type
// - Schema and versioning rules encapsulated
// - Thread-safe via sql.DB's built-in connection pooling
package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Attempt is one generate-execute cycle to be persisted.
type Attempt struct {
	RunID        string
	Task         string
	Code         string
	Success      bool
	ErrorClass   string
	ErrorMessage string
	// PrevErrorClass is the classification of the failure that preceded
	// this attempt within the same run, if any. A success following a
	// failure teaches the recorder a fix for that error class.
	PrevErrorClass string
	Duration       time.Duration
}

// SavedAttempt is a persisted attempt with its assigned identity.
type SavedAttempt struct {
	ID          int64
	Fingerprint string
	Version     int
	FilePath    string
	CreatedAt   time.Time
}

// Pattern classification kinds.
const (
	PatternTaskSolution  = "task_solution"
	PatternErrorSolution = "error_solution"
)

// learningWindow bounds how long a pattern's code fragment keeps
// updating. Once a pattern has succeeded this many times the fragment
// is frozen as the canonical example; only the counters keep moving.
const learningWindow = 3

// Bounded column lengths, enforced at insert.
const (
	maxTaskLen    = 500
	maxCodeLen    = 10000
	maxClassLen   = 100
	maxMessageLen = 500
)

// Fingerprint returns the stable short hash of a task's text, used to
// group repeated attempts at the same task across sessions.
func Fingerprint(task string) string {
	sum := sha256.Sum256([]byte(task))
	return hex.EncodeToString(sum[:])[:12]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
