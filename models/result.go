package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CopyFailure records a file or source root that could not be copied
type CopyFailure struct {
	Path string
	Err  error
}

// CopyResult summarizes one mirror cycle
type CopyResult struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	FilesCopied int
	BytesCopied int64
	Failures    []CopyFailure
}

// NewCopyResult creates a result for a cycle starting at the given time
func NewCopyResult(started time.Time) *CopyResult {
	return &CopyResult{
		ID:        uuid.New().String(),
		StartedAt: started,
	}
}

// AddCopied records a successfully copied file
func (r *CopyResult) AddCopied(size int64) {
	r.FilesCopied++
	r.BytesCopied += size
}

// AddFailure records a failed path
func (r *CopyResult) AddFailure(path string, err error) {
	r.Failures = append(r.Failures, CopyFailure{Path: path, Err: err})
}

// Failed reports whether anything went wrong during the cycle
func (r *CopyResult) Failed() bool {
	return len(r.Failures) > 0
}

// Elapsed returns how long the cycle ran
func (r *CopyResult) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns a short human readable description of the cycle
func (r *CopyResult) Summary() string {
	if !r.Failed() {
		return fmt.Sprintf("Copied %d files (%d bytes).", r.FilesCopied, r.BytesCopied)
	}
	return fmt.Sprintf("Copied %d files (%d bytes), %d failed. First failure: %s: %v",
		r.FilesCopied, r.BytesCopied, len(r.Failures), r.Failures[0].Path, r.Failures[0].Err)
}
