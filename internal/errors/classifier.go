package errors

import (
	"sync"
	"time"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/logger"
)

// Classifier classifies errors, logs them and keeps the most recent ones for
// diagnostics. It is safe for concurrent use.
type Classifier struct {
	mu      sync.Mutex
	max     int
	entries []*AppError
}

// NewClassifier returns a classifier that retains at most max errors.
// A non-positive max uses constants.MaxErrorLogEntries.
func NewClassifier(max int) *Classifier {
	if max <= 0 {
		max = constants.MaxErrorLogEntries
	}
	return &Classifier{max: max}
}

// Record logs and stores an already classified error.
func (c *Classifier) Record(e *AppError) *AppError {
	if e == nil {
		return nil
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	keyvals := []interface{}{
		"category", e.Category,
		"code", e.Code,
		"severity", e.Severity,
		"timestamp", e.Timestamp.Format(time.RFC3339),
	}
	if e.Status != 0 {
		keyvals = append(keyvals, "status", e.Status)
	}
	if e.Severity == SeverityCritical || e.Severity == SeverityHigh {
		logger.Error(e.Message, keyvals...)
	} else {
		logger.Warn(e.Message, keyvals...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	if len(c.entries) > c.max {
		// drop the oldest entries; copy so the backing array does not grow forever
		c.entries = append([]*AppError(nil), c.entries[len(c.entries)-c.max:]...)
	}
	return e
}

// Recent returns recorded errors, oldest first.
func (c *Classifier) Recent() []*AppError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*AppError, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByCategory returns recorded errors of the given category, oldest first.
func (c *Classifier) ByCategory(category Category) []*AppError {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*AppError
	for _, e := range c.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// HasCritical reports whether any retained error is critical.
func (c *Classifier) HasCritical() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Clear drops all retained errors.
func (c *Classifier) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
