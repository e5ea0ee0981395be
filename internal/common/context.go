package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID contextKey = "run_id"
	ContextKeyDocID contextKey = "doc_id"
)

// WithRunID adds a probe run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithDocID adds a document ID to the context
func WithDocID(ctx context.Context, docID string) context.Context {
	return context.WithValue(ctx, ContextKeyDocID, docID)
}

// DocIDFromContext extracts the document ID from context
func DocIDFromContext(ctx context.Context) string {
	if docID, ok := ctx.Value(ContextKeyDocID).(string); ok {
		return docID
	}
	return ""
}

// WithTimeout creates a context with the specified timeout; zero means no timeout.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
