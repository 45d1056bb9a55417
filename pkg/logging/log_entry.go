package logging

import "context"

// LogEntry represents a structured log record with fields particularly relevant to persona operations.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Persona-specific fields
	PersonaID string     // The persona being observed or refined
	ScoreInfo *ScoreInfo // Convergence measurements for the operation
	Latency   int64      // Operation duration in milliseconds

	// General structured data
	Fields map[string]interface{}
}

// ScoreInfo tracks convergence measurements for drift and regression monitoring.
type ScoreInfo struct {
	Similarity float64
	Drift      float64
	Phase      string
}

type personaIDKeyType struct{}
type scoreInfoKeyType struct{}

var (
	personaIDKey = personaIDKeyType{}
	scoreInfoKey = scoreInfoKeyType{}
)

// WithPersonaID annotates the context with the persona an operation acts on.
// Log entries emitted under this context carry the id automatically.
func WithPersonaID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, personaIDKey, id)
}

// GetPersonaID retrieves the persona id from context.
func GetPersonaID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(personaIDKey).(string)
	return id, ok
}

// WithScoreInfo annotates the context with the latest convergence measurements.
func WithScoreInfo(ctx context.Context, info *ScoreInfo) context.Context {
	return context.WithValue(ctx, scoreInfoKey, info)
}

// GetScoreInfo retrieves convergence measurements from context.
func GetScoreInfo(ctx context.Context) (*ScoreInfo, bool) {
	info, ok := ctx.Value(scoreInfoKey).(*ScoreInfo)
	return info, ok
}
