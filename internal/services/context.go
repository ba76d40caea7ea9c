package services

import "context"

type contextKey string

const (
	fileIDKey    contextKey = "medialink.file_id"
	stageKey     contextKey = "medialink.stage"
	requestIDKey contextKey = "medialink.request_id"
)

// WithFileID attaches the media file identifier currently being processed.
func WithFileID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, fileIDKey, id)
}

// FileIDFromContext extracts the media file identifier, if present.
func FileIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(fileIDKey).(int64)
	return id, ok
}

// WithStage attaches the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts the pipeline stage name, if present.
func StageFromContext(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok
}

// WithRequestID attaches an API request correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request correlation identifier, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}
