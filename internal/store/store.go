// Package store provides durable, restart-surviving storage for the
// single active interview session: one slot for the latest analysis
// result and one for the latest uploaded file.
package store

import "context"

// SlotKey is the fixed key for the single "current" slot per category.
// There is no history; writes overwrite unconditionally.
const SlotKey = "current"

// SlotStore is implemented by each storage backend (Postgres, Redis,
// MinIO). Get operations distinguish "absent" (ok=false, err=nil) from
// genuine storage failure. No backend retries internally; failures
// propagate to the caller.
type SlotStore interface {
	// Init prepares the backend (schema, bucket). Idempotent and safe
	// for concurrent callers; must be awaited before any read or write.
	Init(ctx context.Context) error

	// SaveResult overwrites the current-result slot.
	SaveResult(ctx context.Context, result AnalysisResult) error
	// GetResult returns the stored result, or ok=false when absent.
	GetResult(ctx context.Context) (AnalysisResult, bool, error)

	// SaveFile overwrites the current-file slot with payload and name
	// as one atomic unit.
	SaveFile(ctx context.Context, payload, name string) error
	// GetFile returns the stored file, or ok=false when absent.
	GetFile(ctx context.Context) (StoredFile, bool, error)

	// Clear erases both slots. Backends with transactions erase both
	// or neither; others attempt both and report the first failure.
	Clear(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}
