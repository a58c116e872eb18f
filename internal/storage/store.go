package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/redpandas/internal/frame"
)

// Store provides an interface for persisting station frames as columnar
// snapshots. Every write produces a new snapshot; existing snapshots are
// never modified.
type Store interface {
	// WriteSnapshot flattens the frame and stores it as a new snapshot of
	// the given event.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - eventName: Name of the event the frame belongs to
	//   - f: Frame to store, left unchanged
	//
	// Returns:
	//   - snapshotID: Unique identifier of the stored snapshot
	//   - error: If storage fails or context is cancelled
	WriteSnapshot(ctx context.Context, eventName string, f *frame.Frame) (snapshotID int64, err error)

	// ReadSnapshot loads a snapshot by its ID. Flattened columns are returned
	// flat together with their "_ndim" shape columns.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Unique snapshot identifier
	//   - opts: Optional filters (WithColumns)
	//
	// Returns:
	//   - f: Frame with one row per stored station
	//   - error: ErrNoSnapshot if the snapshot does not exist
	ReadSnapshot(ctx context.Context, id int64, opts ...ReadOption) (f *frame.Frame, err error)

	// LatestSnapshot returns the most recent snapshot of an event.
	//
	// Returns:
	//   - snapshot: Snapshot metadata
	//   - error: ErrNoSnapshot if the event has no snapshots
	LatestSnapshot(ctx context.Context, eventName string) (snapshot *Snapshot, err error)

	// Snapshots returns metadata of every stored snapshot in creation order.
	Snapshots(ctx context.Context) (snapshots []*Snapshot, err error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}
