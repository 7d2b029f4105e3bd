package store

import (
	"context"
	"errors"

	"github.com/scrawlparty/scrawlparty-backend/internal"
)

var (
	// ErrNotFound means no room exists under the given code.
	ErrNotFound = errors.New("store: room not found")
	// ErrRoomExists means Create hit an already-taken code.
	ErrRoomExists = errors.New("store: room already exists")
	// ErrAborted is returned from a Transact mutate func to abandon the
	// transaction silently. Callers treat it as a no-op, not a failure:
	// it is how stale-state races are discarded.
	ErrAborted = errors.New("store: transaction aborted")
)

// RoomStore is the shared mutable tree substrate the game core runs against.
// Writes are last-writer-wins whole-record replaces; Transact is an
// optimistic single-key compare-and-swap retried on conflict; Subscribe is a
// per-room change feed delivering the full record after every committed
// write.
type RoomStore interface {
	// Create stores a fresh room, failing with ErrRoomExists on collision.
	Create(ctx context.Context, room *internal.Room) error

	// Get returns the current room record.
	Get(ctx context.Context, code string) (*internal.Room, error)

	// Save replaces the whole room record (last writer wins) and notifies
	// subscribers.
	Save(ctx context.Context, room *internal.Room) error

	// Transact reads the room, applies mutate, and writes the result back
	// only if nobody else wrote in between, retrying automatically on
	// conflict. Returning ErrAborted from mutate abandons the transaction
	// without error and without a write. On success the committed record
	// is returned.
	Transact(ctx context.Context, code string, mutate func(*internal.Room) error) (*internal.Room, error)

	// Subscribe returns a channel delivering the room record after each
	// committed write, plus a cancel func that releases the subscription.
	Subscribe(ctx context.Context, code string) (<-chan *internal.Room, func(), error)

	// List returns the codes of all live rooms.
	List(ctx context.Context) ([]string, error)

	// Delete removes a room record.
	Delete(ctx context.Context, code string) error

	Close() error
}
