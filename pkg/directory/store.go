package directory

import "context"

// Store is the persistence contract every backend implements.
//
// Records passed in are already normalized and validated. Implementations
// must enforce (city, trader) uniqueness and leave the backing storage
// consistent before returning from a mutating call.
type Store interface {
	// List returns every record, ordered by city then trader.
	List(ctx context.Context) ([]Record, error)

	// Insert adds rec or fails with ErrDuplicateKey.
	Insert(ctx context.Context, rec Record) error

	// Update replaces the record stored under old with rec and returns the
	// record it replaced. It fails with ErrNotFound when old is absent and
	// with ErrDuplicateKey when rec's key belongs to a different record.
	Update(ctx context.Context, old Key, rec Record) (Record, error)

	// Delete removes the record stored under key and returns it, or fails
	// with ErrNotFound.
	Delete(ctx context.Context, key Key) (Record, error)

	Close() error
}

// Publisher receives an Event after every successful mutation.
type Publisher interface {
	Publish(Event)
}
