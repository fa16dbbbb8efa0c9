package database

// DataAccessor is the read and write access shared by databases and their
// transactions
type DataAccessor interface {
	// Put overwrites any previous value of key
	Put(key *Key, value []byte) error

	// Get returns ErrNotFound if key does not exist
	Get(key *Key) ([]byte, error)

	Has(key *Key) (bool, error)

	// Delete of a missing key is not an error
	Delete(key *Key) error

	// Cursor iterates over all entries of bucket in key order
	Cursor(bucket *Bucket) (Cursor, error)
}

// Database is a key-value store that supports transactions.
//
// Begin and Close are kept out of DataAccessor so that transactions, which
// are DataAccessors too, need not implement them.
type Database interface {
	DataAccessor

	Begin() (Transaction, error)
	Close() error
}

// Transaction buffers writes until Commit. Its reads see the database as it
// was when the transaction began, without its own pending writes.
type Transaction interface {
	DataAccessor

	Rollback() error
	Commit() error

	// RollbackUnlessClosed is a no-op after Rollback or Commit, so it can be
	// deferred right after Begin
	RollbackUnlessClosed() error
}

// Cursor walks the entries of a single bucket in ascending key order.
// First and Next panic on a closed cursor, while the other methods return
// an error.
type Cursor interface {
	// Next advances the cursor and returns false once no entries are left
	Next() bool

	// First moves to the first entry and returns false if there is none
	First() bool

	// Seek moves to the entry of exactly key, or returns ErrNotFound
	Seek(key *Key) error

	// Key returns the key of the current entry, relative to the bucket of
	// the cursor. It returns ErrNotFound once the cursor is exhausted.
	Key() (*Key, error)

	// Value returns the value of the current entry, or ErrNotFound once the
	// cursor is exhausted. The returned slice must not be modified.
	Value() ([]byte, error)

	Close() error
}
