package model

// DBKey is a full database key: a bucket path followed by a suffix
type DBKey interface {
	Bytes() []byte
	Bucket() DBBucket
	Suffix() []byte
}

// DBBucket is a key prefix that groups related entries
type DBBucket interface {
	Bucket(bucketBytes []byte) DBBucket
	Key(suffix []byte) DBKey
	Path() []byte
}

// DBCursor walks the entries of a single bucket in ascending key order
type DBCursor interface {
	// Next advances the cursor and returns false once no entries are left.
	// The first call moves to the first entry.
	Next() bool

	// Key and Value return ErrNotFound once the cursor is exhausted. The
	// returned slices must not be modified.
	Key() (DBKey, error)
	Value() ([]byte, error)

	Close() error
}

// DBReader is read access to the database
type DBReader interface {
	// Get returns ErrNotFound for a missing key
	Get(key DBKey) ([]byte, error)
	Has(key DBKey) (bool, error)
	Cursor(bucket DBBucket) (DBCursor, error)
}

// DBWriter is read and write access to the database
type DBWriter interface {
	DBReader

	Put(key DBKey, value []byte) error

	// Delete of a missing key is not an error
	Delete(key DBKey) error
}

// DBTransaction groups writes so they are applied all at once on Commit.
// Reads within a transaction see the database as it was when it began.
type DBTransaction interface {
	DBWriter

	Rollback() error
	Commit() error

	// RollbackUnlessClosed is meant to be deferred right after Begin
	RollbackUnlessClosed() error
}

// DBManager is the database as seen by the domain
type DBManager interface {
	DBWriter

	Begin() (DBTransaction, error)
	Close() error
}
