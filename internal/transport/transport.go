// Package transport defines the entity channel the backup agent talks to:
// a writer that accepts key+payload entities during backup and a reader
// that yields them back one at a time during restore. One concrete
// implementation is provided, a length-framed local archive file; the
// remote channel behind it is out of scope for this module.
package transport

// BackupWriter receives one entity per backed-up record: a header naming
// the entity key and payload size, followed by the payload bytes.
type BackupWriter interface {
	// WriteEntityHeader announces the next entity.
	WriteEntityHeader(key string, size int) error

	// WriteEntityData writes payload bytes for the announced entity and
	// returns how many were written.
	WriteEntityData(data []byte) (int, error)
}

// BackupReader iterates entities during restore.
type BackupReader interface {
	// ReadNextHeader advances to the next entity. It returns false when
	// the stream is exhausted.
	ReadNextHeader() (bool, error)

	// Key returns the current entity's key.
	Key() string

	// DataSize returns the current entity's payload size in bytes.
	DataSize() int

	// ReadEntityData reads up to n payload bytes into buf starting at
	// offset and returns the number of bytes read.
	ReadEntityData(buf []byte, offset, n int) (int, error)
}
