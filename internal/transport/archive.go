package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Archive framing, per entity: uint16 key length, key bytes, int32 payload
// size, payload bytes. All integers big-endian.

// ArchiveWriter writes entities into a local archive stream.
type ArchiveWriter struct {
	w       io.Writer
	pending int // payload bytes promised by the last header
}

// NewArchiveWriter returns a writer emitting archive framing to w.
func NewArchiveWriter(w io.Writer) *ArchiveWriter {
	return &ArchiveWriter{w: w}
}

func (a *ArchiveWriter) WriteEntityHeader(key string, size int) error {
	if a.pending > 0 {
		return fmt.Errorf("previous entity is missing %d payload bytes", a.pending)
	}
	if len(key) > math.MaxUint16 {
		return fmt.Errorf("entity key of %d bytes exceeds frame limit", len(key))
	}
	if size < 0 || size > math.MaxInt32 {
		return fmt.Errorf("entity size %d out of range", size)
	}

	var kl [2]byte
	binary.BigEndian.PutUint16(kl[:], uint16(len(key)))
	if _, err := a.w.Write(kl[:]); err != nil {
		return fmt.Errorf("failed to write entity header: %w", err)
	}
	if _, err := io.WriteString(a.w, key); err != nil {
		return fmt.Errorf("failed to write entity key: %w", err)
	}
	var sz [4]byte
	binary.BigEndian.PutUint32(sz[:], uint32(size))
	if _, err := a.w.Write(sz[:]); err != nil {
		return fmt.Errorf("failed to write entity size: %w", err)
	}

	a.pending = size
	return nil
}

func (a *ArchiveWriter) WriteEntityData(data []byte) (int, error) {
	if len(data) > a.pending {
		return 0, fmt.Errorf("payload of %d bytes exceeds announced size %d", len(data), a.pending)
	}
	n, err := a.w.Write(data)
	a.pending -= n
	if err != nil {
		return n, fmt.Errorf("failed to write entity data: %w", err)
	}
	return n, nil
}

// ArchiveReader streams entities back out of an archive.
type ArchiveReader struct {
	r    io.Reader
	key  string
	size int
	// payload bytes of the current entity not yet consumed
	remaining int
}

// NewArchiveReader returns a reader over archive framing from r.
func NewArchiveReader(r io.Reader) *ArchiveReader {
	return &ArchiveReader{r: r}
}

func (a *ArchiveReader) ReadNextHeader() (bool, error) {
	// Skip whatever the caller left unread of the previous payload.
	if a.remaining > 0 {
		if _, err := io.CopyN(io.Discard, a.r, int64(a.remaining)); err != nil {
			return false, fmt.Errorf("failed to skip entity payload: %w", err)
		}
		a.remaining = 0
	}

	var kl [2]byte
	if _, err := io.ReadFull(a.r, kl[:]); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("failed to read entity header: %w", err)
	}

	key := make([]byte, binary.BigEndian.Uint16(kl[:]))
	if _, err := io.ReadFull(a.r, key); err != nil {
		return false, fmt.Errorf("failed to read entity key: %w", err)
	}

	var sz [4]byte
	if _, err := io.ReadFull(a.r, sz[:]); err != nil {
		return false, fmt.Errorf("failed to read entity size: %w", err)
	}

	a.key = string(key)
	a.size = int(int32(binary.BigEndian.Uint32(sz[:])))
	if a.size < 0 {
		return false, fmt.Errorf("negative entity size %d", a.size)
	}
	a.remaining = a.size
	return true, nil
}

func (a *ArchiveReader) Key() string { return a.key }

func (a *ArchiveReader) DataSize() int { return a.size }

func (a *ArchiveReader) ReadEntityData(buf []byte, offset, n int) (int, error) {
	if n > a.remaining {
		n = a.remaining
	}
	if n == 0 {
		return 0, nil
	}
	read, err := io.ReadFull(a.r, buf[offset:offset+n])
	a.remaining -= read
	if err != nil {
		return read, fmt.Errorf("failed to read entity data: %w", err)
	}
	return read, nil
}
