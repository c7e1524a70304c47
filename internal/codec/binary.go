package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Wire primitives shared by the record and state codecs. Everything is
// big-endian: int32 for counters/enums/version tags, int64 for millisecond
// timestamps, durations and byte counts. Strings carry a one-byte presence
// flag and, when present, a uint16 byte length followed by UTF-8 bytes.

type entityWriter struct {
	buf bytes.Buffer
}

func (w *entityWriter) writeInt32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf.Write(b[:])
}

func (w *entityWriter) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

// writeString writes the presence flag and, for non-nil values, the
// length-prefixed bytes. Strings longer than 64 KiB do not fit the prefix.
func (w *entityWriter) writeString(s *string) error {
	if s == nil {
		w.buf.WriteByte(0)
		return nil
	}
	if len(*s) > math.MaxUint16 {
		return fmt.Errorf("string of %d bytes exceeds wire limit", len(*s))
	}
	w.buf.WriteByte(1)
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(*s)))
	w.buf.Write(b[:])
	w.buf.WriteString(*s)
	return nil
}

func (w *entityWriter) bytes() []byte {
	return w.buf.Bytes()
}

type entityReader struct {
	r *bytes.Reader
}

func newEntityReader(data []byte) *entityReader {
	return &entityReader{r: bytes.NewReader(data)}
}

func (r *entityReader) readInt32() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (r *entityReader) readInt64() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func (r *entityReader) readString() (*string, error) {
	present, err := r.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}

	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(b[:])

	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	s := string(buf)
	return &s, nil
}
