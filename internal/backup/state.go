// Package backup computes and transmits the incremental call-log backup:
// reading/writing the "already backed up" state blob, diffing the current
// log against it, and streaming the delta to the entity transport.
package backup

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/dmitrijs2005/callvault/internal/codec"
	"github.com/dmitrijs2005/callvault/internal/common"
)

// VersionNoPreviousState is the sentinel version of the state returned for
// an empty blob, i.e. before the first backup pass ever ran.
const VersionNoPreviousState = 0

// State tracks which call ids have been backed up. It is owned by the
// backup pass: read once at the start, written once at the end, never
// touched by restore.
type State struct {
	Version int
	callIDs map[int]struct{}
}

// NewState returns an empty state at VersionNoPreviousState.
func NewState() *State {
	return &State{Version: VersionNoPreviousState, callIDs: make(map[int]struct{})}
}

// Contains reports whether id has already been backed up.
func (s *State) Contains(id int) bool {
	_, ok := s.callIDs[id]
	return ok
}

// Add records id as backed up.
func (s *State) Add(id int) {
	s.callIDs[id] = struct{}{}
}

// Len returns the number of tracked ids.
func (s *State) Len() int {
	return len(s.callIDs)
}

// IDs returns the tracked ids in ascending order.
func (s *State) IDs() []int {
	ids := make([]int, 0, len(s.callIDs))
	for id := range s.callIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ReadState decodes the state blob. An immediately exhausted input is the
// expected first-run condition and yields the empty sentinel state with no
// error. A version newer than the codec's is common.ErrFutureFormat; any
// short read past the version is common.ErrStateCorrupt.
func ReadState(r io.Reader) (*State, error) {
	s := NewState()

	version, err := readStateInt(r)
	if err != nil {
		if err == io.EOF {
			// No previous state: first-ever backup.
			return s, nil
		}
		return nil, fmt.Errorf("state version: %w", common.ErrStateCorrupt)
	}
	if version > codec.Version {
		return nil, fmt.Errorf("state version %d (max %d): %w", version, codec.Version, common.ErrFutureFormat)
	}
	s.Version = int(version)

	count, err := readStateInt(r)
	if err != nil {
		return nil, fmt.Errorf("state id count: %w", common.ErrStateCorrupt)
	}
	if count < 0 {
		return nil, fmt.Errorf("state id count %d: %w", count, common.ErrStateCorrupt)
	}

	for i := int32(0); i < count; i++ {
		id, err := readStateInt(r)
		if err != nil {
			return nil, fmt.Errorf("state id %d of %d: %w", i+1, count, common.ErrStateCorrupt)
		}
		s.Add(int(id))
	}

	return s, nil
}

// WriteState encodes the state blob: version, id count, then the ids in
// ascending order. Ascending order is required for deterministic
// round-trips, not cosmetics.
func WriteState(w io.Writer, s *State) error {
	if err := writeStateInt(w, int32(s.Version)); err != nil {
		return fmt.Errorf("failed to write state version: %w", err)
	}
	if err := writeStateInt(w, int32(s.Len())); err != nil {
		return fmt.Errorf("failed to write state id count: %w", err)
	}
	for _, id := range s.IDs() {
		if err := writeStateInt(w, int32(id)); err != nil {
			return fmt.Errorf("failed to write state id %d: %w", id, err)
		}
	}
	return nil
}

func readStateInt(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func writeStateInt(w io.Writer, v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	return err
}
