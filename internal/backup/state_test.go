package backup

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/dmitrijs2005/callvault/internal/codec"
	"github.com/dmitrijs2005/callvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateBlob(values ...int32) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		_ = binary.Write(&buf, binary.BigEndian, v)
	}
	return buf.Bytes()
}

func TestReadState_NoPreviousState(t *testing.T) {
	s, err := ReadState(bytes.NewReader(nil))
	require.NoError(t, err)

	assert.Equal(t, VersionNoPreviousState, s.Version)
	assert.Equal(t, 0, s.Len())
}

func TestReadState_OneCall(t *testing.T) {
	s, err := ReadState(bytes.NewReader(stateBlob(1, 1, 101)))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Version)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains(101))
}

func TestReadState_MultipleCalls(t *testing.T) {
	s, err := ReadState(bytes.NewReader(stateBlob(1, 2, 101, 102)))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Version)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(101))
	assert.True(t, s.Contains(102))
}

func TestReadState_TruncatedAfterVersion(t *testing.T) {
	_, err := ReadState(bytes.NewReader(stateBlob(1)))
	require.ErrorIs(t, err, common.ErrStateCorrupt)
}

func TestReadState_TruncatedIDList(t *testing.T) {
	_, err := ReadState(bytes.NewReader(stateBlob(1, 3, 101)))
	require.ErrorIs(t, err, common.ErrStateCorrupt)
}

func TestReadState_PartialVersionRead(t *testing.T) {
	_, err := ReadState(bytes.NewReader([]byte{0x00, 0x01}))
	require.ErrorIs(t, err, common.ErrStateCorrupt)
}

func TestReadState_NegativeCount(t *testing.T) {
	_, err := ReadState(bytes.NewReader(stateBlob(1, -1)))
	require.ErrorIs(t, err, common.ErrStateCorrupt)
}

func TestReadState_FutureVersion(t *testing.T) {
	_, err := ReadState(bytes.NewReader(stateBlob(codec.Version+1, 0)))
	require.ErrorIs(t, err, common.ErrFutureFormat)
}

func TestWriteState_NoCalls(t *testing.T) {
	s := NewState()
	s.Version = codec.Version

	var buf bytes.Buffer
	require.NoError(t, WriteState(&buf, s))

	assert.Equal(t, stateBlob(codec.Version, 0), buf.Bytes())
}

func TestWriteState_OneCall(t *testing.T) {
	s := NewState()
	s.Version = codec.Version
	s.Add(101)

	var buf bytes.Buffer
	require.NoError(t, WriteState(&buf, s))

	assert.Equal(t, stateBlob(codec.Version, 1, 101), buf.Bytes())
}

func TestWriteState_MultipleCalls_AscendingOrder(t *testing.T) {
	s := NewState()
	s.Version = codec.Version
	// Insert out of order; the blob must still be ascending.
	s.Add(103)
	s.Add(101)
	s.Add(102)

	var buf bytes.Buffer
	require.NoError(t, WriteState(&buf, s))

	assert.Equal(t, stateBlob(codec.Version, 3, 101, 102, 103), buf.Bytes())
}

func TestState_RoundTrip(t *testing.T) {
	s := NewState()
	s.Version = codec.Version
	for _, id := range []int{5, 3, 99, 1000} {
		s.Add(id)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteState(&buf, s))

	got, err := ReadState(&buf)
	require.NoError(t, err)
	assert.Equal(t, codec.Version, got.Version)
	assert.Equal(t, []int{3, 5, 99, 1000}, got.IDs())
}

func TestState_RoundTripEmpty(t *testing.T) {
	s := NewState()
	s.Version = 3

	var buf bytes.Buffer
	require.NoError(t, WriteState(&buf, s))

	got, err := ReadState(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, 0, got.Len())
}
