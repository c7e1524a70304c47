package restore

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/callvault/internal/calls"
	"github.com/dmitrijs2005/callvault/internal/codec"
	"github.com/dmitrijs2005/callvault/internal/common"
	"github.com/dmitrijs2005/callvault/internal/logging"
	"github.com/dmitrijs2005/callvault/internal/repositories/calllog"
	"github.com/dmitrijs2005/callvault/internal/telephony"
	"github.com/dmitrijs2005/callvault/internal/transport"
)

type countingEventLogger struct {
	restored      int
	restoreFailed int
	calls         int
	lastReason    string
}

func (c *countingEventLogger) LogItemsBackedUp(string, int) { c.calls++ }

func (c *countingEventLogger) LogItemsBackupFailed(string, int, string) { c.calls++ }

func (c *countingEventLogger) LogItemsRestored(_ string, count int) {
	c.calls++
	c.restored += count
}

func (c *countingEventLogger) LogItemsRestoreFailed(_ string, count int, reason string) {
	c.calls++
	c.restoreFailed += count
	c.lastReason = reason
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testStore(t *testing.T) *calllog.SQLiteStore {
	t.Helper()
	s, err := calllog.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeCall(id int, date int64, number string) calls.Call {
	return calls.Call{
		ID:       id,
		Date:     date,
		Duration: 30,
		Number:   calls.String(number),
		Type:     calls.TypeIncoming,
	}
}

// archiveOf serializes records into an entity archive the way a backup
// pass would.
func archiveOf(t *testing.T, records ...calls.Call) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := transport.NewArchiveWriter(&buf)
	for i := range records {
		payload, err := codec.MarshalCall(&records[i])
		require.NoError(t, err)
		require.NoError(t, w.WriteEntityHeader(strconv.Itoa(records[i].ID), len(payload)))
		_, err = w.WriteEntityData(payload)
		require.NoError(t, err)
	}
	return &buf
}

func newTestPipeline(store calllog.Store, ev *countingEventLogger, mode DedupMode, batchSize int) *Pipeline {
	mapper := telephony.StaticMapper{}
	return NewPipeline(store, mapper, ev, testLogger(), mode, batchSize)
}

func runRestore(t *testing.T, p *Pipeline, stream *bytes.Buffer) error {
	t.Helper()
	return p.Restore(context.Background(), transport.NewArchiveReader(bytes.NewReader(stream.Bytes())), codec.Version, nil)
}

func TestRestore_PerRecord_RepeatedInvocationIsIdempotent(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupPerRecord, 0)

	stream := archiveOf(t, makeCall(101, 1234567890, "555-4321"))

	require.NoError(t, runRestore(t, p, stream))
	require.NoError(t, runRestore(t, p, stream))

	n, err := store.CountMatching(context.Background(), 1234567890, "555-4321")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, ev.restored)
	assert.Equal(t, 0, ev.restoreFailed)
}

func TestRestore_Batched_RepeatedInvocationIsIdempotent(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupBatched, 10)

	// More records than one batch holds, so the stream spans a mid-stream
	// flush plus a final partial flush.
	records := make([]calls.Call, 0, 12)
	for i := 0; i < 12; i++ {
		records = append(records, makeCall(100+i, int64(1000+i), "555-"+strconv.Itoa(i)))
	}
	stream := archiveOf(t, records...)

	require.NoError(t, runRestore(t, p, stream))
	require.NoError(t, runRestore(t, p, stream))

	got, err := store.QueryAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.Equal(t, 12, ev.restored)
	assert.Equal(t, 0, ev.restoreFailed)
}

func TestRestore_Disabled_RepeatedInvocationDuplicates(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupDisabled, 0)

	records := make([]calls.Call, 0, 12)
	for i := 0; i < 12; i++ {
		records = append(records, makeCall(100+i, int64(1000+i), "555-"+strconv.Itoa(i)))
	}
	stream := archiveOf(t, records...)

	require.NoError(t, runRestore(t, p, stream))
	require.NoError(t, runRestore(t, p, stream))

	got, err := store.QueryAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 24)
	assert.Equal(t, 24, ev.restored)
}

func TestRestore_Batched_DuplicateWithinStreamCollapses(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupBatched, 10)

	// Same (date, number) twice in one flush: only the first lands.
	stream := archiveOf(t,
		makeCall(101, 5000, "555-7777"),
		makeCall(102, 5000, "555-7777"),
	)
	require.NoError(t, runRestore(t, p, stream))

	n, err := store.CountMatching(context.Background(), 5000, "555-7777")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, ev.restored)
	assert.Equal(t, 0, ev.restoreFailed)
}

func TestRestore_Batched_LogsOncePerFlush(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupBatched, 10)

	records := make([]calls.Call, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, makeCall(100+i, int64(1000+i), "555-0001"))
	}
	require.NoError(t, runRestore(t, p, archiveOf(t, records...)))

	// Distinct dates make all 25 novel: two full flushes plus the final
	// partial one, each reported separately.
	assert.Equal(t, 25, ev.restored)
	assert.Equal(t, 3, ev.calls)
}

func TestRestore_FutureRecordVersionAbortsInvocation(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupPerRecord, 0)

	// Two good records followed by a payload claiming a far-future
	// format version.
	var buf bytes.Buffer
	w := transport.NewArchiveWriter(&buf)
	for i, c := range []calls.Call{makeCall(101, 1000, "555-0001"), makeCall(102, 2000, "555-0002")} {
		payload, err := codec.MarshalCall(&c)
		require.NoError(t, err)
		require.NoError(t, w.WriteEntityHeader(strconv.Itoa(101+i), len(payload)))
		_, err = w.WriteEntityData(payload)
		require.NoError(t, err)
	}
	future := make([]byte, 4)
	binary.BigEndian.PutUint32(future, 10000)
	require.NoError(t, w.WriteEntityHeader("103", len(future)))
	_, err := w.WriteEntityData(future)
	require.NoError(t, err)

	err = runRestore(t, p, &buf)
	require.ErrorIs(t, err, common.ErrFutureFormat)

	// No successes are reported and every entity seen counts as failed,
	// even the ones inserted before the abort.
	assert.Equal(t, 0, ev.restored)
	assert.Equal(t, 3, ev.restoreFailed)
	assert.Equal(t, "future_format_version", ev.lastReason)
}

func TestRestore_UndecodableEntitySkippedAndCounted(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupPerRecord, 0)

	var buf bytes.Buffer
	w := transport.NewArchiveWriter(&buf)
	garbage := []byte{0x00, 0x00}
	require.NoError(t, w.WriteEntityHeader("101", len(garbage)))
	_, err := w.WriteEntityData(garbage)
	require.NoError(t, err)

	good := makeCall(102, 3000, "555-0002")
	payload, err := codec.MarshalCall(&good)
	require.NoError(t, err)
	require.NoError(t, w.WriteEntityHeader("102", len(payload)))
	_, err = w.WriteEntityData(payload)
	require.NoError(t, err)

	require.NoError(t, runRestore(t, p, &buf))

	assert.Equal(t, 1, ev.restored)
	assert.Equal(t, 1, ev.restoreFailed)
	assert.Equal(t, "record_decode_failed", ev.lastReason)
}

func TestRestore_EmptyStreamLogsNothing(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	p := newTestPipeline(store, ev, DedupBatched, 10)

	require.NoError(t, runRestore(t, p, &bytes.Buffer{}))
	assert.Equal(t, 0, ev.calls)
}

func TestRestore_AppliesPhoneAccountMigration(t *testing.T) {
	store := testStore(t)
	ev := &countingEventLogger{}
	mapper := telephony.StaticMapper{666: "891004234814455936F"}
	p := NewPipeline(store, mapper, ev, testLogger(), DedupPerRecord, 0)

	c := makeCall(101, 4000, "555-0004")
	c.AccountComponentName = calls.String(telephony.ComponentName)
	c.AccountID = calls.String("666")
	require.NoError(t, runRestore(t, p, archiveOf(t, c)))

	got, err := store.QueryAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "891004234814455936F", *got[0].AccountID)
}

func TestParseDedupMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DedupMode
		wantErr bool
	}{
		{in: "disabled", want: DedupDisabled},
		{in: "per-record", want: DedupPerRecord},
		{in: "batched", want: DedupBatched},
		{in: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDedupMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}
