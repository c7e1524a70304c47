package restore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/callvault/internal/calls"
	"github.com/dmitrijs2005/callvault/internal/logging"
	"github.com/dmitrijs2005/callvault/internal/repositories/calllog"
)

// DefaultBatchSize bounds one batched-dedup flush cycle.
const DefaultBatchSize = 100

// DedupMode selects how incoming records are checked against the store
// before insertion.
type DedupMode int

const (
	// DedupDisabled inserts every record unconditionally.
	DedupDisabled DedupMode = iota

	// DedupPerRecord checks each record against the store with its own
	// existence query before inserting.
	DedupPerRecord

	// DedupBatched buffers records and resolves existence for a whole
	// batch with one bulk query per flush.
	DedupBatched
)

func (m DedupMode) String() string {
	switch m {
	case DedupDisabled:
		return "disabled"
	case DedupPerRecord:
		return "per-record"
	case DedupBatched:
		return "batched"
	default:
		return fmt.Sprintf("DedupMode(%d)", int(m))
	}
}

// ParseDedupMode maps a configuration string onto a DedupMode.
func ParseDedupMode(s string) (DedupMode, error) {
	switch s {
	case "disabled":
		return DedupDisabled, nil
	case "per-record":
		return DedupPerRecord, nil
	case "batched":
		return DedupBatched, nil
	default:
		return 0, fmt.Errorf("unknown dedup mode %q", s)
	}
}

// tally counts the outcomes of completed insert work.
type tally struct {
	inserted int
	skipped  int
	failed   int
}

func (t *tally) merge(o tally) {
	t.inserted += o.inserted
	t.skipped += o.skipped
	t.failed += o.failed
}

func (t tally) work() bool {
	return t.inserted+t.skipped+t.failed > 0
}

// deduper absorbs decoded records and inserts the ones not already
// present. add may defer work; the returned tally covers only work
// completed by that call. flush completes anything deferred.
type deduper interface {
	add(ctx context.Context, c *calls.Call) tally
	flush(ctx context.Context) tally
}

func newDeduper(mode DedupMode, batchSize int, store calllog.Store, log logging.Logger) deduper {
	switch mode {
	case DedupPerRecord:
		return &perRecordDeduper{store: store, log: log}
	case DedupBatched:
		return &batchedDeduper{store: store, log: log, size: batchSize}
	default:
		return &directInserter{store: store, log: log}
	}
}

// directInserter is the dedup-disabled path: every record goes straight
// into the store.
type directInserter struct {
	store calllog.Store
	log   logging.Logger
}

func (d *directInserter) add(ctx context.Context, c *calls.Call) tally {
	if err := d.store.Insert(ctx, c); err != nil {
		d.log.Warn(ctx, "failed to insert restored call", "date", c.Date, "error", err)
		return tally{failed: 1}
	}
	return tally{inserted: 1}
}

func (d *directInserter) flush(_ context.Context) tally {
	return tally{}
}

// perRecordDeduper queries the store for every record before inserting.
type perRecordDeduper struct {
	store calllog.Store
	log   logging.Logger
}

func (d *perRecordDeduper) add(ctx context.Context, c *calls.Call) tally {
	k := c.DedupKey()
	n, err := d.store.CountMatching(ctx, k.Date, k.Number)
	if err != nil {
		// An unanswered existence check does not condemn the record;
		// inserting a potential duplicate beats dropping real data.
		d.log.Warn(ctx, "duplicate check failed, inserting anyway", "date", k.Date, "error", err)
	} else if n > 0 {
		d.log.Debug(ctx, "skipping duplicate call", "date", k.Date)
		return tally{skipped: 1}
	}

	if err := d.store.Insert(ctx, c); err != nil {
		d.log.Warn(ctx, "failed to insert restored call", "date", k.Date, "error", err)
		return tally{failed: 1}
	}
	return tally{inserted: 1}
}

func (d *perRecordDeduper) flush(_ context.Context) tally {
	return tally{}
}

// batchedDeduper buffers up to size records and resolves a whole batch
// per flush: one bulk existence query, then one bulk insert of the novel
// remainder. Within a flush the first occurrence of a (date, number) key
// wins; later ones are skipped.
type batchedDeduper struct {
	store calllog.Store
	log   logging.Logger
	size  int
	buf   []*calls.Call
}

func (d *batchedDeduper) add(ctx context.Context, c *calls.Call) tally {
	d.buf = append(d.buf, c)
	if len(d.buf) >= d.size {
		return d.flush(ctx)
	}
	return tally{}
}

func (d *batchedDeduper) flush(ctx context.Context) tally {
	if len(d.buf) == 0 {
		return tally{}
	}
	batch := d.buf
	d.buf = nil

	keys := make([]calls.Key, 0, len(batch))
	for _, c := range batch {
		keys = append(keys, c.DedupKey())
	}

	seen, err := d.store.QueryExistingKeys(ctx, keys)
	if err != nil {
		d.log.Warn(ctx, "bulk duplicate check failed, inserting whole batch", "size", len(batch), "error", err)
		seen = make(map[calls.Key]struct{}, len(batch))
	}

	var t tally
	novel := make([]*calls.Call, 0, len(batch))
	for _, c := range batch {
		k := c.DedupKey()
		if _, dup := seen[k]; dup {
			t.skipped++
			continue
		}
		seen[k] = struct{}{}
		novel = append(novel, c)
	}

	if len(novel) == 0 {
		return t
	}

	results, err := d.store.BulkInsert(ctx, novel)
	if err != nil {
		d.log.Warn(ctx, "bulk insert failed", "size", len(novel), "error", err)
		t.failed += len(novel)
		return t
	}
	for i, res := range results {
		if res != nil {
			d.log.Warn(ctx, "failed to insert restored call", "date", novel[i].Date, "error", res)
			t.failed++
			continue
		}
		t.inserted++
	}
	return t
}
