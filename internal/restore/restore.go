// Package restore turns a stream of backup entities back into stored call
// records. The pipeline decodes each entity, applies phone-account
// migration, and hands the record to a dedup stage chosen by
// configuration; restores are idempotent in the dedup-enabled modes.
package restore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/callvault/internal/calls"
	"github.com/dmitrijs2005/callvault/internal/codec"
	"github.com/dmitrijs2005/callvault/internal/common"
	"github.com/dmitrijs2005/callvault/internal/eventlog"
	"github.com/dmitrijs2005/callvault/internal/logging"
	"github.com/dmitrijs2005/callvault/internal/repositories/calllog"
	"github.com/dmitrijs2005/callvault/internal/telephony"
	"github.com/dmitrijs2005/callvault/internal/transport"
)

// Pipeline drives one restore invocation.
type Pipeline struct {
	store     calllog.Store
	mapper    telephony.SubscriptionMapper
	events    eventlog.Logger
	log       logging.Logger
	mode      DedupMode
	batchSize int
}

// NewPipeline builds a restore pipeline. A non-positive batchSize falls
// back to DefaultBatchSize; it only matters in DedupBatched mode.
func NewPipeline(store calllog.Store, mapper telephony.SubscriptionMapper,
	events eventlog.Logger, log logging.Logger, mode DedupMode, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		store:     store,
		mapper:    mapper,
		events:    events,
		log:       log,
		mode:      mode,
		batchSize: batchSize,
	}
}

// Restore reads entities from in until the stream ends and inserts the
// decoded records, deduplicating per the configured mode.
//
// declaredSourceVersion is the format version the backup set claims; each
// record still carries its own embedded version, which is what decoding
// trusts. A record version newer than the codec understands aborts the
// whole invocation: nothing further is read and every entity seen in this
// invocation is reported failed, because format boundaries in the rest of
// the stream can no longer be trusted. priorState is accepted for symmetry
// with backup and is not consulted; dedup decisions are store-driven.
//
// Outcome counts reach the event logger at flush boundaries: per flush in
// batched mode, once at the end otherwise. Duplicate skips are not
// failures and are not reported.
func (p *Pipeline) Restore(ctx context.Context, in transport.BackupReader,
	declaredSourceVersion int, priorState io.Reader) error {
	_ = priorState

	p.log.Debug(ctx, "restore started",
		"declared_version", declaredSourceVersion, "dedup_mode", p.mode.String())

	d := newDeduper(p.mode, p.batchSize, p.store, p.log)

	var (
		pending      tally // resolved but not yet reported
		seen         int   // entities read off the stream this invocation
		decodeFailed int
	)

	for {
		more, err := in.ReadNextHeader()
		if err != nil {
			pending.merge(d.flush(ctx))
			p.report(pending)
			return fmt.Errorf("failed to read entity header: %w", err)
		}
		if !more {
			break
		}
		seen++

		c, err := p.readRecord(in)
		if err != nil {
			if errors.Is(err, common.ErrFutureFormat) {
				p.log.Error(ctx, "aborting restore on future record format",
					"key", in.Key(), "error", err)
				p.events.LogItemsRestoreFailed(eventlog.DataTypeCallLogs, seen,
					eventlog.ReasonFutureFormatVersion)
				return err
			}
			p.log.Warn(ctx, "skipping undecodable entity", "key", in.Key(), "error", err)
			decodeFailed++
			continue
		}

		if telephony.MigratePhoneAccount(c, p.mapper) {
			p.log.Debug(ctx, "migrated phone account", "key", in.Key())
		}

		t := d.add(ctx, c)
		if p.mode == DedupBatched && t.work() {
			p.report(t)
		} else {
			pending.merge(t)
		}
	}

	t := d.flush(ctx)
	if p.mode == DedupBatched {
		p.report(t)
	} else {
		pending.merge(t)
	}
	if decodeFailed > 0 {
		p.events.LogItemsRestoreFailed(eventlog.DataTypeCallLogs, decodeFailed,
			eventlog.ReasonRecordDecodeFailed)
	}
	p.report(pending)

	p.log.Debug(ctx, "restore finished", "entities", seen)
	return nil
}

// readRecord pulls the current entity's payload off the stream and decodes
// it.
func (p *Pipeline) readRecord(in transport.BackupReader) (*calls.Call, error) {
	size := in.DataSize()
	buf := make([]byte, size)
	for off := 0; off < size; {
		n, err := in.ReadEntityData(buf, off, size-off)
		if err != nil {
			return nil, fmt.Errorf("failed to read entity payload: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("short entity payload: %w", common.ErrMalformedRecord)
		}
		off += n
	}

	c, err := codec.UnmarshalCall(buf)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// report emits the aggregated outcome counts for one flush boundary.
// Nothing is emitted for empty classes, and skips are never reported.
func (p *Pipeline) report(t tally) {
	if t.inserted > 0 {
		p.events.LogItemsRestored(eventlog.DataTypeCallLogs, t.inserted)
	}
	if t.failed > 0 {
		p.events.LogItemsRestoreFailed(eventlog.DataTypeCallLogs, t.failed,
			eventlog.ReasonStoreInsertFailed)
	}
}
