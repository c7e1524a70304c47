package backup

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/callvault/internal/calls"
	"github.com/dmitrijs2005/callvault/internal/codec"
	"github.com/dmitrijs2005/callvault/internal/eventlog"
	"github.com/dmitrijs2005/callvault/internal/logging"
	"github.com/dmitrijs2005/callvault/internal/transport"
)

// Diff returns the records whose ids are not yet in prior, preserving the
// input order.
func Diff(records []calls.Call, prior *State) []calls.Call {
	var out []calls.Call
	for _, c := range records {
		if !prior.Contains(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// Runner drives one backup pass.
type Runner struct {
	events eventlog.Logger
	log    logging.Logger
}

func NewRunner(events eventlog.Logger, log logging.Logger) *Runner {
	return &Runner{events: events, log: log}
}

// Run transmits every record not yet covered by state and folds the
// transmitted ids into it. Each record fails or succeeds on its own: a
// rejected entity write is counted, excluded from the new state so the next
// pass retries it, and the pass moves on. A nil transport fails the whole
// delta without attempting any writes. Outcome counts are reported once per
// pass; a pass with an empty delta reports nothing.
//
// The state version is upgraded to the current codec version regardless of
// what was read, so every state write moves the blob to the newest format.
func (r *Runner) Run(ctx context.Context, state *State, out transport.BackupWriter, records []calls.Call) {
	state.Version = codec.Version

	delta := Diff(records, state)
	if len(delta) == 0 {
		return
	}

	if out == nil {
		r.log.Error(ctx, "backup transport unavailable", "failed", len(delta))
		r.events.LogItemsBackupFailed(eventlog.DataTypeCallLogs, len(delta), eventlog.ReasonTransportUnavailable)
		return
	}

	var backedUp, failed int
	for i := range delta {
		c := &delta[i]
		if err := r.writeCall(out, c); err != nil {
			r.log.Warn(ctx, "failed to back up call", "call_id", c.ID, "error", err)
			failed++
			continue
		}
		state.Add(c.ID)
		backedUp++
	}

	if backedUp > 0 {
		r.events.LogItemsBackedUp(eventlog.DataTypeCallLogs, backedUp)
	}
	if failed > 0 {
		r.events.LogItemsBackupFailed(eventlog.DataTypeCallLogs, failed, eventlog.ReasonEntityWriteFailed)
	}
}

func (r *Runner) writeCall(out transport.BackupWriter, c *calls.Call) error {
	payload, err := codec.MarshalCall(c)
	if err != nil {
		return err
	}
	if err := out.WriteEntityHeader(strconv.Itoa(c.ID), len(payload)); err != nil {
		return err
	}
	if _, err := out.WriteEntityData(payload); err != nil {
		return err
	}
	return nil
}
