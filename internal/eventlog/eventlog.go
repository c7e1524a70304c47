// Package eventlog reports aggregated backup/restore outcomes. Counts are
// delivered at natural batch boundaries — once per backup pass, and per
// flush during restore — never per record.
package eventlog

import (
	"context"

	"github.com/dmitrijs2005/callvault/internal/logging"
)

// DataTypeCallLogs tags call-history records in outcome reports.
const DataTypeCallLogs = "call_logs"

// Failure reasons attached to outcome reports.
const (
	ReasonTransportUnavailable = "transport_unavailable"
	ReasonEntityWriteFailed    = "entity_write_failed"
	ReasonRecordEncodeFailed   = "record_encode_failed"
	ReasonRecordDecodeFailed   = "record_decode_failed"
	ReasonFutureFormatVersion  = "future_format_version"
	ReasonStoreInsertFailed    = "store_insert_failed"
	ReasonTransportReadFailed  = "transport_read_failed"
)

// Logger receives aggregated per-pass outcome counts.
type Logger interface {
	LogItemsBackedUp(dataType string, count int)
	LogItemsBackupFailed(dataType string, count int, reason string)
	LogItemsRestored(dataType string, count int)
	LogItemsRestoreFailed(dataType string, count int, reason string)
}

// SlogEventLogger reports outcomes as structured log lines.
type SlogEventLogger struct {
	log logging.Logger
}

func NewSlogEventLogger(log logging.Logger) *SlogEventLogger {
	return &SlogEventLogger{log: log}
}

func (s *SlogEventLogger) LogItemsBackedUp(dataType string, count int) {
	s.log.Info(context.Background(), "items backed up", "data_type", dataType, "count", count)
}

func (s *SlogEventLogger) LogItemsBackupFailed(dataType string, count int, reason string) {
	s.log.Error(context.Background(), "items backup failed", "data_type", dataType, "count", count, "reason", reason)
}

func (s *SlogEventLogger) LogItemsRestored(dataType string, count int) {
	s.log.Info(context.Background(), "items restored", "data_type", dataType, "count", count)
}

func (s *SlogEventLogger) LogItemsRestoreFailed(dataType string, count int, reason string) {
	s.log.Error(context.Background(), "items restore failed", "data_type", dataType, "count", count, "reason", reason)
}
