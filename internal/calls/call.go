// Package calls defines the call-history record exchanged between the
// device store, the backup codec and the restore pipeline.
package calls

// Call type values, mirroring the call-log provider enums.
const (
	TypeIncoming           = 1
	TypeOutgoing           = 2
	TypeMissed             = 3
	TypeVoicemail          = 4
	TypeRejected           = 5
	TypeBlocked            = 6
	TypeAnsweredExternally = 7
)

// Number presentation values.
const (
	PresentationAllowed    = 1
	PresentationRestricted = 2
	PresentationUnknown    = 3
	PresentationPayphone   = 4
)

// BlockReasonNotBlocked marks a call that was not blocked.
const BlockReasonNotBlocked = 0

// Call is one call-history entry. The ID is assigned by the persistent
// store and is stable for the life of the record on that device; it is the
// unit of backup-state tracking but is not preserved across devices — a
// restored record receives a fresh store-assigned ID.
//
// Pointer fields are nullable and map onto the codec's presence flags and
// the store's NULL columns.
type Call struct {
	ID                         int
	Date                       int64 // epoch millis
	Duration                   int64 // seconds
	Number                     *string
	PostDialDigits             *string
	ViaNumber                  *string
	Type                       int
	NumberPresentation         int
	AccountComponentName       *string
	AccountID                  *string
	AccountAddress             *string
	DataUsage                  *int64 // bytes
	Features                   int
	AddForAllUsers             int
	BlockReason                int
	CallScreeningAppName       *string
	CallScreeningComponentName *string
	MissedReason               *string

	// Derived when records are read or restored, never read back from
	// the store.
	IsPhoneAccountMigrationPending int
}

// Key identifies a call for restore deduplication. Identity is
// (date, number), not the store ID: IDs are device-local and are not
// preserved by backup/restore.
type Key struct {
	Date   int64
	Number string
}

// DedupKey returns the record's deduplication key. A missing number keys
// on the empty string.
func (c *Call) DedupKey() Key {
	k := Key{Date: c.Date}
	if c.Number != nil {
		k.Number = *c.Number
	}
	return k
}

// String returns a pointer to s. Convenience for building records with
// nullable fields.
func String(s string) *string { return &s }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
