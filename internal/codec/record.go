// Package codec serializes call records into the versioned backup payload.
//
// The format is append-only: every version keeps the exact field list and
// order of its predecessor and adds new fields at the end. A decoder reads
// precisely the fields defined for the payload's embedded version and stops,
// so payloads written by any older release keep decoding forever. Payloads
// from a newer release are rejected outright — the layout past our own
// version is unknowable.
package codec

import (
	"fmt"

	"github.com/dmitrijs2005/callvault/internal/calls"
	"github.com/dmitrijs2005/callvault/internal/common"
)

// Version is the current record format version, written by MarshalCall.
//
// Ladder:
//
//	1: date, duration, number, type, numberPresentation,
//	   accountComponentName, accountId, accountAddress, dataUsage, features
//	2: + addForAllUsers
//	3: + postDialDigits
//	4: + viaNumber
//	5: + blockReason, callScreeningAppName, callScreeningComponentName
//	6: + missedReason
//	7: + isPhoneAccountMigrationPending
const Version = 7

// MarshalCall encodes c at the current format version.
func MarshalCall(c *calls.Call) ([]byte, error) {
	w := &entityWriter{}

	w.writeInt32(Version)

	// version 1
	w.writeInt64(c.Date)
	w.writeInt64(c.Duration)
	if err := w.writeString(c.Number); err != nil {
		return nil, fmt.Errorf("number: %w", err)
	}
	w.writeInt32(int32(c.Type))
	w.writeInt32(int32(c.NumberPresentation))
	if err := w.writeString(c.AccountComponentName); err != nil {
		return nil, fmt.Errorf("account component name: %w", err)
	}
	if err := w.writeString(c.AccountID); err != nil {
		return nil, fmt.Errorf("account id: %w", err)
	}
	if err := w.writeString(c.AccountAddress); err != nil {
		return nil, fmt.Errorf("account address: %w", err)
	}
	var dataUsage int64
	if c.DataUsage != nil {
		dataUsage = *c.DataUsage
	}
	w.writeInt64(dataUsage)
	w.writeInt32(int32(c.Features))

	// version 2
	w.writeInt32(int32(c.AddForAllUsers))

	// version 3
	if err := w.writeString(c.PostDialDigits); err != nil {
		return nil, fmt.Errorf("post dial digits: %w", err)
	}

	// version 4
	if err := w.writeString(c.ViaNumber); err != nil {
		return nil, fmt.Errorf("via number: %w", err)
	}

	// version 5
	w.writeInt32(int32(c.BlockReason))
	if err := w.writeString(c.CallScreeningAppName); err != nil {
		return nil, fmt.Errorf("call screening app name: %w", err)
	}
	if err := w.writeString(c.CallScreeningComponentName); err != nil {
		return nil, fmt.Errorf("call screening component name: %w", err)
	}

	// version 6
	if err := w.writeString(c.MissedReason); err != nil {
		return nil, fmt.Errorf("missed reason: %w", err)
	}

	// version 7
	w.writeInt32(int32(c.IsPhoneAccountMigrationPending))

	return w.bytes(), nil
}

// UnmarshalCall decodes a payload written by this or any earlier version.
// It fails with common.ErrFutureFormat when the payload's version is newer
// than Version, and with common.ErrMalformedRecord when a payload of a
// supported version is truncated or corrupt.
func UnmarshalCall(data []byte) (*calls.Call, error) {
	r := newEntityReader(data)

	version, err := r.readInt32()
	if err != nil {
		return nil, fmt.Errorf("record version: %w", common.ErrMalformedRecord)
	}
	if version > Version {
		return nil, fmt.Errorf("record version %d (max %d): %w", version, Version, common.ErrFutureFormat)
	}
	if version < 1 {
		return nil, fmt.Errorf("record version %d: %w", version, common.ErrMalformedRecord)
	}

	c := &calls.Call{}
	if err := readFields(r, int(version), c); err != nil {
		return nil, fmt.Errorf("record version %d: %w: %v", version, common.ErrMalformedRecord, err)
	}
	return c, nil
}

func readFields(r *entityReader, version int, c *calls.Call) error {
	var err error

	// version 1
	if c.Date, err = r.readInt64(); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if c.Duration, err = r.readInt64(); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	if c.Number, err = r.readString(); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	var v32 int32
	if v32, err = r.readInt32(); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	c.Type = int(v32)
	if v32, err = r.readInt32(); err != nil {
		return fmt.Errorf("number presentation: %w", err)
	}
	c.NumberPresentation = int(v32)
	if c.AccountComponentName, err = r.readString(); err != nil {
		return fmt.Errorf("account component name: %w", err)
	}
	if c.AccountID, err = r.readString(); err != nil {
		return fmt.Errorf("account id: %w", err)
	}
	if c.AccountAddress, err = r.readString(); err != nil {
		return fmt.Errorf("account address: %w", err)
	}
	var dataUsage int64
	if dataUsage, err = r.readInt64(); err != nil {
		return fmt.Errorf("data usage: %w", err)
	}
	c.DataUsage = &dataUsage
	if v32, err = r.readInt32(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	c.Features = int(v32)

	if version < 2 {
		return nil
	}
	if v32, err = r.readInt32(); err != nil {
		return fmt.Errorf("add for all users: %w", err)
	}
	c.AddForAllUsers = int(v32)

	if version < 3 {
		return nil
	}
	if c.PostDialDigits, err = r.readString(); err != nil {
		return fmt.Errorf("post dial digits: %w", err)
	}

	if version < 4 {
		return nil
	}
	if c.ViaNumber, err = r.readString(); err != nil {
		return fmt.Errorf("via number: %w", err)
	}

	if version < 5 {
		return nil
	}
	if v32, err = r.readInt32(); err != nil {
		return fmt.Errorf("block reason: %w", err)
	}
	c.BlockReason = int(v32)
	if c.CallScreeningAppName, err = r.readString(); err != nil {
		return fmt.Errorf("call screening app name: %w", err)
	}
	if c.CallScreeningComponentName, err = r.readString(); err != nil {
		return fmt.Errorf("call screening component name: %w", err)
	}

	if version < 6 {
		return nil
	}
	if c.MissedReason, err = r.readString(); err != nil {
		return fmt.Errorf("missed reason: %w", err)
	}

	if version < 7 {
		return nil
	}
	if v32, err = r.readInt32(); err != nil {
		return fmt.Errorf("migration pending: %w", err)
	}
	c.IsPhoneAccountMigrationPending = int(v32)

	return nil
}
