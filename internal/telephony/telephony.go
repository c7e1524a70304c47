// Package telephony carries the phone-account migration rules: legacy
// subscription-based account ids are rewritten to stable identifiers when a
// mapping is known for the owning telephony component.
package telephony

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/callvault/internal/calls"
)

// ComponentName identifies the telephony subsystem component whose account
// ids are subscription ids and therefore candidates for migration.
const ComponentName = "com.android.phone/com.android.services.telephony.TelephonyConnectionService"

// SubscriptionMapper resolves a subscription id to a stable account id.
type SubscriptionMapper interface {
	// Lookup returns the stable account id for subscriptionID, or false
	// when no mapping is known.
	Lookup(subscriptionID int) (string, bool)
}

// StaticMapper is a fixed in-memory subscription map.
type StaticMapper map[int]string

func (m StaticMapper) Lookup(subscriptionID int) (string, bool) {
	id, ok := m[subscriptionID]
	return id, ok
}

// LoadMapperFile reads a JSON object of subscription id -> stable account id
// pairs, e.g. {"666": "891004234814455936F"}.
func LoadMapperFile(path string) (StaticMapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription map: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse subscription map: %w", err)
	}

	m := make(StaticMapper, len(raw))
	for k, v := range raw {
		subID, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("subscription map key %q is not an integer: %w", k, err)
		}
		m[subID] = v
	}
	return m, nil
}

// MigratePhoneAccount rewrites c's account id to the mapped stable
// identifier and marks the record migration-pending. The rewrite happens
// only when the record belongs to the telephony component, its account id
// parses as a subscription id, and the mapper knows that id; otherwise the
// record is left untouched. Returns whether a rewrite happened.
//
// A nil mapper disables migration.
func MigratePhoneAccount(c *calls.Call, m SubscriptionMapper) bool {
	if m == nil || c.AccountComponentName == nil || c.AccountID == nil {
		return false
	}
	if *c.AccountComponentName != ComponentName {
		return false
	}

	subID, err := strconv.Atoi(*c.AccountID)
	if err != nil {
		return false
	}

	stable, ok := m.Lookup(subID)
	if !ok {
		return false
	}

	c.AccountID = &stable
	c.IsPhoneAccountMigrationPending = 1
	return true
}
