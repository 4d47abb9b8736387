// Package account holds the core value types of the account lifecycle
// engine's data model (spec section 3): Account and DelegationRecord.
// Cloning duplicates these by value, matching the spec's "semantically a
// value" note.
package account

import (
	"encoding/binary"
	"fmt"

	"evrollup/common"
)

// Account is the base-chain account tuple. It is intentionally a plain
// value type (not a pointer-heavy struct) so that cloning it is always a
// deep copy of Data.
type Account struct {
	Lamports   uint64
	Owner      common.Pubkey
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// Clone returns a deep copy of the account, duplicating Data so that
// mutating the clone (owner override, slot rewrite) never aliases the
// source snapshot.
func (a Account) Clone() Account {
	out := a
	if a.Data != nil {
		out.Data = make([]byte, len(a.Data))
		copy(out.Data, a.Data)
	}
	return out
}

// DelegationRecord asserts that Authority has granted exclusive write on an
// account to this validator, with commits required at least every
// CommitFrequency milliseconds.
type DelegationRecord struct {
	Authority       common.Pubkey
	Owner           common.Pubkey
	DelegationSlot  common.Slot
	Lamports        uint64
	CommitFrequency uint64 // milliseconds
}

// CommitDue reports whether at least CommitFrequency milliseconds have
// elapsed since lastCommitUnixMilli, used by the commit-delegated ticker
// (spec section 4.5).
func (d DelegationRecord) CommitDue(nowUnixMilli, lastCommitUnixMilli int64) bool {
	if d.CommitFrequency == 0 {
		return false
	}
	return nowUnixMilli-lastCommitUnixMilli >= int64(d.CommitFrequency)
}

// delegationRecordSize is the fixed on-chain encoding length of a
// DelegationRecord: two pubkeys, a slot, lamports, and a frequency, all
// fixed-width fields.
const delegationRecordSize = 32 + 32 + 8 + 8 + 8

// EncodeDelegationRecord serializes d into its fixed-width on-chain layout.
// A plain fixed-offset binary.Write-style encoding is used rather than JSON
// because this is on-chain account data with a byte-exact layout that must
// round-trip identically regardless of Go map iteration order or float
// formatting; see the stdlib-only justification in DESIGN.md.
func EncodeDelegationRecord(d DelegationRecord) []byte {
	buf := make([]byte, delegationRecordSize)
	copy(buf[0:32], d.Authority.Bytes())
	copy(buf[32:64], d.Owner.Bytes())
	binary.LittleEndian.PutUint64(buf[64:72], uint64(d.DelegationSlot))
	binary.LittleEndian.PutUint64(buf[72:80], d.Lamports)
	binary.LittleEndian.PutUint64(buf[80:88], d.CommitFrequency)
	return buf
}

// DecodeDelegationRecord parses the fixed-width layout written by
// EncodeDelegationRecord, returning an error if data is short or malformed
// (surfaced by the fetcher as a "delegation inconsistency").
func DecodeDelegationRecord(data []byte) (DelegationRecord, error) {
	if len(data) < delegationRecordSize {
		return DelegationRecord{}, fmt.Errorf("delegation record too short: got %d bytes, want %d", len(data), delegationRecordSize)
	}
	return DelegationRecord{
		Authority:       common.BytesToPubkey(data[0:32]),
		Owner:           common.BytesToPubkey(data[32:64]),
		DelegationSlot:  common.Slot(binary.LittleEndian.Uint64(data[64:72])),
		Lamports:        binary.LittleEndian.Uint64(data[72:80]),
		CommitFrequency: binary.LittleEndian.Uint64(data[80:88]),
	}, nil
}
