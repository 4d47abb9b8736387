// Package common holds the base identifiers shared by every component of
// the account lifecycle engine: Pubkey, Signature and Slot.
package common

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/mr-tron/base58"
)

const (
	// PubkeyLength is the width of a base-chain public key, matching the
	// base chain's Ed25519 key space.
	PubkeyLength = 32
	// SignatureLength is the width of an Ed25519 signature.
	SignatureLength = 64
)

// ErrInvalidPubkeyLength is returned when decoding a base58 string that does
// not carry exactly PubkeyLength bytes.
var ErrInvalidPubkeyLength = errors.New("common: decoded pubkey has wrong length")

// Slot is monotonically increasing logical time, shared by the local chain
// and the base chain (each has its own slot counter).
type Slot = uint64

// Pubkey is a 32-byte opaque account identifier.
type Pubkey [PubkeyLength]byte

// Signature is a 64-byte Ed25519 transaction signature.
type Signature [SignatureLength]byte

// Hash is a 32-byte content hash, used for blockhashes.
type Hash [PubkeyLength]byte

// SetBytes sets the pubkey to the value of b. If b is longer than the
// pubkey, b is cropped from the left, matching the teacher's Address
// convention for truncation.
func (p *Pubkey) SetBytes(b []byte) {
	if len(b) > len(p) {
		b = b[len(b)-PubkeyLength:]
	}
	copy(p[PubkeyLength-len(b):], b)
}

// Bytes returns the raw 32 bytes backing the pubkey.
func (p Pubkey) Bytes() []byte {
	out := make([]byte, PubkeyLength)
	copy(out, p[:])
	return out
}

// String renders the pubkey using the base58 alphabet, matching how every
// Solana-family client encodes addresses for humans and logs.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// IsZero reports whether the pubkey is the all-zero default value, used to
// detect "no fee payer"/"not yet set" sentinels.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// BytesToPubkey copies b (left-truncated if oversized) into a new Pubkey.
func BytesToPubkey(b []byte) Pubkey {
	var p Pubkey
	p.SetBytes(b)
	return p
}

// PubkeyFromBase58 decodes a base58-encoded pubkey string.
func PubkeyFromBase58(s string) (Pubkey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, err
	}
	if len(raw) != PubkeyLength {
		return Pubkey{}, ErrInvalidPubkeyLength
	}
	var p Pubkey
	copy(p[:], raw)
	return p, nil
}

// Bytes returns the raw 64 bytes backing the signature.
func (s Signature) Bytes() []byte {
	out := make([]byte, SignatureLength)
	copy(out, s[:])
	return out
}

// String renders the signature using the base58 alphabet, matching the
// SentCommit log line format in spec section 6.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// BytesToSignature copies b into a new Signature.
func BytesToSignature(b []byte) Signature {
	var s Signature
	copy(s[:], b)
	return s
}

// SetBytes sets the hash to the value of b, left-truncating oversized input.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-PubkeyLength:]
	}
	copy(h[PubkeyLength-len(b):], b)
}

func (h Hash) Bytes() []byte {
	out := make([]byte, PubkeyLength)
	copy(out, h[:])
	return out
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

// BytesToHash copies b (left-truncated if oversized) into a new Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// GenerateHash computes the SHA-256 content hash used by
// types.Transaction.Hash.
func GenerateHash(input []byte) Hash {
	return sha256.Sum256(input)
}

// SlotToBytes encodes a slot as 8-byte little endian, the same layout used
// by our deterministic length-prefixed wire encodings.
func SlotToBytes(slot Slot) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, slot)
	return b
}
