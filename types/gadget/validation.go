// Package gadget holds small value types attached to a transaction: its
// signatures (Validation) and its per-transaction resource limits
// (ComputeBudget) — the counterparts of the teacher's Validation
// (ECDSA/secp256k1 recoverable signature) and GasPrice, reworked onto
// Ed25519 and Solana-style compute units, the scheme every account actually
// in the data model (spec section 3) signs and pays with.
package gadget

import (
	"crypto/ed25519"
	"errors"

	"evrollup/common"
)

var (
	// ErrInvalidSignature is returned when a signature fails verification
	// against its claimed signer.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrSignatureCountMismatch is returned when a transaction does not
	// carry exactly as many signatures as its message declares required
	// signers.
	ErrSignatureCountMismatch = errors.New("signature count does not match required signer count")
)

// Validation holds a transaction's Ed25519 signatures, one per required
// signer, in AccountKeys order — mirroring the teacher's Validation struct
// (R/S/V), but plural since Solana-style transactions admit multiple
// signers rather than recovering a single sender from one signature.
type Validation struct {
	Signatures []common.Signature
}

// Verify checks that every signature in v verifies against message under
// its corresponding signer pubkey (signers, in AccountKeys order). Unlike
// the teacher's GetFrom (which recovers the sender from the signature),
// Ed25519 verification requires the claimed public key up front — Solana
// transactions carry their full signer list in the message itself.
func (v *Validation) Verify(message []byte, signers []common.Pubkey) error {
	if len(v.Signatures) != len(signers) {
		return ErrSignatureCountMismatch
	}
	for i, signer := range signers {
		sig := v.Signatures[i]
		if !ed25519.Verify(ed25519.PublicKey(signer.Bytes()), message, sig.Bytes()) {
			return ErrInvalidSignature
		}
	}
	return nil
}

// Sign returns the Ed25519 signature of message under priv. It does not
// place the signature into any transaction.
func Sign(message []byte, priv ed25519.PrivateKey) common.Signature {
	return common.BytesToSignature(ed25519.Sign(priv, message))
}
