package types

import (
	"crypto/ed25519"
	"encoding/binary"

	"evrollup/common"
	"evrollup/types/gadget"
)

// Transaction is a signed Message, mirroring the teacher's
// TxPreface/TxInner/TxExtends composition but collapsed onto Solana's own
// split: a signature list plus one Message, since this data model has no
// payment-specific fields (nonce/value/gas) distinguishing several tx
// shapes the way the teacher's NormalTx/WithdrawTx/RechargeTx did — every
// transaction here is "one message, arbitrary instructions".
type Transaction struct {
	Signatures []common.Signature
	Message    Message
	Budget     gadget.ComputeBudget
}

// Hash returns the content hash of the transaction's signed message,
// matching GenerateHash's role for the teacher's TxHash.
func (tx *Transaction) Hash() common.Hash {
	return common.GenerateHash(tx.serializeMessage())
}

// serializeMessage encodes Message deterministically: a length-prefixed
// binary layout (encoding/binary), not JSON, since signatures must verify
// against an exact byte sequence independent of field ordering or map
// iteration — the same "deterministic length-prefixed" requirement named
// in spec section 6, and the second stdlib-only exception named in
// SPEC_FULL.md section 4.0 (see DESIGN.md).
func (tx *Transaction) serializeMessage() []byte {
	m := tx.Message
	buf := make([]byte, 0, 3+1+len(m.AccountKeys)*32+32+4)

	buf = append(buf, m.Header.NumRequiredSignatures, m.Header.NumReadonlySignedAccounts, m.Header.NumReadonlyUnsignedAccounts)
	buf = append(buf, byte(len(m.AccountKeys)))
	for _, key := range m.AccountKeys {
		buf = append(buf, key.Bytes()...)
	}
	buf = append(buf, m.RecentBlockhash.Bytes()...)

	var instrCount [4]byte
	binary.LittleEndian.PutUint32(instrCount[:], uint32(len(m.Instructions)))
	buf = append(buf, instrCount[:]...)
	for _, instr := range m.Instructions {
		buf = append(buf, instr.ProgramIDIndex)
		buf = append(buf, byte(len(instr.Accounts)))
		buf = append(buf, instr.Accounts...)
		var dataLen [4]byte
		binary.LittleEndian.PutUint32(dataLen[:], uint32(len(instr.Data)))
		buf = append(buf, dataLen[:]...)
		buf = append(buf, instr.Data...)
	}
	return buf
}

// Sign signs the transaction's message with priv and appends the resulting
// signature to Signatures, in AccountKeys order.
func (tx *Transaction) Sign(priv ed25519.PrivateKey) {
	tx.Signatures = append(tx.Signatures, gadget.Sign(tx.serializeMessage(), priv))
}

// Verify checks every signature in tx against its corresponding required
// signer in Message.AccountKeys.
func (tx *Transaction) Verify() error {
	signers := tx.Message.AccountKeys[:tx.Message.Header.NumRequiredSignatures]
	v := gadget.Validation{Signatures: tx.Signatures}
	return v.Verify(tx.serializeMessage(), signers)
}

// FeePayer returns the transaction's fee payer, which by convention is
// always AccountKeys[0].
func (tx *Transaction) FeePayer() (common.Pubkey, bool) {
	return tx.Message.FeePayer()
}

// WritablePubkeys returns the set of account keys this transaction may
// write to, in AccountKeys order (duplicates possible only if AccountKeys
// itself lists a key more than once; callers
// typically de-duplicate via a mapset.Set).
func (tx *Transaction) WritablePubkeys() []common.Pubkey {
	var out []common.Pubkey
	for i, key := range tx.Message.AccountKeys {
		if tx.Message.IsWritable(i) {
			out = append(out, key)
		}
	}
	return out
}

// ReadablePubkeys returns every account key this transaction references,
// whether writable or not.
func (tx *Transaction) ReadablePubkeys() []common.Pubkey {
	out := make([]common.Pubkey, len(tx.Message.AccountKeys))
	copy(out, tx.Message.AccountKeys)
	return out
}

// Size returns the serialized byte length of the transaction's message.
func (tx *Transaction) Size() uint64 {
	return uint64(len(tx.serializeMessage()))
}

// Transactions is a slice of transactions, kept for parity with the
// teacher's Transactions alias used throughout its pool/block APIs.
type Transactions []*Transaction

func (txs Transactions) Len() int { return len(txs) }
