package types

import "evrollup/common"

// MessageHeader records the signer/writable partitioning of AccountKeys,
// the same three-count scheme every Solana message wire format uses.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is the unsigned body of a Transaction: the ordered account list,
// the instructions referencing it by index, and the recent blockhash the
// transaction was built against.
type Message struct {
	Header          MessageHeader
	AccountKeys     []common.Pubkey
	RecentBlockhash common.Hash
	Instructions    []CompiledInstruction
}

// IsSigner reports whether the account at index idx within AccountKeys must
// sign the transaction.
func (m *Message) IsSigner(idx int) bool {
	return idx < int(m.Header.NumRequiredSignatures)
}

// IsWritable reports whether the account at index idx within AccountKeys
// may be written to by this transaction.
func (m *Message) IsWritable(idx int) bool {
	n := len(m.AccountKeys)
	if idx >= n {
		return false
	}
	signed := int(m.Header.NumRequiredSignatures)
	if idx < signed {
		return idx < signed-int(m.Header.NumReadonlySignedAccounts)
	}
	unsignedIdx := idx - signed
	numUnsigned := n - signed
	return unsignedIdx < numUnsigned-int(m.Header.NumReadonlyUnsignedAccounts)
}

// AccountMetas expands AccountKeys into fully-flagged AccountMeta values.
func (m *Message) AccountMetas() []AccountMeta {
	metas := make([]AccountMeta, len(m.AccountKeys))
	for i, key := range m.AccountKeys {
		metas[i] = AccountMeta{
			Pubkey:     key,
			IsSigner:   m.IsSigner(i),
			IsWritable: m.IsWritable(i),
		}
	}
	return metas
}

// FeePayer is, by Solana convention, AccountKeys[0] — always a signer and
// always writable.
func (m *Message) FeePayer() (common.Pubkey, bool) {
	if len(m.AccountKeys) == 0 {
		return common.Pubkey{}, false
	}
	return m.AccountKeys[0], true
}
