// Package params holds protocol-wide constants, the Solana-account-model
// counterpart of the teacher's gas-schedule constants (TxGas,
// TxDataZeroGas, ...): fixed widths and default compute limits referenced
// by more than one component instead of hardcoded inline.
package params

const (
	// DefaultComputeUnitLimit is the compute budget assumed for a
	// transaction that declares no explicit compute-budget instruction.
	DefaultComputeUnitLimit uint32 = 200_000

	// MaxComputeUnitLimit bounds the compute budget any single
	// transaction may request.
	MaxComputeUnitLimit uint32 = 1_400_000

	// MaxAccountKeys bounds the number of distinct accounts one Message
	// may reference, matching the uint8 index width CompiledInstruction
	// uses to reference them (see types.ErrTooManyAccountKeys).
	MaxAccountKeys = 256

	// MaxTransactionSize bounds the serialized size of one transaction's
	// message, matching the base chain's own packet-size ceiling.
	MaxTransactionSize = 1232
)

// ChainConfig is kept as an empty marker interface, matching the teacher's
// own placeholder: no per-fork configuration exists in this codebase's
// scope, but the type is retained so callers can thread a future
// configuration object through without an API break.
type ChainConfig interface{}
