package admission

import "errors"

var (
	// ErrOversizedMessage mirrors the teacher's ErrOversizedData: a
	// transaction's serialized message exceeds the size the runtime can
	// meaningfully process.
	ErrOversizedMessage = errors.New("admission: transaction message too large")
	// ErrInvalidSignatures mirrors the teacher's ErrInvalidSender: at
	// least one required signer's signature failed to verify.
	ErrInvalidSignatures = errors.New("admission: transaction signatures invalid")
	// ErrNoFeePayer is returned when a message declares zero account keys
	// and therefore has no fee payer.
	ErrNoFeePayer = errors.New("admission: transaction declares no fee payer")
	// ErrTooManyAccountKeys mirrors the teacher's ErrOversizedData for the
	// account-key dimension instead of byte size.
	ErrTooManyAccountKeys = errors.New("admission: transaction declares too many account keys")
	// ErrComputeBudgetExceeded is returned when a transaction requests
	// more compute units than the protocol maximum.
	ErrComputeBudgetExceeded = errors.New("admission: compute budget exceeds maximum")
	// ErrUnclonedReadable is returned when ValidateLifecycle encounters a
	// read-only account that has never been successfully cloned and is
	// not locally originated.
	ErrUnclonedReadable = errors.New("admission: transaction reads an account that could not be cloned")
	// TransactionIncludeUndelegatedAccountsAsWritable is returned when a
	// writable account cloned as Undelegated also carries a delegation
	// record inconsistency (spec 4.4 step 3, section 7, scenario 4) —
	// distinct from the plain ErrWritableNotDelegated, since the account
	// looked like it should be delegated but its record failed to parse.
	TransactionIncludeUndelegatedAccountsAsWritable = errors.New("admission: TransactionIncludeUndelegatedAccountsAsWritable: writable account is undelegated with a delegation record inconsistency")
)
