package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"evrollup/common"
)

func TestWithPubkeyWrapsAndUnwraps(t *testing.T) {
	pubkey := common.BytesToPubkey([]byte("errs-test-pubkey----------------"))
	wrapped := WithPubkey(ErrWritableNotDelegated, pubkey)

	require.True(t, errors.Is(wrapped, ErrWritableNotDelegated))
	require.Contains(t, wrapped.Error(), pubkey.String())
}

func TestPubkeyErrorUnwrapReturnsSentinel(t *testing.T) {
	pubkey := common.BytesToPubkey([]byte("errs-test-pubkey-two------------"))
	pe := &PubkeyError{Err: ErrCloneUnavailable, Pubkey: pubkey}
	require.Equal(t, ErrCloneUnavailable, pe.Unwrap())
}
