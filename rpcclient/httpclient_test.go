package rpcclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"evrollup/common"
)

func jsonRPCServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}))
}

func TestHTTPClientGetAccountInfoDecodesWire(t *testing.T) {
	owner := common.BytesToPubkey([]byte("owner-pubkey-for-http-client-test"))
	data := base64.StdEncoding.EncodeToString([]byte("account-data"))
	result := fmt.Sprintf(`{"context":{"slot":42},"value":{"lamports":100,"owner":%q,"data":[%q,"base64"],"executable":false,"rentEpoch":0}}`, owner.String(), data)

	srv := jsonRPCServer(t, result)
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	info, err := c.GetAccountInfo(context.Background(), common.Pubkey{}, 0)
	require.NoError(t, err)
	require.EqualValues(t, 42, info.Context.Slot)
	require.NotNil(t, info.Value)
	require.Equal(t, uint64(100), info.Value.Lamports)
	require.Equal(t, owner, info.Value.Owner)
	require.Equal(t, []byte("account-data"), info.Value.Data)
}

func TestHTTPClientGetAccountInfoMissingAccount(t *testing.T) {
	srv := jsonRPCServer(t, `{"context":{"slot":7},"value":null}`)
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	info, err := c.GetAccountInfo(context.Background(), common.Pubkey{}, 0)
	require.NoError(t, err)
	require.Nil(t, info.Value)
	require.EqualValues(t, 7, info.Context.Slot)
}

func TestHTTPClientSendTransactionReturnsSignature(t *testing.T) {
	sig := "deadbeef-signature-string"
	srv := jsonRPCServer(t, fmt.Sprintf("%q", sig))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	got, err := c.SendTransaction(context.Background(), []byte("raw-tx"))
	require.NoError(t, err)
	require.Equal(t, common.BytesToSignature([]byte(sig)), got)
}

func TestHTTPClientGetSignatureStatuses(t *testing.T) {
	result := `{"context":{"slot":5},"value":[{"slot":5,"err":null,"confirmationStatus":"confirmed"},null]}`
	srv := jsonRPCServer(t, result)
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	statuses, err := c.GetSignatureStatuses(context.Background(), []common.Signature{{}, {}})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	require.Equal(t, "confirmed", statuses[0].ConfirmationStatus)
	require.NoError(t, statuses[0].Err)
}

func TestHTTPClientGetSignatureStatusesWithError(t *testing.T) {
	result := `{"context":{"slot":5},"value":[{"slot":5,"err":{"InstructionError":[0,"Custom"]},"confirmationStatus":""}]}`
	srv := jsonRPCServer(t, result)
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	statuses, err := c.GetSignatureStatuses(context.Background(), []common.Signature{{}})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Error(t, statuses[0].Err)
}

func TestHTTPClientGetLatestBlockhash(t *testing.T) {
	raw := make([]byte, common.PubkeyLength)
	for i := range raw {
		raw[i] = byte(i)
	}
	encoded := base58.Encode(raw)
	srv := jsonRPCServer(t, fmt.Sprintf(`{"value":{"blockhash":%q}}`, encoded))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	hash, err := c.GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	require.Equal(t, common.BytesToHash(raw), hash)
}

func TestHTTPClientPropagatesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.GetAccountInfo(context.Background(), common.Pubkey{}, 0)
	require.Error(t, err)
}
