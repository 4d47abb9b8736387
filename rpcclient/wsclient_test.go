package rpcclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"evrollup/common"
)

// wsEchoServer upgrades every connection and, upon receiving an
// accountSubscribe request, replies with a single accountNotification for
// the given owner/subscription id — enough to exercise WSClient's
// subscribe/readLoop round trip without a real base-chain node.
func wsEchoServer(t *testing.T, owner common.Pubkey) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var req map[string]interface{}
		require.NoError(t, conn.ReadJSON(&req))
		id := int(req["id"].(float64))

		notif := fmt.Sprintf(`{"jsonrpc":"2.0","method":"accountNotification","params":{"subscription":%d,"result":{"context":{"slot":9},"value":{"lamports":5,"owner":%q,"data":["","base64"],"executable":false,"rentEpoch":0}}}}`, id, owner.String())
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(notif)))

		time.Sleep(100 * time.Millisecond)
	}))
}

func TestWSClientSubscribeStampsPubkeyOnNotification(t *testing.T) {
	owner := common.BytesToPubkey([]byte("ws-client-test-owner-pubkey-3210"))
	srv := wsEchoServer(t, owner)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := DialWSClient(wsURL)
	require.NoError(t, err)
	defer client.Close()

	updates := make(chan AccountUpdate, 1)
	subscribedPubkey := common.BytesToPubkey([]byte("subscribed-pubkey-for-ws-test-1"))
	unsubscribe, err := client.Subscribe(context.Background(), subscribedPubkey, updates)
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case update := <-updates:
		require.Equal(t, subscribedPubkey, update.Pubkey)
		require.EqualValues(t, 9, update.Context.Slot)
		require.Equal(t, owner, update.Account.Owner)
		require.EqualValues(t, 5, update.Account.Lamports)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive account update in time")
	}
}

func TestWSClientUnsubscribeStopsDelivering(t *testing.T) {
	owner := common.BytesToPubkey([]byte("ws-client-test-owner-pubkey-two1"))
	srv := wsEchoServer(t, owner)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := DialWSClient(wsURL)
	require.NoError(t, err)
	defer client.Close()

	updates := make(chan AccountUpdate, 1)
	pubkey := common.BytesToPubkey([]byte("subscribed-pubkey-for-ws-test-2"))
	unsubscribe, err := client.Subscribe(context.Background(), pubkey, updates)
	require.NoError(t, err)
	unsubscribe()

	client.mu.Lock()
	_, stillPresent := client.byPubkey[pubkey]
	client.mu.Unlock()
	require.False(t, stillPresent)
}
