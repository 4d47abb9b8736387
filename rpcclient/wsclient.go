package rpcclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"evrollup/common"
)

// WSClient is a BaseChainSubscriber over a single persistent
// gorilla/websocket connection, the monitor shard transport named in
// SPEC_FULL.md's domain stack table.
type WSClient struct {
	conn *websocket.Conn

	mu            sync.Mutex
	nextID        int
	subscriptions map[int]chan<- AccountUpdate // subscription id -> update channel
	pubkeyByID    map[int]common.Pubkey
	byPubkey      map[common.Pubkey]int
}

// DialWSClient opens a websocket connection to endpoint.
func DialWSClient(endpoint string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: failed to dial websocket endpoint: %w", err)
	}
	c := &WSClient{
		conn:          conn,
		subscriptions: make(map[int]chan<- AccountUpdate),
		pubkeyByID:    make(map[int]common.Pubkey),
		byPubkey:      make(map[common.Pubkey]int),
	}
	go c.readLoop()
	return c, nil
}

type wsSubscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Subscribe opens an account_subscribe stream for pubkey, publishing
// updates onto updates until the returned unsubscribe func is called.
func (c *WSClient) Subscribe(ctx context.Context, pubkey common.Pubkey, updates chan<- AccountUpdate) (func(), error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	req := wsSubscribeRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "accountSubscribe",
		Params:  []interface{}{pubkey.String(), map[string]interface{}{"encoding": "base64"}},
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("rpcclient: failed to send subscribe request: %w", err)
	}

	c.mu.Lock()
	c.subscriptions[id] = updates
	c.pubkeyByID[id] = pubkey
	c.byPubkey[pubkey] = id
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		delete(c.subscriptions, id)
		delete(c.pubkeyByID, id)
		delete(c.byPubkey, pubkey)
		c.mu.Unlock()
	}
	return unsubscribe, nil
}

// Close tears down the websocket connection.
func (c *WSClient) Close() error {
	return c.conn.Close()
}

type wsNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription int `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Lamports   uint64   `json:"lamports"`
				Owner      string   `json:"owner"`
				Data       []string `json:"data"`
				Executable bool     `json:"executable"`
				RentEpoch  uint64   `json:"rentEpoch"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (c *WSClient) readLoop() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var notif wsNotification
		if err := json.Unmarshal(raw, &notif); err != nil || notif.Method != "accountNotification" {
			continue
		}

		c.mu.Lock()
		ch, ok := c.subscriptions[notif.Params.Subscription]
		pubkey := c.pubkeyByID[notif.Params.Subscription]
		c.mu.Unlock()
		if !ok {
			continue
		}

		owner, err := common.PubkeyFromBase58(notif.Params.Result.Value.Owner)
		if err != nil {
			continue
		}
		var data []byte
		if len(notif.Params.Result.Value.Data) > 0 {
			data, _ = base64.StdEncoding.DecodeString(notif.Params.Result.Value.Data[0])
		}

		ch <- AccountUpdate{
			Pubkey:  pubkey,
			Context: ContextSlot{Slot: notif.Params.Result.Context.Slot},
			Account: AccountInfo{
				Lamports:   notif.Params.Result.Value.Lamports,
				Owner:      owner,
				Data:       data,
				Executable: notif.Params.Result.Value.Executable,
				RentEpoch:  notif.Params.Result.Value.RentEpoch,
			},
		}
	}
}

var _ BaseChainSubscriber = (*WSClient)(nil)
