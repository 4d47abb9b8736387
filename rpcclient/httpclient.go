package rpcclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"evrollup/common"
)

// HTTPClient is a minimal JSON-RPC 2.0 BaseChainReader/BaseChainSender
// implementation over net/http. No pack dependency ships a complete,
// importable Solana JSON-RPC client (the retrieved cielu-go-solana material
// is wire-type definitions only, not a buildable client package), so the
// transport here is plain net/http + encoding/json — justified in
// DESIGN.md as the stdlib exception for this seam; gorilla/websocket still
// carries the persistent subscription transport in WSClient.
type HTTPClient struct {
	Endpoint string
	HTTP     *http.Client
}

// NewHTTPClient returns an HTTPClient targeting endpoint.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{Endpoint: endpoint, HTTP: http.DefaultClient}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("rpcclient: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpcclient: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("rpcclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("rpcclient: failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpcclient: %s (code %d)", rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("rpcclient: failed to decode result: %w", err)
		}
	}
	return nil
}

type accountInfoWire struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value *struct {
		Lamports   uint64   `json:"lamports"`
		Owner      string   `json:"owner"`
		Data       []string `json:"data"`
		Executable bool     `json:"executable"`
		RentEpoch  uint64   `json:"rentEpoch"`
	} `json:"value"`
}

func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey common.Pubkey, minContextSlot common.Slot) (AccountInfoWithContext, error) {
	var wire accountInfoWire
	opts := map[string]interface{}{"encoding": "base64"}
	if minContextSlot > 0 {
		opts["minContextSlot"] = minContextSlot
	}
	if err := c.call(ctx, "getAccountInfo", []interface{}{pubkey.String(), opts}, &wire); err != nil {
		return AccountInfoWithContext{}, err
	}
	return decodeAccountInfoWire(wire)
}

func (c *HTTPClient) GetMultipleAccounts(ctx context.Context, pubkeys []common.Pubkey, minContextSlot common.Slot) ([]AccountInfoWithContext, error) {
	out := make([]AccountInfoWithContext, 0, len(pubkeys))
	for _, pubkey := range pubkeys {
		info, err := c.GetAccountInfo(ctx, pubkey, minContextSlot)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func decodeAccountInfoWire(wire accountInfoWire) (AccountInfoWithContext, error) {
	result := AccountInfoWithContext{Context: ContextSlot{Slot: wire.Context.Slot}}
	if wire.Value == nil {
		return result, nil
	}
	var data []byte
	if len(wire.Value.Data) > 0 {
		decoded, err := base64.StdEncoding.DecodeString(wire.Value.Data[0])
		if err != nil {
			return AccountInfoWithContext{}, fmt.Errorf("rpcclient: failed to decode account data: %w", err)
		}
		data = decoded
	}
	owner, err := common.PubkeyFromBase58(wire.Value.Owner)
	if err != nil {
		return AccountInfoWithContext{}, fmt.Errorf("rpcclient: failed to decode owner pubkey: %w", err)
	}
	result.Value = &AccountInfo{
		Lamports:   wire.Value.Lamports,
		Owner:      owner,
		Data:       data,
		Executable: wire.Value.Executable,
		RentEpoch:  wire.Value.RentEpoch,
	}
	return result, nil
}

func (c *HTTPClient) SendTransaction(ctx context.Context, raw []byte) (common.Signature, error) {
	encoded := base64.StdEncoding.EncodeToString(raw)
	var sigStr string
	if err := c.call(ctx, "sendTransaction", []interface{}{encoded, map[string]interface{}{"encoding": "base64"}}, &sigStr); err != nil {
		return common.Signature{}, err
	}
	return common.BytesToSignature([]byte(sigStr)), nil
}

type signatureStatusWire struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value []*struct {
		Slot               uint64          `json:"slot"`
		Err                json.RawMessage `json:"err"`
		ConfirmationStatus string          `json:"confirmationStatus"`
	} `json:"value"`
}

func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, sigs []common.Signature) ([]SignatureInfo, error) {
	strs := make([]string, len(sigs))
	for i, sig := range sigs {
		strs[i] = sig.String()
	}
	var wire signatureStatusWire
	if err := c.call(ctx, "getSignatureStatuses", []interface{}{strs}, &wire); err != nil {
		return nil, err
	}
	out := make([]SignatureInfo, len(wire.Value))
	for i, v := range wire.Value {
		if v == nil {
			continue
		}
		info := SignatureInfo{Slot: v.Slot, ConfirmationStatus: v.ConfirmationStatus}
		if len(v.Err) > 0 && string(v.Err) != "null" {
			info.Err = fmt.Errorf("rpcclient: transaction failed: %s", string(v.Err))
		}
		out[i] = info
	}
	return out, nil
}

func (c *HTTPClient) GetLatestBlockhash(ctx context.Context) (common.Hash, error) {
	var wire struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", nil, &wire); err != nil {
		return common.Hash{}, err
	}
	raw, err := common.PubkeyFromBase58(wire.Value.Blockhash)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(raw.Bytes()), nil
}

var _ BaseChainReader = (*HTTPClient)(nil)
var _ BaseChainSender = (*HTTPClient)(nil)
