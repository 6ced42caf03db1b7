package starknet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Entry point names on the score contract.
const (
	FnSubmitScore    = "submit_score"
	FnGetPlayerScore = "get_player_score"
	FnGetTopPlayers  = "get_top_players"
)

// ErrMalformedResult is returned when a call result does not match the
// contract's declared outputs.
var ErrMalformedResult = errors.New("malformed call result")

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client performs read-only calls against one contract.
type Client struct {
	rpcURL     string
	contract   Address
	httpClient *http.Client
	nextID     atomic.Uint64
}

// NewClient creates a client for the contract at contract, reached through
// the node at rpcURL. Every request is bounded by timeout.
func NewClient(rpcURL string, contract Address, timeout time.Duration) *Client {
	return &Client{
		rpcURL:     strings.TrimRight(rpcURL, "/"),
		contract:   contract,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Contract returns the contract address the client calls.
func (c *Client) Contract() Address { return c.contract }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type functionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

type callParams struct {
	Request functionCall `json:"request"`
	BlockID string       `json:"block_id"`
}

// Call runs starknet_call for fn against the latest block and returns the raw felts.
func (c *Client) Call(ctx context.Context, fn string, calldata ...*big.Int) ([]*big.Int, error) {
	args := make([]string, len(calldata))
	for i, v := range calldata {
		args[i] = "0x" + v.Text(16)
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "starknet_call",
		Params: callParams{
			Request: functionCall{
				ContractAddress:    c.contract.String(),
				EntryPointSelector: SelectorHex(fn),
				Calldata:           args,
			},
			BlockID: "latest",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", fn, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", fn, err)
	}
	if out.Error != nil {
		return nil, out.Error
	}

	var felts []string
	if err := json.Unmarshal(out.Result, &felts); err != nil {
		return nil, fmt.Errorf("%w: %s result is not a felt array", ErrMalformedResult, fn)
	}
	result := make([]*big.Int, len(felts))
	for i, f := range felts {
		v, err := parseFelt(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s result[%d]: %v", ErrMalformedResult, fn, i, err)
		}
		result[i] = v
	}
	return result, nil
}

// TopPlayers returns the n best players and their scores, index-aligned as
// the contract returns them.
func (c *Client) TopPlayers(ctx context.Context, n uint32) ([]Address, []uint32, error) {
	felts, err := c.Call(ctx, FnGetTopPlayers, new(big.Int).SetUint64(uint64(n)))
	if err != nil {
		return nil, nil, err
	}

	addrFelts, rest, err := takeArray(felts)
	if err != nil {
		return nil, nil, fmt.Errorf("addresses: %w", err)
	}
	scoreFelts, rest, err := takeArray(rest)
	if err != nil {
		return nil, nil, fmt.Errorf("scores: %w", err)
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("%w: %d trailing felts", ErrMalformedResult, len(rest))
	}

	addrs := make([]Address, len(addrFelts))
	for i, f := range addrFelts {
		addrs[i] = AddressFromBig(f)
	}
	scores := make([]uint32, len(scoreFelts))
	for i, f := range scoreFelts {
		if scores[i], err = toUint32(f); err != nil {
			return nil, nil, err
		}
	}
	return addrs, scores, nil
}

// PlayerScore returns the stored best score for player.
func (c *Client) PlayerScore(ctx context.Context, player Address) (uint32, error) {
	felts, err := c.Call(ctx, FnGetPlayerScore, player.Big())
	if err != nil {
		return 0, err
	}
	if len(felts) != 1 {
		return 0, fmt.Errorf("%w: want 1 felt, got %d", ErrMalformedResult, len(felts))
	}
	return toUint32(felts[0])
}

// SubmitScoreCalldata builds the decimal calldata for
// submit_score(player, score: u32, timestamp: u64).
func SubmitScoreCalldata(player Address, score uint32, timestamp uint64) []string {
	return []string{
		player.Decimal(),
		strconv.FormatUint(uint64(score), 10),
		strconv.FormatUint(timestamp, 10),
	}
}

// takeArray splits a length-prefixed array off the front of felts.
func takeArray(felts []*big.Int) (items, rest []*big.Int, err error) {
	if len(felts) == 0 {
		return nil, nil, fmt.Errorf("%w: missing array length", ErrMalformedResult)
	}
	if !felts[0].IsInt64() || felts[0].Int64() > int64(len(felts)-1) {
		return nil, nil, fmt.Errorf("%w: array length %s exceeds result", ErrMalformedResult, felts[0])
	}
	n := int(felts[0].Int64())
	return felts[1 : 1+n], felts[1+n:], nil
}

func toUint32(v *big.Int) (uint32, error) {
	if !v.IsUint64() || v.Uint64() > 0xFFFFFFFF {
		return 0, fmt.Errorf("%w: %s does not fit u32", ErrMalformedResult, v)
	}
	return uint32(v.Uint64()), nil
}

func parseFelt(s string) (*big.Int, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("felt %q needs a 0x prefix", s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("felt %q is not hex", s)
	}
	return v, nil
}
