// Package transfer is the outbound adapter for the external asset-transfer
// gateway. It moves real value between accounts; local balances are only
// committed against its answers.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"soulboard/internal/config/configs"
	"soulboard/internal/core/port"
)

// Client implements port.TransferGateway over the gateway's HTTP API. Every
// request pins the expected fee so an upstream fee change is rejected rather
// than silently absorbed, and carries a fresh deduplication key so a retried
// request cannot move value twice.
type Client struct {
	http        *http.Client
	baseURL     string
	custodial   string
	expectedFee int64
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg configs.Transfer) *Client {
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.Addr.String(),
		custodial:   cfg.CustodialAccount,
		expectedFee: cfg.ExpectedFee,
	}
}

// transferRequest is the gateway wire format.
type transferRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      int64  `json:"amount"`
	Fee         int64  `json:"fee"`
	Memo        string `json:"memo,omitempty"`
	DedupKey    string `json:"dedup_key"`
}

type transferResponse struct {
	BlockIndex uint64 `json:"block_index"`
	Error      string `json:"error,omitempty"`
}

// Transfer submits one transfer and waits for the gateway's verdict. Empty
// account fields are substituted with the configured custodial account.
// Transport failures and gateway rejections are both returned as
// *port.TransferError with the cause embedded.
func (c *Client) Transfer(ctx context.Context, req port.TransferRequest) (uint64, error) {
	from := req.FromAccount
	if from == "" {
		from = c.custodial
	}
	to := req.ToAccount
	if to == "" {
		to = c.custodial
	}

	body, err := json.Marshal(transferRequest{
		FromAccount: from,
		ToAccount:   to,
		Amount:      req.Amount,
		Fee:         c.expectedFee,
		Memo:        req.Memo,
		DedupKey:    uuid.NewString(),
	})
	if err != nil {
		return 0, err
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v1/transfers")
	if err != nil {
		return 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, &port.TransferError{Cause: fmt.Sprintf("gateway unreachable: %v", err)}
	}
	defer resp.Body.Close()

	var out transferResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, &port.TransferError{Cause: fmt.Sprintf("malformed gateway response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		cause := out.Error
		if cause == "" {
			cause = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return 0, &port.TransferError{Cause: cause}
	}
	return out.BlockIndex, nil
}

var _ port.TransferGateway = (*Client)(nil)
