package port

import (
	"context"
	"fmt"
)

// TransferRequest describes one movement of value on the external ledger.
// An empty account field denotes the system's custodial account; the gateway
// adapter substitutes the configured account name. Funding therefore sets
// FromAccount to the caller and leaves ToAccount empty, payouts the reverse.
type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      int64
	// Memo is a short descriptive tag identifying the operation and entity,
	// e.g. "Fund campaign: campaign_3".
	Memo string
}

// TransferGateway is the external asset-transfer service. Transfer is
// asynchronous on the remote side and may fail for transport reasons
// (gateway unreachable) or ledger reasons (insufficient balance at the true
// source, fee mismatch, stale timestamp). On success it returns the sequence
// index of the committed transfer.
type TransferGateway interface {
	Transfer(ctx context.Context, req TransferRequest) (uint64, error)
}

// TransferError wraps any failure surfaced by the transfer gateway, with the
// original cause embedded as text.
type TransferError struct {
	Cause string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed: %s", e.Cause)
}
