package ethereum

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	methodGetTransactionReceiptConstant = "eth_getTransactionReceipt"
	receiptTimeoutTemplateConstant      = "no receipt for transaction %s after %s"
	receiptLookupErrorTemplateConstant  = "unable to fetch receipt for transaction %s: %w"

	// DefaultReceiptPollInterval is the delay between receipt lookups.
	DefaultReceiptPollInterval = time.Second
	// DefaultReceiptTimeout bounds how long a transaction may stay unmined.
	DefaultReceiptTimeout = 5 * time.Minute
)

// ReceiptTimeoutError reports a transaction that was not mined within the receipt timeout.
type ReceiptTimeoutError struct {
	TransactionHash string
	Timeout         time.Duration
}

// Error describes the timeout.
func (timeoutError ReceiptTimeoutError) Error() string {
	return fmt.Sprintf(receiptTimeoutTemplateConstant, timeoutError.TransactionHash, timeoutError.Timeout)
}

type transactionReceipt struct {
	TransactionHash common.Hash     `json:"transactionHash"`
	GasUsed         hexutil.Uint64  `json:"gasUsed"`
	ContractAddress *common.Address `json:"contractAddress"`
	Status          *hexutil.Uint64 `json:"status"`
}

func (receipt *transactionReceipt) succeeded() bool {
	return receipt.Status == nil || uint64(*receipt.Status) == 1
}

type receiptPoller struct {
	caller       RPCCaller
	pollInterval time.Duration
	timeout      time.Duration
}

// await polls until the node reports a receipt for the transaction, the timeout elapses, or the context ends.
func (poller receiptPoller) await(executionContext context.Context, transactionHash common.Hash) (*transactionReceipt, error) {
	timeoutContext, cancel := context.WithTimeout(executionContext, poller.timeout)
	defer cancel()

	ticker := time.NewTicker(poller.pollInterval)
	defer ticker.Stop()

	for {
		var receipt *transactionReceipt
		lookupError := poller.caller.CallContext(timeoutContext, &receipt, methodGetTransactionReceiptConstant, transactionHash)
		if lookupError != nil && timeoutContext.Err() == nil {
			return nil, fmt.Errorf(receiptLookupErrorTemplateConstant, transactionHash.Hex(), lookupError)
		}
		if lookupError == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-timeoutContext.Done():
			if executionContext.Err() != nil {
				return nil, executionContext.Err()
			}
			return nil, ReceiptTimeoutError{TransactionHash: transactionHash.Hex(), Timeout: poller.timeout}
		case <-ticker.C:
		}
	}
}
