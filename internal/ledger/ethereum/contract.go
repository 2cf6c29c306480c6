package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/temirov/mango/internal/ledger"
)

const (
	contractMethodRefCount         = "refCount"
	contractMethodRefName          = "refName"
	contractMethodGetRef           = "getRef"
	contractMethodSnapshotCount    = "snapshotCount"
	contractMethodGetSnapshot      = "getSnapshot"
	contractMethodIssueCount       = "issueCount"
	contractMethodGetIssue         = "getIssue"
	contractMethodNewIssue         = "newIssue"
	contractMethodSetIssue         = "setIssue"
	contractMethodDeleteIssue      = "deleteIssue"
	contractMethodPullRequestCount = "pullRequestCount"
	contractMethodGetPullRequest   = "getPullRequest"
	contractMethodOpenPullRequest  = "openPullRequest"
	contractMethodClosePullRequest = "closePullRequest"

	unexpectedOutputTemplateConstant = "%s returned %d values of types %T"
	countOverflowTemplateConstant    = "%s returned %s which does not fit in 64 bits"
	encodeErrorTemplateConstant      = "unable to encode %s: %w"
)

type boundContract struct {
	connection *Connection
	address    common.Address
}

func (contract *boundContract) RefCount(executionContext context.Context) (uint64, error) {
	return contract.readCount(executionContext, contractMethodRefCount)
}

func (contract *boundContract) RefName(executionContext context.Context, index uint64) (string, error) {
	return contract.readString(executionContext, contractMethodRefName, new(big.Int).SetUint64(index))
}

func (contract *boundContract) GetRef(executionContext context.Context, name string) (string, error) {
	return contract.readString(executionContext, contractMethodGetRef, name)
}

func (contract *boundContract) SnapshotCount(executionContext context.Context) (uint64, error) {
	return contract.readCount(executionContext, contractMethodSnapshotCount)
}

func (contract *boundContract) GetSnapshot(executionContext context.Context, index uint64) (string, error) {
	return contract.readString(executionContext, contractMethodGetSnapshot, new(big.Int).SetUint64(index))
}

func (contract *boundContract) IssueCount(executionContext context.Context) (uint64, error) {
	return contract.readCount(executionContext, contractMethodIssueCount)
}

func (contract *boundContract) GetIssue(executionContext context.Context, issueID uint64) (string, error) {
	return contract.readString(executionContext, contractMethodGetIssue, new(big.Int).SetUint64(issueID))
}

func (contract *boundContract) NewIssue(executionContext context.Context, options ledger.TransactOptions, contentHash string) (ledger.WriteReceipt, error) {
	return contract.write(executionContext, options, contractMethodNewIssue, contentHash)
}

func (contract *boundContract) SetIssue(executionContext context.Context, options ledger.TransactOptions, issueID uint64, contentHash string) (ledger.WriteReceipt, error) {
	return contract.write(executionContext, options, contractMethodSetIssue, new(big.Int).SetUint64(issueID), contentHash)
}

func (contract *boundContract) DeleteIssue(executionContext context.Context, options ledger.TransactOptions, issueID uint64) (ledger.WriteReceipt, error) {
	return contract.write(executionContext, options, contractMethodDeleteIssue, new(big.Int).SetUint64(issueID))
}

func (contract *boundContract) PullRequestCount(executionContext context.Context) (uint64, error) {
	return contract.readCount(executionContext, contractMethodPullRequestCount)
}

func (contract *boundContract) GetPullRequest(executionContext context.Context, pullRequestID uint64) (string, error) {
	outputs, callError := contract.connection.call(executionContext, contract.address, contractMethodGetPullRequest, new(big.Int).SetUint64(pullRequestID))
	if callError != nil {
		return "", callError
	}
	if len(outputs) != 1 {
		return "", fmt.Errorf(unexpectedOutputTemplateConstant, contractMethodGetPullRequest, len(outputs), outputs)
	}
	forkAddress, isAddress := outputs[0].(common.Address)
	if !isAddress {
		return "", fmt.Errorf(unexpectedOutputTemplateConstant, contractMethodGetPullRequest, len(outputs), outputs[0])
	}
	return forkAddress.Hex(), nil
}

func (contract *boundContract) OpenPullRequest(executionContext context.Context, options ledger.TransactOptions, issueID uint64, forkAddress string) (ledger.WriteReceipt, error) {
	trimmedForkAddress := strings.TrimSpace(forkAddress)
	if !common.IsHexAddress(trimmedForkAddress) {
		return ledger.WriteReceipt{}, InvalidAddressError{Address: forkAddress}
	}
	return contract.write(executionContext, options, contractMethodOpenPullRequest, new(big.Int).SetUint64(issueID), common.HexToAddress(trimmedForkAddress))
}

func (contract *boundContract) ClosePullRequest(executionContext context.Context, options ledger.TransactOptions, pullRequestID uint64) (ledger.WriteReceipt, error) {
	return contract.write(executionContext, options, contractMethodClosePullRequest, new(big.Int).SetUint64(pullRequestID))
}

func (contract *boundContract) readCount(executionContext context.Context, method string) (uint64, error) {
	outputs, callError := contract.connection.call(executionContext, contract.address, method)
	if callError != nil {
		return 0, callError
	}
	if len(outputs) != 1 {
		return 0, fmt.Errorf(unexpectedOutputTemplateConstant, method, len(outputs), outputs)
	}
	count, isInteger := outputs[0].(*big.Int)
	if !isInteger {
		return 0, fmt.Errorf(unexpectedOutputTemplateConstant, method, len(outputs), outputs[0])
	}
	if !count.IsUint64() {
		return 0, fmt.Errorf(countOverflowTemplateConstant, method, count.String())
	}
	return count.Uint64(), nil
}

func (contract *boundContract) readString(executionContext context.Context, method string, arguments ...any) (string, error) {
	outputs, callError := contract.connection.call(executionContext, contract.address, method, arguments...)
	if callError != nil {
		return "", callError
	}
	if len(outputs) != 1 {
		return "", fmt.Errorf(unexpectedOutputTemplateConstant, method, len(outputs), outputs)
	}
	value, isString := outputs[0].(string)
	if !isString {
		return "", fmt.Errorf(unexpectedOutputTemplateConstant, method, len(outputs), outputs[0])
	}
	return value, nil
}

func (contract *boundContract) write(executionContext context.Context, options ledger.TransactOptions, method string, arguments ...any) (ledger.WriteReceipt, error) {
	input, packError := contract.connection.contractABI.Pack(method, arguments...)
	if packError != nil {
		return ledger.WriteReceipt{}, fmt.Errorf(encodeErrorTemplateConstant, method, packError)
	}

	contractAddress := contract.address
	receipt, transactError := contract.connection.transact(executionContext, options, &contractAddress, input)
	if transactError != nil {
		return ledger.WriteReceipt{}, transactError
	}
	return ledger.WriteReceipt{
		TransactionHash: receipt.TransactionHash.Hex(),
		GasUsed:         uint64(receipt.GasUsed),
		GasLimit:        options.GasLimit,
	}, nil
}
