package ethereum

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

const (
	fakeNodeVersionConstant         = "2.0"
	fakeNodeErrorCodeConstant       = -32000
	fakeNodeDefaultGasConstant      = 42000
	fakeNodeDeployedAddressConstant = "0x00000000000000000000000000000000000000aa"
)

type rpcRequest struct {
	Version string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
}

// fakeNode is an in-memory JSON-RPC ledger node hosting one MangoRepo contract.
type fakeNode struct {
	contractABI abi.ABI

	mutex             sync.Mutex
	accounts          []common.Address
	gasUsed           uint64
	nullReceipts      int
	withholdReceipts  bool
	transactionCount  int64
	sentTransactions  []transactionArguments
	receipts          map[common.Hash]transactionReceipt
	receiptLookups    map[common.Hash]int
	refNames          []string
	refTargets        map[string]string
	snapshots         []string
	issues            []string
	pullRequests      []common.Address
	deploymentAddress common.Address
}

func newFakeNode(testInstance *testing.T) *fakeNode {
	testInstance.Helper()
	contractABI, abiError := EmbeddedABI()
	require.NoError(testInstance, abiError)
	return &fakeNode{
		contractABI:       contractABI,
		gasUsed:           fakeNodeDefaultGasConstant,
		receipts:          map[common.Hash]transactionReceipt{},
		receiptLookups:    map[common.Hash]int{},
		refTargets:        map[string]string{},
		deploymentAddress: common.HexToAddress(fakeNodeDeployedAddressConstant),
	}
}

func (node *fakeNode) start(testInstance *testing.T) string {
	testInstance.Helper()
	server := httptest.NewServer(http.HandlerFunc(node.serveHTTP))
	testInstance.Cleanup(server.Close)
	return server.URL
}

func (node *fakeNode) serveHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	var rpcCall rpcRequest
	if decodeError := json.NewDecoder(request.Body).Decode(&rpcCall); decodeError != nil {
		http.Error(responseWriter, decodeError.Error(), http.StatusBadRequest)
		return
	}

	result, handleError := node.handle(rpcCall.Method, rpcCall.Params)
	response := rpcResponse{Version: fakeNodeVersionConstant, ID: rpcCall.ID, Result: result}
	if handleError != nil {
		response.Result = nil
		response.Error = &rpcErrorBody{Code: fakeNodeErrorCodeConstant, Message: handleError.Error()}
	}

	responseWriter.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(responseWriter).Encode(response)
}

func (node *fakeNode) handle(method string, params []json.RawMessage) (any, error) {
	node.mutex.Lock()
	defer node.mutex.Unlock()

	switch method {
	case methodAccountsConstant:
		return node.accounts, nil
	case methodCallConstant:
		var arguments callArguments
		if decodeError := json.Unmarshal(params[0], &arguments); decodeError != nil {
			return nil, decodeError
		}
		return node.call(arguments.Data)
	case methodSendTransactionConstant:
		var arguments transactionArguments
		if decodeError := json.Unmarshal(params[0], &arguments); decodeError != nil {
			return nil, decodeError
		}
		return node.sendTransaction(arguments)
	case methodGetTransactionReceiptConstant:
		var transactionHash common.Hash
		if decodeError := json.Unmarshal(params[0], &transactionHash); decodeError != nil {
			return nil, decodeError
		}
		node.receiptLookups[transactionHash]++
		if node.withholdReceipts || node.receiptLookups[transactionHash] <= node.nullReceipts {
			return nil, nil
		}
		receipt, known := node.receipts[transactionHash]
		if !known {
			return nil, nil
		}
		return receipt, nil
	default:
		return nil, fmt.Errorf("method %s not supported", method)
	}
}

func (node *fakeNode) decode(data []byte) (*abi.Method, []any, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("call data too short")
	}
	method, lookupError := node.contractABI.MethodById(data[:4])
	if lookupError != nil {
		return nil, nil, lookupError
	}
	values, unpackError := method.Inputs.Unpack(data[4:])
	if unpackError != nil {
		return nil, nil, unpackError
	}
	return method, values, nil
}

func (node *fakeNode) call(data []byte) (any, error) {
	method, values, decodeError := node.decode(data)
	if decodeError != nil {
		return nil, decodeError
	}

	var outputs []any
	switch method.Name {
	case contractMethodRefCount:
		outputs = []any{big.NewInt(int64(len(node.refNames)))}
	case contractMethodRefName:
		outputs = []any{node.refNames[values[0].(*big.Int).Uint64()]}
	case contractMethodGetRef:
		outputs = []any{node.refTargets[values[0].(string)]}
	case contractMethodSnapshotCount:
		outputs = []any{big.NewInt(int64(len(node.snapshots)))}
	case contractMethodGetSnapshot:
		outputs = []any{node.snapshots[values[0].(*big.Int).Uint64()]}
	case contractMethodIssueCount:
		outputs = []any{big.NewInt(int64(len(node.issues)))}
	case contractMethodGetIssue:
		outputs = []any{node.issues[values[0].(*big.Int).Uint64()]}
	case contractMethodPullRequestCount:
		outputs = []any{big.NewInt(int64(len(node.pullRequests)))}
	case contractMethodGetPullRequest:
		outputs = []any{node.pullRequests[values[0].(*big.Int).Uint64()]}
	default:
		return nil, fmt.Errorf("%s is not a view", method.Name)
	}

	packed, packError := method.Outputs.Pack(outputs...)
	if packError != nil {
		return nil, packError
	}
	return hexutil.Bytes(packed), nil
}

func (node *fakeNode) sendTransaction(arguments transactionArguments) (any, error) {
	node.transactionCount++
	transactionHash := common.BigToHash(big.NewInt(node.transactionCount))
	node.sentTransactions = append(node.sentTransactions, arguments)

	gasUsed := node.gasUsed
	if gasUsed > uint64(arguments.Gas) {
		gasUsed = uint64(arguments.Gas)
	}
	receipt := transactionReceipt{TransactionHash: transactionHash, GasUsed: hexutil.Uint64(gasUsed)}

	if arguments.To == nil {
		deployedAddress := node.deploymentAddress
		receipt.ContractAddress = &deployedAddress
		node.receipts[transactionHash] = receipt
		return transactionHash, nil
	}

	if gasUsed < uint64(arguments.Gas) {
		if applyError := node.apply(arguments.Data); applyError != nil {
			return nil, applyError
		}
	}
	node.receipts[transactionHash] = receipt
	return transactionHash, nil
}

func (node *fakeNode) apply(data []byte) error {
	method, values, decodeError := node.decode(data)
	if decodeError != nil {
		return decodeError
	}

	switch method.Name {
	case contractMethodNewIssue:
		node.issues = append(node.issues, values[0].(string))
	case contractMethodSetIssue:
		node.issues[values[0].(*big.Int).Uint64()] = values[1].(string)
	case contractMethodDeleteIssue:
		node.issues[values[0].(*big.Int).Uint64()] = ""
	case contractMethodOpenPullRequest:
		node.pullRequests = append(node.pullRequests, values[1].(common.Address))
	case contractMethodClosePullRequest:
		node.pullRequests[values[0].(*big.Int).Uint64()] = common.Address{}
	default:
		return fmt.Errorf("%s is not a write", method.Name)
	}
	return nil
}

func (node *fakeNode) transactions() []transactionArguments {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	return append([]transactionArguments{}, node.sentTransactions...)
}
