package ethereum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/mango/internal/ledger"
)

const (
	methodAccountsConstant        = "eth_accounts"
	methodSendTransactionConstant = "eth_sendTransaction"
	methodCallConstant            = "eth_call"
	blockTagLatestConstant        = "latest"

	dialErrorTemplateConstant            = "unable to reach ledger node at %s: %w"
	invalidAddressTemplateConstant       = "%q is not a ledger address"
	invalidSenderTemplateConstant        = "sender account %q is not a ledger address"
	constructorPackErrorTemplateConstant = "unable to encode constructor: %w"
	sendTransactionErrorTemplateConstant = "unable to submit transaction: %w"
	deploymentRevertedTemplateConstant   = "deployment transaction %s was reverted"
	deploymentNoAddressTemplateConstant  = "deployment transaction %s produced no contract address"

	logMessageTransactionSubmittedConstant = "ledger transaction submitted"
	logMessageReceiptReceivedConstant      = "ledger transaction mined"
	logMessageArtifactMissingConstant      = "contract artifact not found; using embedded ABI"
	logFieldTransactionHashConstant        = "transaction_hash"
	logFieldGasUsedConstant                = "gas_used"
	logFieldArtifactPathConstant           = "artifact_path"
)

// ErrCallerNotConfigured indicates a connection was constructed without an RPC caller.
var ErrCallerNotConfigured = errors.New("ledger rpc caller not configured")

// InvalidAddressError reports a string that does not parse as a ledger address.
type InvalidAddressError struct {
	Address string
}

// Error describes the invalid address.
func (addressError InvalidAddressError) Error() string {
	return fmt.Sprintf(invalidAddressTemplateConstant, addressError.Address)
}

// RPCCaller issues JSON-RPC calls against a ledger node.
type RPCCaller interface {
	CallContext(executionContext context.Context, result any, method string, arguments ...any) error
}

// ConnectionOptions configures a Connection.
type ConnectionOptions struct {
	ArtifactPath        string
	FileSystem          afero.Fs
	ReceiptPollInterval time.Duration
	ReceiptTimeout      time.Duration
	Logger              *zap.Logger
}

// Connection talks to a ledger node over JSON-RPC and implements ledger.Connection.
type Connection struct {
	caller       RPCCaller
	closer       func()
	contractABI  abi.ABI
	bytecode     []byte
	artifactPath string
	artifactRead bool
	poller       receiptPoller
	logger       *zap.Logger
}

type transactionArguments struct {
	From common.Address  `json:"from"`
	To   *common.Address `json:"to,omitempty"`
	Gas  hexutil.Uint64  `json:"gas"`
	Data hexutil.Bytes   `json:"data"`
}

type callArguments struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Dial connects to the ledger node at endpointURL.
func Dial(executionContext context.Context, endpointURL string, options ConnectionOptions) (*Connection, error) {
	rpcClient, dialError := rpc.DialContext(executionContext, endpointURL)
	if dialError != nil {
		return nil, fmt.Errorf(dialErrorTemplateConstant, endpointURL, dialError)
	}

	connection, connectionError := NewConnection(rpcClient, options)
	if connectionError != nil {
		rpcClient.Close()
		return nil, connectionError
	}
	connection.closer = rpcClient.Close
	return connection, nil
}

// NewConnection wraps an RPC caller. The artifact at options.ArtifactPath supplies the deployment bytecode
// and, when present, replaces the embedded ABI; a missing artifact only disables Deploy.
func NewConnection(caller RPCCaller, options ConnectionOptions) (*Connection, error) {
	if caller == nil {
		return nil, ErrCallerNotConfigured
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := options.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	pollInterval := options.ReceiptPollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultReceiptPollInterval
	}
	receiptTimeout := options.ReceiptTimeout
	if receiptTimeout <= 0 {
		receiptTimeout = DefaultReceiptTimeout
	}

	connection := &Connection{
		caller:       caller,
		artifactPath: strings.TrimSpace(options.ArtifactPath),
		poller:       receiptPoller{caller: caller, pollInterval: pollInterval, timeout: receiptTimeout},
		logger:       logger,
	}

	embeddedABI, embeddedError := EmbeddedABI()
	if embeddedError != nil {
		return nil, embeddedError
	}
	connection.contractABI = embeddedABI

	if len(connection.artifactPath) == 0 {
		return connection, nil
	}

	artifact, artifactError := LoadArtifact(fileSystem, connection.artifactPath)
	if artifactError != nil {
		var notFoundError ArtifactNotFoundError
		if errors.As(artifactError, &notFoundError) {
			logger.Debug(logMessageArtifactMissingConstant, zap.String(logFieldArtifactPathConstant, connection.artifactPath))
			return connection, nil
		}
		return nil, artifactError
	}
	connection.contractABI = artifact.ContractABI
	connection.bytecode = artifact.Bytecode
	connection.artifactRead = true
	return connection, nil
}

// Close releases the underlying RPC client when the connection owns one.
func (connection *Connection) Close() {
	if connection == nil || connection.closer == nil {
		return
	}
	connection.closer()
}

// Accounts lists the accounts managed by the node.
func (connection *Connection) Accounts(executionContext context.Context) ([]string, error) {
	var accounts []common.Address
	if callError := connection.caller.CallContext(executionContext, &accounts, methodAccountsConstant); callError != nil {
		return nil, callError
	}

	accountAddresses := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountAddresses = append(accountAddresses, account.Hex())
	}
	return accountAddresses, nil
}

// Deploy creates a new repository contract and waits for it to be mined.
func (connection *Connection) Deploy(executionContext context.Context, options ledger.TransactOptions) (string, error) {
	if len(connection.bytecode) == 0 {
		switch {
		case connection.artifactRead:
			return "", fmt.Errorf(artifactNoBytecodeTemplateConstant, connection.artifactPath, ErrArtifactWithoutBytecode)
		case len(connection.artifactPath) > 0:
			return "", ArtifactNotFoundError{Path: connection.artifactPath}
		default:
			return "", ErrArtifactWithoutBytecode
		}
	}

	constructorArguments, packError := connection.contractABI.Pack("")
	if packError != nil {
		return "", fmt.Errorf(constructorPackErrorTemplateConstant, packError)
	}
	deploymentData := append(append([]byte{}, connection.bytecode...), constructorArguments...)

	receipt, transactError := connection.transact(executionContext, options, nil, deploymentData)
	if transactError != nil {
		return "", transactError
	}
	if !receipt.succeeded() {
		return "", fmt.Errorf(deploymentRevertedTemplateConstant, receipt.TransactionHash.Hex())
	}
	if receipt.ContractAddress == nil {
		return "", fmt.Errorf(deploymentNoAddressTemplateConstant, receipt.TransactionHash.Hex())
	}
	return receipt.ContractAddress.Hex(), nil
}

// Bind returns a contract binding for the repository at ledgerAddress.
func (connection *Connection) Bind(ledgerAddress string) (ledger.Contract, error) {
	trimmedAddress := strings.TrimSpace(ledgerAddress)
	if !common.IsHexAddress(trimmedAddress) {
		return nil, InvalidAddressError{Address: ledgerAddress}
	}
	return &boundContract{connection: connection, address: common.HexToAddress(trimmedAddress)}, nil
}

func (connection *Connection) call(executionContext context.Context, contractAddress common.Address, method string, arguments ...any) ([]any, error) {
	input, packError := connection.contractABI.Pack(method, arguments...)
	if packError != nil {
		return nil, packError
	}

	var output hexutil.Bytes
	callError := connection.caller.CallContext(executionContext, &output, methodCallConstant, callArguments{To: contractAddress, Data: input}, blockTagLatestConstant)
	if callError != nil {
		return nil, callError
	}
	return connection.contractABI.Unpack(method, output)
}

func (connection *Connection) transact(executionContext context.Context, options ledger.TransactOptions, contractAddress *common.Address, data []byte) (*transactionReceipt, error) {
	if !common.IsHexAddress(strings.TrimSpace(options.From)) {
		return nil, fmt.Errorf(invalidSenderTemplateConstant, options.From)
	}

	arguments := transactionArguments{
		From: common.HexToAddress(strings.TrimSpace(options.From)),
		To:   contractAddress,
		Gas:  hexutil.Uint64(options.GasLimit),
		Data: data,
	}

	var transactionHash common.Hash
	if sendError := connection.caller.CallContext(executionContext, &transactionHash, methodSendTransactionConstant, arguments); sendError != nil {
		return nil, fmt.Errorf(sendTransactionErrorTemplateConstant, sendError)
	}
	connection.logger.Debug(logMessageTransactionSubmittedConstant, zap.String(logFieldTransactionHashConstant, transactionHash.Hex()))

	receipt, receiptError := connection.poller.await(executionContext, transactionHash)
	if receiptError != nil {
		return nil, receiptError
	}
	connection.logger.Debug(logMessageReceiptReceivedConstant,
		zap.String(logFieldTransactionHashConstant, receipt.TransactionHash.Hex()),
		zap.Uint64(logFieldGasUsedConstant, uint64(receipt.GasUsed)),
	)
	return receipt, nil
}
