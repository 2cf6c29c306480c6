package ethereum

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/afero"
)

const (
	artifactReadErrorTemplateConstant     = "unable to read contract artifact %s: %w"
	artifactDecodeErrorTemplateConstant   = "unable to decode contract artifact %s: %w"
	artifactABIErrorTemplateConstant      = "unable to parse ABI in contract artifact %s: %w"
	artifactBytecodeTemplateConstant      = "unable to decode bytecode in contract artifact %s: %w"
	artifactMissingTemplateConstant       = "contract artifact %s not found; build the MangoRepo contract or set ledger.artifact"
	artifactNoBytecodeTemplateConstant    = "contract artifact %s: %w"
	embeddedABIParseErrorTemplateConstant = "unable to parse embedded MangoRepo ABI: %w"
)

//go:embed mango_repo_abi.json
var embeddedMangoRepoABI []byte

// ErrArtifactWithoutBytecode indicates an artifact that cannot be deployed.
var ErrArtifactWithoutBytecode = errors.New("contract artifact carries no deployable bytecode")

// ArtifactNotFoundError reports a missing compiled contract artifact.
type ArtifactNotFoundError struct {
	Path string
}

// Error describes the missing artifact.
func (notFoundError ArtifactNotFoundError) Error() string {
	return fmt.Sprintf(artifactMissingTemplateConstant, notFoundError.Path)
}

// Artifact is the subset of a truffle build artifact needed to call and deploy the contract.
type Artifact struct {
	ContractABI abi.ABI
	Bytecode    []byte
}

type truffleArtifactDocument struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// EmbeddedABI parses the MangoRepo ABI compiled into the binary.
func EmbeddedABI() (abi.ABI, error) {
	contractABI, parseError := abi.JSON(bytes.NewReader(embeddedMangoRepoABI))
	if parseError != nil {
		return abi.ABI{}, fmt.Errorf(embeddedABIParseErrorTemplateConstant, parseError)
	}
	return contractABI, nil
}

// LoadArtifact reads a truffle-style JSON artifact. A missing "abi" falls back to the embedded ABI.
func LoadArtifact(fileSystem afero.Fs, artifactPath string) (Artifact, error) {
	artifactContents, readError := afero.ReadFile(fileSystem, artifactPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Artifact{}, ArtifactNotFoundError{Path: artifactPath}
		}
		return Artifact{}, fmt.Errorf(artifactReadErrorTemplateConstant, artifactPath, readError)
	}

	var document truffleArtifactDocument
	if decodeError := json.Unmarshal(artifactContents, &document); decodeError != nil {
		return Artifact{}, fmt.Errorf(artifactDecodeErrorTemplateConstant, artifactPath, decodeError)
	}

	var contractABI abi.ABI
	if len(bytes.TrimSpace(document.ABI)) > 0 {
		parsedABI, parseError := abi.JSON(bytes.NewReader(document.ABI))
		if parseError != nil {
			return Artifact{}, fmt.Errorf(artifactABIErrorTemplateConstant, artifactPath, parseError)
		}
		contractABI = parsedABI
	} else {
		embeddedABI, embeddedError := EmbeddedABI()
		if embeddedError != nil {
			return Artifact{}, embeddedError
		}
		contractABI = embeddedABI
	}

	var bytecode []byte
	trimmedBytecode := strings.TrimSpace(document.Bytecode)
	if len(trimmedBytecode) > 0 && trimmedBytecode != "0x" {
		decodedBytecode, bytecodeError := hexutil.Decode(trimmedBytecode)
		if bytecodeError != nil {
			return Artifact{}, fmt.Errorf(artifactBytecodeTemplateConstant, artifactPath, bytecodeError)
		}
		bytecode = decodedBytecode
	}

	return Artifact{ContractABI: contractABI, Bytecode: bytecode}, nil
}
