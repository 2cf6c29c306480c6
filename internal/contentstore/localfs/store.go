// Package localfs keeps issue bodies in a local directory addressed by BLAKE3 hashes.
//
// Objects live under <root>/<hash[0:2]>/<hash[2:4]>/<hash>. Objects are
// written once and verified against their hash on every read.
package localfs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"lukechampine.com/blake3"

	"github.com/temirov/mango/internal/contentstore"
)

const (
	hashByteLengthConstant             = 32
	fanOutSegmentLengthConstant        = 2
	objectDirectoryPermissionsConstant = 0o755
	objectFilePermissionsConstant      = 0o444
	storeDescriptionTemplateConstant   = "localfs(%s)"
	objectWriteErrorTemplateConstant   = "unable to write object %s: %w"
	directoryErrorTemplateConstant     = "unable to create object directory %s: %w"
	invalidHashTemplateConstant        = "invalid content hash %q"
	corruptObjectTemplateConstant      = "object %s is corrupt: stored content hashes to %s"
	logMessageStoredConstant           = "content stored"
	logMessageAlreadyStoredConstant    = "content already stored"
	logFieldHashConstant               = "hash"
	logFieldPathConstant               = "path"
)

// InvalidHashError reports a hash that is not a BLAKE3-256 hex digest.
type InvalidHashError struct {
	Hash string
}

// Error describes the malformed hash.
func (hashError InvalidHashError) Error() string {
	return fmt.Sprintf(invalidHashTemplateConstant, hashError.Hash)
}

// CorruptObjectError reports an object whose content no longer matches its address.
type CorruptObjectError struct {
	Hash       string
	ActualHash string
}

// Error describes the corruption.
func (corruptError CorruptObjectError) Error() string {
	return fmt.Sprintf(corruptObjectTemplateConstant, corruptError.Hash, corruptError.ActualHash)
}

// Store implements contentstore.Store on an afero filesystem.
type Store struct {
	fileSystem afero.Fs
	root       string
	logger     *zap.Logger
}

// New constructs a Store rooted at the provided directory.
func New(fileSystem afero.Fs, root string, logger *zap.Logger) *Store {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{fileSystem: fileSystem, root: filepath.Clean(root), logger: logger}
}

// String describes the store.
func (store *Store) String() string {
	return fmt.Sprintf(storeDescriptionTemplateConstant, store.root)
}

// Put stores the content under its BLAKE3 hash. Existing objects are left untouched.
func (store *Store) Put(executionContext context.Context, content []byte) (string, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return "", contextError
	}

	contentHash := hashContent(content)
	objectPath := store.objectPath(contentHash)

	exists, existsError := afero.Exists(store.fileSystem, objectPath)
	if existsError != nil {
		return "", fmt.Errorf(objectWriteErrorTemplateConstant, contentHash, existsError)
	}
	if exists {
		store.logger.Debug(logMessageAlreadyStoredConstant, zap.String(logFieldHashConstant, contentHash))
		return contentHash, nil
	}

	objectDirectory := filepath.Dir(objectPath)
	if mkdirError := store.fileSystem.MkdirAll(objectDirectory, objectDirectoryPermissionsConstant); mkdirError != nil {
		return "", fmt.Errorf(directoryErrorTemplateConstant, objectDirectory, mkdirError)
	}

	if writeError := afero.WriteFile(store.fileSystem, objectPath, content, objectFilePermissionsConstant); writeError != nil {
		return "", fmt.Errorf(objectWriteErrorTemplateConstant, contentHash, writeError)
	}

	store.logger.Debug(logMessageStoredConstant, zap.String(logFieldHashConstant, contentHash), zap.String(logFieldPathConstant, objectPath))
	return contentHash, nil
}

// Get returns the content stored under the hash after verifying its integrity.
func (store *Store) Get(executionContext context.Context, contentHash string) ([]byte, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}

	normalizedHash := strings.ToLower(strings.TrimSpace(contentHash))
	if len(normalizedHash) == 0 {
		return nil, contentstore.ErrEmptyHash
	}
	if !isValidHash(normalizedHash) {
		return nil, contentstore.ContentUnavailableError{Hash: contentHash, Cause: InvalidHashError{Hash: contentHash}}
	}

	content, readError := afero.ReadFile(store.fileSystem, store.objectPath(normalizedHash))
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, contentstore.ContentUnavailableError{Hash: normalizedHash, Cause: fs.ErrNotExist}
		}
		return nil, contentstore.ContentUnavailableError{Hash: normalizedHash, Cause: readError}
	}

	if actualHash := hashContent(content); actualHash != normalizedHash {
		return nil, contentstore.ContentUnavailableError{Hash: normalizedHash, Cause: CorruptObjectError{Hash: normalizedHash, ActualHash: actualHash}}
	}
	return content, nil
}

func (store *Store) objectPath(contentHash string) string {
	return filepath.Join(
		store.root,
		contentHash[:fanOutSegmentLengthConstant],
		contentHash[fanOutSegmentLengthConstant:2*fanOutSegmentLengthConstant],
		contentHash,
	)
}

func hashContent(content []byte) string {
	digest := blake3.Sum256(content)
	return hex.EncodeToString(digest[:])
}

func isValidHash(candidate string) bool {
	decoded, decodeError := hex.DecodeString(candidate)
	return decodeError == nil && len(decoded) == hashByteLengthConstant
}
