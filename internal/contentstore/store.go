// Package contentstore defines the content-addressed blob store issue bodies live in.
//
// Blobs are write-once and read-many: Get(Put(x)) returns x. Backends live in
// the swarm (HTTP gateway) and localfs (offline afero directory) subpackages.
package contentstore

import (
	"context"
	"errors"
	"fmt"
)

const (
	contentUnavailableTemplateConstant          = "content %s is unavailable"
	contentUnavailableWithCauseTemplateConstant = "content %s is unavailable: %s"
	emptyContentHashMessageConstant             = "content hash must not be empty"
)

// ErrEmptyHash indicates a lookup with a blank content hash.
var ErrEmptyHash = errors.New(emptyContentHashMessageConstant)

// Store puts and gets opaque blobs by content hash.
type Store interface {
	Put(executionContext context.Context, content []byte) (string, error)
	Get(executionContext context.Context, contentHash string) ([]byte, error)
	String() string
}

// ContentUnavailableError reports that the store could not locate or deliver a blob.
type ContentUnavailableError struct {
	Hash  string
	Cause error
}

// Error describes the unavailable blob.
func (unavailableError ContentUnavailableError) Error() string {
	if unavailableError.Cause == nil {
		return fmt.Sprintf(contentUnavailableTemplateConstant, unavailableError.Hash)
	}
	return fmt.Sprintf(contentUnavailableWithCauseTemplateConstant, unavailableError.Hash, unavailableError.Cause)
}

// Unwrap exposes the underlying cause.
func (unavailableError ContentUnavailableError) Unwrap() error {
	return unavailableError.Cause
}
