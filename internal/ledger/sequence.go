package ledger

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrencyLimit bounds the in-flight indexed reads of a single Collect.
	DefaultConcurrencyLimit = 16
	// DefaultMaximumEntries bounds the count a single Collect accepts from the ledger.
	DefaultMaximumEntries uint64 = 1 << 20
)

// CountFunc reads the number of entries in a ledger collection.
type CountFunc func(executionContext context.Context) (uint64, error)

// FetchFunc reads the entry at one index.
type FetchFunc[T any] func(executionContext context.Context, index uint64) (T, error)

// IndexedSequence enumerates a ledger collection exposed as a count plus per-index reads.
//
// Each Collect reads the count once, fans out one fetch per index, and joins them.
// Results keep ledger order. Any failing fetch fails the whole Collect and no
// partial results are returned. A sequence holds no state between calls and can
// be collected again.
type IndexedSequence[T any] struct {
	count            CountFunc
	fetch            FetchFunc[T]
	concurrencyLimit int
	maximumEntries   uint64
}

// NewIndexedSequence constructs a sequence from a count and a fetch function.
func NewIndexedSequence[T any](count CountFunc, fetch FetchFunc[T]) *IndexedSequence[T] {
	return &IndexedSequence[T]{
		count:            count,
		fetch:            fetch,
		concurrencyLimit: DefaultConcurrencyLimit,
		maximumEntries:   DefaultMaximumEntries,
	}
}

// WithConcurrencyLimit bounds the number of concurrent fetches. Non-positive values remove the bound.
func (sequence *IndexedSequence[T]) WithConcurrencyLimit(limit int) *IndexedSequence[T] {
	sequence.concurrencyLimit = limit
	return sequence
}

// WithMaximumEntries rejects counts above the limit before any entry is read. Zero restores DefaultMaximumEntries.
func (sequence *IndexedSequence[T]) WithMaximumEntries(limit uint64) *IndexedSequence[T] {
	if limit == 0 {
		limit = DefaultMaximumEntries
	}
	sequence.maximumEntries = limit
	return sequence
}

// Collect reads the count and every indexed entry.
func (sequence *IndexedSequence[T]) Collect(executionContext context.Context) ([]T, error) {
	entryCount, countError := sequence.count(executionContext)
	if countError != nil {
		return nil, countError
	}

	if entryCount > sequence.maximumEntries {
		return nil, EnumerationLimitError{Count: entryCount, Limit: sequence.maximumEntries}
	}

	results := make([]T, entryCount)
	if entryCount == 0 {
		return results, nil
	}

	fetchGroup, fetchContext := errgroup.WithContext(executionContext)
	if sequence.concurrencyLimit > 0 {
		fetchGroup.SetLimit(sequence.concurrencyLimit)
	}

	for index := uint64(0); index < entryCount; index++ {
		entryIndex := index
		fetchGroup.Go(func() error {
			entry, fetchError := sequence.fetch(fetchContext, entryIndex)
			if fetchError != nil {
				return IndexedReadError{Index: entryIndex, Cause: fetchError}
			}
			results[entryIndex] = entry
			return nil
		})
	}

	if waitError := fetchGroup.Wait(); waitError != nil {
		return nil, waitError
	}
	return results, nil
}
