// Package chunker splits work lists into fixed-size batches.
package chunker

import "github.com/pricofy/catalog-translator/internal/domain"

// Chunk splits items into contiguous chunks of exactly size elements; the
// last chunk may be smaller. Order is preserved and no element is copied
// twice. A non-positive size falls back to domain.DefaultBatchSize.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}

	if size <= 0 {
		size = domain.DefaultBatchSize
	}

	chunks := make([][]T, 0, Count(len(items), size))
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		// Cap the slice so appends on one chunk never spill into the next.
		chunks = append(chunks, items[start:end:end])
	}

	return chunks
}

// Count returns how many chunks Chunk would produce for n items.
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	return (n + size - 1) / size
}
