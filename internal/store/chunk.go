package store

import "strings"

// maxParams stays under SQLite's historical bound-parameter ceiling.
// Queries that expand an IN list are issued once per chunk; row order is
// only meaningful within a chunk.
const maxParams = 900

func chunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = maxParams
	}
	var chunks [][]int64
	for len(ids) > size {
		chunks = append(chunks, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func intArgs(values []int) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
