package examrag

import "fmt"

// EmbeddingError reports a failure of the embedding provider: unreachable
// service, bad credentials, or malformed output. The retriever converts it
// into an empty result rather than propagating it.
type EmbeddingError struct {
	Op  string // operation that failed, e.g. "openai embed"
	Err error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("embedding: %s", e.Op)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// SearchError reports a failure of the vector-search backend. Like
// EmbeddingError it is absorbed at the retriever boundary.
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vector search: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vector search: %s", e.Op)
}

func (e *SearchError) Unwrap() error { return e.Err }
