package query

import "errors"

// ErrNoRetrievalService indicates that no retrieval service was provided.
var ErrNoRetrievalService = errors.New("retrieval service is required")
