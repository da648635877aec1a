package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyTicker is returned for a blank ticker before any work is done.
var ErrEmptyTicker = errors.New("ticker symbol is required")

// TransportError wraps a data-source failure (unknown ticker, network error).
type TransportError struct {
	Ticker string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch insider transactions for %s: %v", e.Ticker, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
