package browser

import "fmt"

// NoActivePageError means no page could be obtained or created.
type NoActivePageError struct {
	Err error
}

func (e *NoActivePageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no active page: %v", e.Err)
	}
	return "no active page"
}

func (e *NoActivePageError) Unwrap() error { return e.Err }

// SessionClosedError is returned by every operation attempted after Close.
type SessionClosedError struct{}

func (e *SessionClosedError) Error() string { return "browser session is closed" }

// UnknownElementIndexError means the requested index is not present in the
// current selector map. Stale indices from a previous page state fail with
// this error instead of acting on an unrelated element.
type UnknownElementIndexError struct {
	Index int
	Size  int
}

func (e *UnknownElementIndexError) Error() string {
	return fmt.Sprintf("element index %d not in current selector map (%d interactive elements)", e.Index, e.Size)
}

// InteractionTimeoutError means the chosen selector strategy failed to locate
// or act on the element within the interaction timeout. There is no further
// fallback; the failure names the strategy and selector that were tried.
type InteractionTimeoutError struct {
	Index    int
	Strategy Strategy
	Selector string
	Err      error
}

func (e *InteractionTimeoutError) Error() string {
	return fmt.Sprintf("interaction with element %d failed (strategy=%s selector=%q): %v",
		e.Index, e.Strategy, e.Selector, e.Err)
}

func (e *InteractionTimeoutError) Unwrap() error { return e.Err }
