package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	require.EqualError(t, &SessionClosedError{}, "browser session is closed")

	require.EqualError(t,
		&UnknownElementIndexError{Index: 2, Size: 2},
		"element index 2 not in current selector map (2 interactive elements)")

	require.Contains(t,
		(&NoActivePageError{Err: errors.New("boom")}).Error(),
		"no active page: boom")
}

func TestInteractionTimeoutError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("find element: %w", context.DeadlineExceeded)
	err := &InteractionTimeoutError{
		Index:    3,
		Strategy: StrategyPath,
		Selector: "//body[1]/button[1]",
		Err:      cause,
	}

	require.Contains(t, err.Error(), "element 3")
	require.Contains(t, err.Error(), "strategy=path")
	require.Contains(t, err.Error(), `//body[1]/button[1]`)
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	var timeout *InteractionTimeoutError
	wrapped := fmt.Errorf("click failed: %w", err)
	require.True(t, errors.As(wrapped, &timeout))
	require.Equal(t, 3, timeout.Index)
}
