package skeleton

import (
	"errors"
	"fmt"
)

const maxPreviewRunes = 200

// DecompositionError reports that no skeleton could be obtained for a query.
// It is fatal for the job: no point requests are dispatched after it.
type DecompositionError struct {
	// Raw is the backend output that failed to parse, if any was received.
	Raw string
	// Err is the backend failure when the decomposition request itself failed.
	Err error
}

func (e *DecompositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decomposition failed: %v", e.Err)
	}
	preview := []rune(e.Raw)
	shown := string(preview)
	if len(preview) > maxPreviewRunes {
		shown = string(preview[:maxPreviewRunes]) + "... (truncated)"
	}
	return fmt.Sprintf("decomposition produced no points (got %d chars): %q", len(preview), shown)
}

func (e *DecompositionError) Unwrap() error {
	return e.Err
}

// IsDecompositionError reports whether err is or wraps a *DecompositionError.
func IsDecompositionError(err error) bool {
	var de *DecompositionError
	return errors.As(err, &de)
}
