package chat

import "github.com/dmitrijs2005/medchat/internal/common"

// ProcessingError reports a failed model call. The turn that triggered it
// has been discarded.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return common.ErrMessageProcessing.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the sentinel and the provider failure to errors.Is.
func (e *ProcessingError) Unwrap() []error {
	return []error{common.ErrMessageProcessing, e.Err}
}
