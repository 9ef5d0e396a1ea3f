package session

import (
	"errors"
	"fmt"
)

// SourceDataError The data source reported that it could not provide the image
type SourceDataError struct {
	Message string
}

func (e *SourceDataError) Error() string {
	return fmt.Sprintf("source data error: %s", e.Message)
}

var (
	ErrNotReady      = errors.New("session is not initialized")
	ErrNotConfigured = errors.New("session has no configured image")
	ErrClosed        = errors.New("session is closed")

	ErrCannotNavigate = errors.New("widget cannot navigate")
)
