package voices

import (
	"context"
	"errors"
	"net"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrServiceUnavailable = errors.New("voice provider not configured")
	ErrPayloadTooLarge    = errors.New("audio file too large")
	ErrNotReady           = errors.New("voice profile not ready")
	ErrTimeout            = errors.New("voice provider timed out")
	ErrDownload           = errors.New("failed to download audio")
	ErrAdapter            = errors.New("video search failed")
)

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
