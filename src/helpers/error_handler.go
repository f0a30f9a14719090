package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"trader-gateway/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type GatewayError struct {
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ GatewayError }
type TransportError struct{ GatewayError }
type ProtocolError struct{ GatewayError }
type TimeoutError struct{ GatewayError }
type DatabaseError struct{ GatewayError }
type ValidationError struct{ GatewayError }

func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{GatewayError{Message: message, Cause: cause}}
}

func NewProtocolError(message string) *ProtocolError {
	return &ProtocolError{GatewayError{Message: message}}
}

func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{GatewayError{Message: message}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{GatewayError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{GatewayError{Message: message, Cause: cause}}
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{GatewayError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Connection errors
// -----------------------------------------------------------------------------

// IsConnectionError reports errors that mean the socket is gone.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return true
	}
	var transport *TransportError
	return errors.As(err, &transport)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries times, doubling the delay after
// every failure. It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("action: %s | result: retry | attempt: %d/%d | error: %v | delay: %v", operation, attempt+1, maxRetries, err, delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs non fatal errors and keeps a running error count.
type ErrorHandler struct {
	Logger *logger.Logger

	mu         sync.Mutex
	errorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errorCount
}

func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.errorCount = 0
	e.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Handle logs err with its context. Database errors are logged as warnings.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.errorCount++
	e.mu.Unlock()

	var dbErr *DatabaseError
	if errors.As(err, &dbErr) || strings.Contains(strings.ToLower(context), "database") {
		e.Logger.Warning("Error in %s: %v", context, err)
		return
	}
	e.Logger.Error("Error in %s: %v", context, err)
}
