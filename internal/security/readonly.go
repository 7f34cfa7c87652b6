// Package security provides read-only mode, an order audit trail and
// credential masking.
package security

import (
	"context"
	"fmt"
	"sync"

	apperrors "contextcraft/internal/errors"
)

// OperationType represents the type of operation.
type OperationType string

const (
	OpRead OperationType = "READ"

	// Blocked in read-only mode.
	OpPlaceOrder OperationType = "PLACE_ORDER"
)

// ReadOnlyError is returned when a write operation is attempted in read-only mode.
type ReadOnlyError struct {
	Operation OperationType
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("operation %s blocked: read-only mode is enabled", e.Operation)
}

// Kind classifies the error for result envelopes.
func (e *ReadOnlyError) Kind() apperrors.Kind {
	return apperrors.KindOperationBlocked
}

func (e *ReadOnlyError) Unwrap() error {
	return apperrors.ErrReadOnlyMode
}

// AccessController manages read-only mode and operation permissions.
type AccessController struct {
	readOnly    bool
	auditLogger *AuditLogger
	mu          sync.RWMutex
}

// NewAccessController creates a new access controller. auditLogger may be nil.
func NewAccessController(readOnly bool, auditLogger *AuditLogger) *AccessController {
	return &AccessController{
		readOnly:    readOnly,
		auditLogger: auditLogger,
	}
}

// IsReadOnly returns whether read-only mode is enabled.
func (ac *AccessController) IsReadOnly() bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.readOnly
}

// CheckPermission checks if an operation is allowed. A nil controller allows
// everything.
func (ac *AccessController) CheckPermission(ctx context.Context, op OperationType) error {
	if ac == nil {
		return nil
	}

	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.readOnly || !isWriteOperation(op) {
		return nil
	}

	if ac.auditLogger != nil {
		_ = ac.auditLogger.LogReadOnlyViolation(ctx, string(op))
	}
	return &ReadOnlyError{Operation: op}
}

func isWriteOperation(op OperationType) bool {
	switch op {
	case OpPlaceOrder:
		return true
	default:
		return false
	}
}
