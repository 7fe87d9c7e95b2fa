package errprocess

import (
	"errors"
	"fmt"

	"gig_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Set log errMsg at ERROR and return it as an error
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap log errMsg at WARN and return an error matching kind through errors.Is
func Wrap(kind error, errMsg string) error {
	logger.Log.Warn(errMsg, zap.String("kind", kind.Error()))
	return fmt.Errorf("%w: %s", kind, errMsg)
}

// WrapCause is Wrap for failures that carry an underlying cause
func WrapCause(kind error, errMsg string, cause error) error {
	logger.Log.Error(errMsg, zap.String("kind", kind.Error()), zap.Error(cause))
	return fmt.Errorf("%w: %s: %w", kind, errMsg, cause)
}
