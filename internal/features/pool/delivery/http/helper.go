package http

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"prize-pool-backend/internal/common/errors"
	"prize-pool-backend/internal/common/middleware"
	"prize-pool-backend/internal/features/pool/repository"
	"prize-pool-backend/internal/features/pool/service"
	"prize-pool-backend/internal/platform/custody"
)

var codeBySentinel = []struct {
	err  error
	code errors.ErrorCode
}{
	{service.ErrInvalidAmount, errors.ErrCodeInvalidAmount},
	{service.ErrInvalidParticipant, errors.ErrCodeValidation},
	{service.ErrInsufficientBalance, errors.ErrCodeInsufficientBalance},
	{service.ErrNoDepositors, errors.ErrCodeNoDepositors},
	{service.ErrVrf, errors.ErrCodeVrf},
	{service.ErrNoRewardToClaim, errors.ErrCodeNoRewardToClaim},
	{service.ErrYieldVenue, errors.ErrCodeYieldVenue},
	{service.ErrTransferFailed, errors.ErrCodeTransferFailed},
	{service.ErrPoolNotInitialized, errors.ErrCodePoolNotInitialized},
	{service.ErrUnauthorized, errors.ErrCodeForbidden},
	{service.ErrOwnerMismatch, errors.ErrCodeOwnerMismatch},
	{service.ErrUnknownDepositor, errors.ErrCodeUnknownDepositor},
	{service.ErrArithmeticOverflow, errors.ErrCodeArithmeticOverflow},
	{repository.ErrAlreadyLocked, errors.ErrCodeLocked},
	{custody.ErrInsufficientFunds, errors.ErrCodeInsufficientBalance},
	{custody.ErrInvalidAccount, errors.ErrCodeValidation},
	{custody.ErrAmountTooLarge, errors.ErrCodeArithmeticOverflow},
}

// toAppError maps service and storage errors onto API error codes.
// Anything unrecognised is reported as a storage failure.
func toAppError(err error) *errors.AppError {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	for _, m := range codeBySentinel {
		if stderrors.Is(err, m.err) {
			return errors.Wrap(err, m.code, err.Error())
		}
	}
	return errors.NewStorageError("pool", err)
}

func respondError(c *gin.Context, err error) {
	middleware.RespondError(c, toAppError(err))
}

func respondValidation(c *gin.Context, field string, err error) {
	middleware.RespondError(c, errors.NewValidationError(field, err.Error()))
}
