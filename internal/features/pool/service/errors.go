package service

import "errors"

// Ledger rejections. Every one aborts the operation with no state change.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoDepositors        = errors.New("no depositors available for reward")
	ErrVrf                 = errors.New("VRF generation failed: draw cooldown has not elapsed")
	ErrNoRewardToClaim     = errors.New("no reward available to claim")
	ErrYieldVenue          = errors.New("yield venue operation failed")

	ErrPoolNotInitialized = errors.New("pool is not initialized")
	ErrUnauthorized       = errors.New("caller is not the pool admin")
	ErrOwnerMismatch      = errors.New("deposit record belongs to another participant")
	ErrUnknownDepositor   = errors.New("candidate has no deposit record")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrInvalidParticipant = errors.New("participant identity is required")
	ErrTransferFailed     = errors.New("asset transfer failed")
	// ErrUnreconciled means value moved but neither the ledger write nor its
	// compensation went through. The operation needs manual reconciliation.
	ErrUnreconciled = errors.New("transfer completed but the ledger could not record it")
)
