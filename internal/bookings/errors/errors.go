package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrNotPending = errors.New("booking is not pending")

	ErrDeadlineRecordNotFound = errors.New("payment deadline record not found")

	ErrAlreadyRecorded = errors.New("payment already recorded for booking")
)
