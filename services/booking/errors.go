package booking

import "selftape/utils"

var (
	ErrReaderNotFound  = utils.NewNotFoundError("reader not found")
	ErrBookingNotFound = utils.NewNotFoundError("booking not found")
	ErrSlotTaken       = utils.NewConflictError("this time slot is no longer available")
	ErrPayoutsDisabled = utils.NewValidationError("this reader is not set up to receive payments yet")
	ErrOutsideHours    = utils.NewFieldError("startMin", "requested time is outside the reader's availability")
	ErrTooSoon         = utils.NewFieldError("startMin", "requested time is too soon to book")
	ErrTooFarAhead     = utils.NewFieldError("date", "requested date is beyond the reader's booking window")
)
