package deposit

import "errors"

var (
	ErrDepositNotFound        = errors.New("deposit not found")
	ErrFileNotFound           = errors.New("deposit file not found")
	ErrInvalidTransition      = errors.New("transition is not allowed from the current state")
	ErrPermissionDenied       = errors.New("you are not allowed to perform this transition")
	ErrConcurrentModification = errors.New("deposit was modified concurrently, reload and retry")
	ErrEmptyFile              = errors.New("file is empty")
	ErrFileTooLarge           = errors.New("file exceeds maximum allowed size")
	ErrDepositLocked          = errors.New("files can only be changed while the deposit is editable")
)

// PreconditionError reports which transition precondition failed. The
// deposit is left untouched.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition not met: " + e.Reason
}

var (
	ErrNoFiles        = &PreconditionError{Reason: "deposit has no files"}
	ErrNoMetadataFile = &PreconditionError{Reason: "deposit has no metadata file"}
)
