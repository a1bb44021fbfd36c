package deperr

import (
	"errors"
	"fmt"
)

type DepotErrorType int

const (
	NO_BRANCH DepotErrorType = 1
	NO_COMMIT DepotErrorType = 2
	NOT_FOUND DepotErrorType = 3
	FETCH_FAILURE DepotErrorType = 4
	NO_FILE DepotErrorType = 5
	// the navigation that produced the result has been superseded.
	STALE DepotErrorType = 6
	TYPE_MISMATCH DepotErrorType = 7
	STORE_NOT_SUPPORTED DepotErrorType = 8
)

func (t DepotErrorType) String() string {
	switch t {
	case NO_BRANCH: return "NO_BRANCH"
	case NO_COMMIT: return "NO_COMMIT"
	case NOT_FOUND: return "NOT_FOUND"
	case FETCH_FAILURE: return "FETCH_FAILURE"
	case NO_FILE: return "NO_FILE"
	case STALE: return "STALE"
	case TYPE_MISMATCH: return "TYPE_MISMATCH"
	case STORE_NOT_SUPPORTED: return "STORE_NOT_SUPPORTED"
	}
	return "UNKNOWN_ERROR"
}

type DepotError struct {
	ErrorType DepotErrorType
	ErrorMsg string
	Err error
}

func (e *DepotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.ErrorType, e.ErrorMsg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.ErrorType, e.ErrorMsg)
}

func (e *DepotError) Unwrap() error { return e.Err }

func NewDepotError(t DepotErrorType, msg string) *DepotError {
	return &DepotError{
		ErrorType: t,
		ErrorMsg: msg,
	}
}

func WrapDepotError(t DepotErrorType, err error, msg string) *DepotError {
	return &DepotError{
		ErrorType: t,
		ErrorMsg: msg,
		Err: err,
	}
}

func IsDepotError(e error) bool {
	var de *DepotError
	return errors.As(e, &de)
}

// returns the type of the outermost DepotError in the chain, or 0.
func TypeOf(e error) DepotErrorType {
	var de *DepotError
	if !errors.As(e, &de) { return 0 }
	return de.ErrorType
}

func Is(e error, t DepotErrorType) bool {
	return TypeOf(e) == t
}
