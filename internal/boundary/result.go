package boundary

import (
	"errors"
	"strconv"

	"github.com/ironsheep/image-handle/internal/handle"
)

// Result is the status code returned across the C boundary.
type Result int32

// Result codes. The numeric values are part of the ABI.
const (
	Success           Result = 0
	InvalidPath       Result = 1
	InvalidHandle     Result = 2
	LoadFailed        Result = 3
	SaveFailed        Result = 4
	Allocation        Result = 5
	UnsupportedFormat Result = 6
)

var resultNames = [...]string{
	Success:           "Success",
	InvalidPath:       "InvalidPath",
	InvalidHandle:     "InvalidHandle",
	LoadFailed:        "LoadFailed",
	SaveFailed:        "SaveFailed",
	Allocation:        "Allocation",
	UnsupportedFormat: "UnsupportedFormat",
}

// String returns the code's name, or Result(n) for unknown values.
func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "Result(" + strconv.Itoa(int(r)) + ")"
}

// ResultOf maps an error from the handle package onto a result code.
// nil maps to Success. An error that matches none of the handle sentinels
// maps to fallback.
func ResultOf(err error, fallback Result) Result {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, handle.ErrInvalidPath):
		return InvalidPath
	case errors.Is(err, handle.ErrInvalidHandle):
		return InvalidHandle
	case errors.Is(err, handle.ErrUnsupportedFormat):
		return UnsupportedFormat
	case errors.Is(err, handle.ErrAllocation):
		return Allocation
	case errors.Is(err, handle.ErrLoadFailed):
		return LoadFailed
	case errors.Is(err, handle.ErrSaveFailed):
		return SaveFailed
	default:
		return fallback
	}
}
