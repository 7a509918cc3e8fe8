package ring

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned by New for a capacity below one.
	ErrInvalidCapacity = errors.New("ring: capacity must be positive")

	// ErrTooLargeWrite is returned when a single Write carries more items
	// than the storage can hold. Nothing is written.
	ErrTooLargeWrite = errors.New("ring: write larger than capacity")

	// ErrInvalidReader is returned when a Reader was not created by the
	// storage it is used against.
	ErrInvalidReader = errors.New("ring: reader does not belong to this storage")

	// ErrLostData matches any *LostDataError via errors.Is.
	ErrLostData = errors.New("ring: reader lost data")
)

// LostDataError is returned by Read when the reader fell more than a full
// buffer behind. Salvage holds everything the buffer still had, oldest first,
// and Lost is the number of values that were overwritten before the reader
// could see them.
type LostDataError[T any] struct {
	Salvage []T
	Lost    int
}

func (e *LostDataError[T]) Error() string {
	return fmt.Sprintf("ring: reader lost %d values (%d salvaged)", e.Lost, len(e.Salvage))
}

// Is reports whether target is ErrLostData.
func (e *LostDataError[T]) Is(target error) bool {
	return target == ErrLostData
}

// AsLostData returns the *LostDataError wrapped in err, if any.
func AsLostData[T any](err error) (*LostDataError[T], bool) {
	var lde *LostDataError[T]
	if errors.As(err, &lde) {
		return lde, true
	}
	return nil, false
}
