package narr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataAccess is wrapped by errors caused by unreadable files and missing
// or malformed variables.
var ErrDataAccess = errors.New("data access")

// LookupError is returned when a requested coordinate value does not exist
// on a dataset axis.
type LookupError struct {
	Axis      string
	Requested string
	Available []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %s not found; available (%d): %s",
		e.Axis, e.Requested, len(e.Available), abbreviate(e.Available, 5))
}

// abbreviate joins vals, keeping only the n first and n last elements of
// long lists.
func abbreviate(vals []string, n int) string {
	if len(vals) == 0 {
		return "none"
	}
	if len(vals) <= 2*n {
		return strings.Join(vals, ", ")
	}
	return strings.Join(vals[:n], ", ") + ", ..., " + strings.Join(vals[len(vals)-n:], ", ")
}

// ShapeMismatchError is returned when a field and the coordinate grid (or
// two fields composed together) have different shapes.
type ShapeMismatchError struct {
	What string
	Want [2]int
	Got  [2]int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s is %dx%d, want %dx%d",
		e.What, e.Got[0], e.Got[1], e.Want[0], e.Want[1])
}
