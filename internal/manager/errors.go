package manager

import (
	"errors"
	"fmt"

	"wifidm/pkg/types"
)

// RefusedError reports that the priority rules rejected a creation request:
// no chip can host the type without evicting interfaces the requester is not
// allowed to evict.
type RefusedError struct {
	Type       types.IfaceType
	WorkSource types.WorkSource
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("request for %s iface by %s refused", e.Type, e.WorkSource)
}

// IsRefused reports whether err is a RefusedError.
func IsRefused(err error) bool {
	var e *RefusedError
	return errors.As(err, &e)
}

// HalError reports a failed HAL operation.
type HalError struct {
	Op string
}

func (e *HalError) Error() string {
	return fmt.Sprintf("HAL operation %s failed", e.Op)
}

// IsHalError reports whether err is a HalError.
func IsHalError(err error) bool {
	var e *HalError
	return errors.As(err, &e)
}

// UnknownIfaceError reports an operation on an interface the manager does
// not own.
type UnknownIfaceError struct {
	Name string
}

func (e *UnknownIfaceError) Error() string {
	return fmt.Sprintf("unknown interface %q", e.Name)
}

// IsUnknownIface reports whether err is an UnknownIfaceError.
func IsUnknownIface(err error) bool {
	var e *UnknownIfaceError
	return errors.As(err, &e)
}

// StateError reports that the manager's view of the chip diverged and a
// recovery restart was triggered.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return "inconsistent chip state: " + e.Reason
}

// IsStateError reports whether err is a StateError.
func IsStateError(err error) bool {
	var e *StateError
	return errors.As(err, &e)
}
