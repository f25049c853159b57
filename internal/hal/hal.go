// Package hal defines the narrow interfaces through which the device manager
// talks to the Wi-Fi hardware abstraction layer. The real RPC binding lives
// outside this repo; internal/hal/sim provides a software implementation used
// by the daemon and by tests.
//
// Version negotiation is the binding's problem: implementations present a
// single capability-resolved surface, and the manager never branches on HAL
// versions.
package hal

import "wifidm/pkg/types"

// Start status codes. Only ErrNotAvailable is retryable.
type Status int

const (
	StatusSuccess Status = iota
	StatusErrNotAvailable
	StatusErrUnknown
)

// CapabilityAny matches any chip; CapabilityUninitialized marks a chip whose
// capability mask could not be read yet (treated as matching everything).
const (
	CapabilityAny           uint64 = 0
	CapabilityUninitialized uint64 = ^uint64(0)
)

// EventCallback receives asynchronous HAL events. Implementations are invoked
// from the binding's own goroutine and must hand off to their own executor.
type EventCallback interface {
	OnStart()
	OnStop()
	// OnFailure reports a fatal HAL error; the manager treats it as death.
	OnFailure(status Status)
	OnSubsystemRestart(status Status)
}

// DeathRecipient is notified when the HAL service itself dies.
type DeathRecipient interface {
	OnDeath()
}

// Wifi is the root HAL service.
type Wifi interface {
	IsInitializationComplete() bool
	IsStarted() bool
	Start() Status
	Stop() bool
	// Invalidate drops the binding; a fresh Start re-acquires it.
	Invalidate()
	RegisterEventCallback(cb EventCallback) bool
	RegisterDeathRecipient(r DeathRecipient)
	ChipIDs() []int
	Chip(chipID int) Chip
}

// Iface is an opaque handle to a created interface.
type Iface interface {
	Name() string
	Type() types.IfaceType
}

// RttController is an opaque handle to the chip's RTT (ranging) controller.
// Validate reports whether the controller is still bound to a live chip mode.
type RttController interface {
	Validate() bool
}

// Chip is a single Wi-Fi chip. Create methods return nil on failure; Remove
// methods report success. ListIfaceNames reflects the chip's live view and is
// used to detect desync with the manager's registry.
type Chip interface {
	ID() int
	Capabilities() uint64
	AvailableModes() []types.ChipMode
	Mode() (modeID int, valid bool)
	ConfigureMode(modeID int) bool

	CreateStaIface() Iface
	CreateApIface() Iface
	CreateBridgedApIface() Iface
	CreateP2pIface() Iface
	CreateNanIface() Iface

	RemoveStaIface(name string) bool
	RemoveApIface(name string) bool
	RemoveP2pIface(name string) bool
	RemoveNanIface(name string) bool

	// RemoveIfaceInstanceFromBridgedApIface downgrades a bridged AP by tearing
	// down one of its two instances, leaving a single AP.
	RemoveIfaceInstanceFromBridgedApIface(name, instance string) bool

	ListIfaceNames(t types.IfaceType) []string

	CreateRttController() RttController

	// SupportedRadioCombinations lists the sets of bands the chip's radios can
	// operate on simultaneously. Nil when the chip does not report them.
	SupportedRadioCombinations() [][]int
}
