package manager

import (
	"fmt"
	"time"

	"wifidm/internal/hal"
	"wifidm/pkg/types"
)

// ifaceKey identifies a registry record. Names are unique per type on a
// device, so (name, type) is a sufficient key across chips.
type ifaceKey struct {
	name string
	typ  types.IfaceType
}

// ifaceRecord is one entry of the interface registry: everything the manager
// remembers about an interface it created.
type ifaceRecord struct {
	chip      hal.Chip
	chipID    int
	iface     hal.Iface
	name      string
	typ       types.IfaceType
	ws        types.WorkSource
	createdAt time.Time
	// STA only: secondary-internet role demotes the iface to opportunistic.
	secondaryInternet bool
	listeners         map[DestroyedListener]*destroyedListenerProxy
}

func (r *ifaceRecord) String() string {
	return fmt.Sprintf("{name=%s type=%s chip=%d ws=%s}", r.name, r.typ, r.chipID, r.ws)
}

// ifaceInfo is the live chip-side view of one interface, annotated with the
// registry's ownership data during cache validation.
type ifaceInfo struct {
	name       string
	createType types.IfaceType
	rec        *ifaceRecord
}

func (i *ifaceInfo) String() string {
	return fmt.Sprintf("{name=%s type=%s}", i.name, i.createType)
}

// chipInfo is the per-chip snapshot the planner works on: modes, current
// configuration and the live interface population grouped by create type.
type chipInfo struct {
	chip             hal.Chip
	chipID           int
	caps             uint64
	availableModes   []types.ChipMode
	currentModeValid bool
	currentMode      int
	ifaces           [types.NumIfaceTypes][]*ifaceInfo
	radioCombos      [][]int
	bandCombos       map[string][]int
}

func (c *chipInfo) numIfaces() int {
	n := 0
	for _, l := range c.ifaces {
		n += len(l)
	}
	return n
}

// proposal is one admissible way to host a new interface: the chip and mode
// to use, plus the interfaces that must be removed or downgraded first. When
// the proposal's mode differs from the chip's current mode, toRemove is not
// populated - a mode change removes every interface on the chip.
type proposal struct {
	chip        *chipInfo
	modeID      int
	toRemove    []*ifaceInfo
	toDowngrade []*ifaceInfo
}

func (p *proposal) modeChangeNeeded() bool {
	return !p.chip.currentModeValid || p.chip.currentMode != p.modeID
}

// victims returns the interfaces the proposal would destroy.
func (p *proposal) victims() []*ifaceInfo {
	if p.modeChangeNeeded() {
		var all []*ifaceInfo
		for _, t := range types.CreateTypesByPriority {
			all = append(all, p.chip.ifaces[t]...)
		}
		return all
	}
	return p.toRemove
}

// IfaceRequest carries everything needed to admit and create one interface.
type IfaceRequest struct {
	Type                 types.IfaceType
	RequiredCapabilities uint64
	Destroyed            DestroyedListener
	Handler              *Handler
	WorkSource           types.WorkSource
	// STA role info: secondary internet connections are opportunistic.
	SecondaryInternet bool
	// Internal platform requests from privileged/system callers may evict
	// regardless of victim priority.
	BypassDishonorable bool
}

// Impact names one interface that a proposed creation would destroy.
type Impact struct {
	Type       types.IfaceType
	WorkSource types.WorkSource
}

// DestroyedListener observes the destruction of an interface it was
// registered on, whether via RemoveIface, eviction, mode change or manager
// teardown.
type DestroyedListener interface {
	OnDestroyed(ifaceName string)
}

// StatusListener observes manager start/stop transitions.
type StatusListener interface {
	OnStatusChanged()
}

// SubsystemRestartListener observes HAL subsystem restart events.
type SubsystemRestartListener interface {
	OnSubsystemRestart()
}

// RttControllerLifecycleListener observes the shared RTT controller. A newly
// registered listener receives OnNewRttController immediately when a
// controller already exists.
type RttControllerLifecycleListener interface {
	OnNewRttController(ctrl hal.RttController)
	OnRttControllerDestroyed()
}
