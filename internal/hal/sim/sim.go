// Package sim is a software Wi-Fi HAL. It stands in for the vendor binding in
// the daemon and in tests: chips are described by ChipSpec (usually loaded
// from the daemon config), every mutating call is recorded in a call log, and
// failures can be injected per operation.
package sim

import (
	"fmt"
	"sync"

	"wifidm/internal/hal"
	"wifidm/pkg/types"
)

// ChipSpec describes one simulated chip.
type ChipSpec struct {
	ID                int              `json:"id" yaml:"id"`
	Capabilities      uint64           `json:"capabilities" yaml:"capabilities"`
	Modes             []types.ChipMode `json:"modes" yaml:"modes"`
	RadioCombinations [][]int          `json:"radioCombinations" yaml:"radioCombinations"`
	// Modes in which CreateRttController succeeds.
	RttModes []int `json:"rttModes" yaml:"rttModes"`
}

// Wifi is the simulated root HAL service.
type Wifi struct {
	mu      sync.Mutex
	chips   []*Chip
	started bool
	cb      hal.EventCallback
	death   hal.DeathRecipient

	// FailStartTimes makes the next N Start calls return ErrNotAvailable.
	FailStartTimes int
	// FailStartHard makes Start return ErrUnknown.
	FailStartHard bool
}

// New builds a simulated HAL from chip specs.
func New(specs ...ChipSpec) *Wifi {
	w := &Wifi{}
	for _, s := range specs {
		w.chips = append(w.chips, newChip(s))
	}
	return w
}

func (w *Wifi) IsInitializationComplete() bool { return true }

func (w *Wifi) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *Wifi) Start() hal.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailStartHard {
		return hal.StatusErrUnknown
	}
	if w.FailStartTimes > 0 {
		w.FailStartTimes--
		return hal.StatusErrNotAvailable
	}
	w.started = true
	return hal.StatusSuccess
}

func (w *Wifi) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started = false
	for _, c := range w.chips {
		c.reset()
	}
	return true
}

func (w *Wifi) Invalidate() {}

func (w *Wifi) RegisterEventCallback(cb hal.EventCallback) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cb = cb
	return true
}

func (w *Wifi) RegisterDeathRecipient(r hal.DeathRecipient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.death = r
}

func (w *Wifi) ChipIDs() []int {
	ids := make([]int, 0, len(w.chips))
	for _, c := range w.chips {
		ids = append(ids, c.id)
	}
	return ids
}

func (w *Wifi) Chip(chipID int) hal.Chip {
	for _, c := range w.chips {
		if c.id == chipID {
			return c
		}
	}
	return nil
}

// SimChip returns the concrete chip for test instrumentation.
func (w *Wifi) SimChip(chipID int) *Chip {
	for _, c := range w.chips {
		if c.id == chipID {
			return c
		}
	}
	return nil
}

// Die simulates HAL service death: marks the service stopped and notifies the
// registered death recipient.
func (w *Wifi) Die() {
	w.mu.Lock()
	w.started = false
	for _, c := range w.chips {
		c.reset()
	}
	death := w.death
	w.mu.Unlock()
	if death != nil {
		death.OnDeath()
	}
}

// FireFailure delivers an asynchronous OnFailure event.
func (w *Wifi) FireFailure(status hal.Status) {
	w.mu.Lock()
	cb := w.cb
	w.mu.Unlock()
	if cb != nil {
		cb.OnFailure(status)
	}
}

// FireSubsystemRestart delivers an asynchronous subsystem restart event.
func (w *Wifi) FireSubsystemRestart() {
	w.mu.Lock()
	cb := w.cb
	w.mu.Unlock()
	if cb != nil {
		cb.OnSubsystemRestart(hal.StatusSuccess)
	}
}

type simIface struct {
	name string
	typ  types.IfaceType
}

func (i *simIface) Name() string          { return i.name }
func (i *simIface) Type() types.IfaceType { return i.typ }

type rttController struct {
	chip   *Chip
	modeID int
}

func (r *rttController) Validate() bool {
	r.chip.mu.Lock()
	defer r.chip.mu.Unlock()
	return r.chip.modeValid && r.chip.modeID == r.modeID
}

// Chip is one simulated chip.
type Chip struct {
	mu        sync.Mutex
	id        int
	caps      uint64
	modes     []types.ChipMode
	radios    [][]int
	rttModes  []int
	modeID    int
	modeValid bool
	ifaces    map[types.IfaceType][]string
	counters  map[types.IfaceType]int
	calls     []string

	// FailCreate makes creation of the given type return nil.
	FailCreate map[types.IfaceType]bool
	// FailConfigure makes ConfigureMode fail.
	FailConfigure bool
	// FailDowngrade makes bridged-AP instance removal fail.
	FailDowngrade bool
}

func newChip(s ChipSpec) *Chip {
	return &Chip{
		id:         s.ID,
		caps:       s.Capabilities,
		modes:      s.Modes,
		radios:     s.RadioCombinations,
		rttModes:   s.RttModes,
		ifaces:     make(map[types.IfaceType][]string),
		counters:   make(map[types.IfaceType]int),
		FailCreate: make(map[types.IfaceType]bool),
	}
}

func (c *Chip) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modeValid = false
	c.ifaces = make(map[types.IfaceType][]string)
}

func (c *Chip) ID() int { return c.id }

func (c *Chip) Capabilities() uint64 {
	if c.caps == 0 {
		return hal.CapabilityUninitialized
	}
	return c.caps
}

func (c *Chip) AvailableModes() []types.ChipMode { return c.modes }

func (c *Chip) Mode() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeID, c.modeValid
}

func (c *Chip) ConfigureMode(modeID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("configureChip(%d)", modeID)
	if c.FailConfigure {
		return false
	}
	found := false
	for _, m := range c.modes {
		if m.ID == modeID {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	c.modeID = modeID
	c.modeValid = true
	return true
}

var ifacePrefix = map[types.IfaceType]string{
	types.IfaceSta:       "wlan",
	types.IfaceAp:        "ap",
	types.IfaceApBridged: "ap_br_",
	types.IfaceP2p:       "p2p",
	types.IfaceNan:       "aware",
}

func (c *Chip) createIface(t types.IfaceType, call string) hal.Iface {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("%s", call)
	if !c.modeValid || c.FailCreate[t] {
		return nil
	}
	name := fmt.Sprintf("%s%d", ifacePrefix[t], c.counters[t])
	c.counters[t]++
	c.ifaces[t] = append(c.ifaces[t], name)
	return &simIface{name: name, typ: t}
}

func (c *Chip) CreateStaIface() hal.Iface { return c.createIface(types.IfaceSta, "createStaIface") }
func (c *Chip) CreateApIface() hal.Iface  { return c.createIface(types.IfaceAp, "createApIface") }
func (c *Chip) CreateBridgedApIface() hal.Iface {
	return c.createIface(types.IfaceApBridged, "createBridgedApIface")
}
func (c *Chip) CreateP2pIface() hal.Iface { return c.createIface(types.IfaceP2p, "createP2pIface") }
func (c *Chip) CreateNanIface() hal.Iface { return c.createIface(types.IfaceNan, "createNanIface") }

func (c *Chip) removeIface(t types.IfaceType, name, call string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("%s(%s)", call, name)
	names := c.ifaces[t]
	for i, n := range names {
		if n == name {
			c.ifaces[t] = append(names[:i:i], names[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Chip) RemoveStaIface(name string) bool {
	return c.removeIface(types.IfaceSta, name, "removeStaIface")
}

func (c *Chip) RemoveApIface(name string) bool {
	if c.removeIface(types.IfaceAp, name, "removeApIface") {
		return true
	}
	// bridged APs are removed through the AP removal path
	c.mu.Lock()
	defer c.mu.Unlock()
	names := c.ifaces[types.IfaceApBridged]
	for i, n := range names {
		if n == name {
			c.ifaces[types.IfaceApBridged] = append(names[:i:i], names[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Chip) RemoveP2pIface(name string) bool {
	return c.removeIface(types.IfaceP2p, name, "removeP2pIface")
}

func (c *Chip) RemoveNanIface(name string) bool {
	return c.removeIface(types.IfaceNan, name, "removeNanIface")
}

func (c *Chip) RemoveIfaceInstanceFromBridgedApIface(name, instance string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("removeIfaceInstanceFromBridgedApIface(%s,%s)", name, instance)
	if c.FailDowngrade {
		return false
	}
	names := c.ifaces[types.IfaceApBridged]
	for i, n := range names {
		if n == name {
			// downgraded bridged AP becomes a single AP with the same name
			c.ifaces[types.IfaceApBridged] = append(names[:i:i], names[i+1:]...)
			c.ifaces[types.IfaceAp] = append(c.ifaces[types.IfaceAp], name)
			return true
		}
	}
	return false
}

func (c *Chip) ListIfaceNames(t types.IfaceType) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ifaces[t]...)
}

func (c *Chip) CreateRttController() hal.RttController {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("createRttController")
	if !c.modeValid {
		return nil
	}
	for _, m := range c.rttModes {
		if m == c.modeID {
			return &rttController{chip: c, modeID: c.modeID}
		}
	}
	return nil
}

func (c *Chip) SupportedRadioCombinations() [][]int { return c.radios }

func (c *Chip) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

// Calls returns the ordered log of mutating HAL calls.
func (c *Chip) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// ClearCalls resets the call log.
func (c *Chip) ClearCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}
