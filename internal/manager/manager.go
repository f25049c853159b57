package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wifidm/internal/chipstore"
	"wifidm/internal/hal"
	"wifidm/internal/priority"
	"wifidm/pkg/types"
)

// Manager owns all mutable chip/interface state: the interface registry, the
// per-chip mode bookkeeping, and the listener sets. It is constructed with
// injected collaborators (HAL, clock, priority resolver, chip-info store) and
// has an explicit Start/Stop lifecycle.
type Manager struct {
	mu sync.Mutex

	hal       hal.Wifi
	store     chipstore.Store
	resolver  priority.Resolver
	clock     func() time.Time
	log       zerolog.Logger
	events    EventPublisher
	downgrade BridgedApDowngradeFn

	waitForDestroyedListeners bool
	p2pIdleTimeout            time.Duration
	startRetryTimes           int
	startRetryInterval        time.Duration

	// eventHandler serializes HAL event processing.
	eventHandler *Handler

	registry map[ifaceKey]*ifaceRecord

	statusListeners  map[StatusListener]*statusListenerProxy
	restartListeners map[SubsystemRestartListener]*restartListenerProxy
	rttListeners     map[RttControllerLifecycleListener]*rttListenerProxy
	rttController    hal.RttController

	p2pConnected bool

	// per-chip cache of supported band combinations (sorted band lists).
	bandCombosByChip map[int]map[string][]int

	// staticChipInfos caches the store contents; comboLoadedFromDriver flips
	// once a forced driver read confirmed them.
	staticChipInfos       []types.StaticChipInfo
	comboLoadedFromDriver bool

	// deferred holds listener callbacks queued while the lock is held; the
	// public entry points drain it after unlocking.
	deferred []func()

	initialized bool
}

// Initialize loads the persisted static chip info and registers the HAL
// event callback and death recipient. It must be called once before Start.
func (m *Manager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return
	}
	infos, err := m.store.Load()
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load static chip info")
	}
	m.staticChipInfos = infos
	m.registerHalCallbacks()
	m.initialized = true
}

// IsReady reports whether the HAL service is available.
func (m *Manager) IsReady() bool {
	return m.hal.IsInitializationComplete()
}

// IsStarted reports whether Wi-Fi is currently started.
func (m *Manager) IsStarted() bool {
	return m.hal.IsStarted()
}

// Start attempts to start Wi-Fi, retrying a bounded number of times when the
// HAL reports it is (transiently) not available. Fires status listeners on
// success.
func (m *Manager) Start() bool {
	var cbs []func()
	defer func() { runDeferred(cbs) }()
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.startWifiLocked()
	cbs = m.takeDeferredLocked()
	return ok
}

// Stop stops Wi-Fi, destroying all interfaces and notifying their listeners,
// then fires status listeners.
func (m *Manager) Stop() {
	var cbs []func()
	defer func() { runDeferred(cbs) }()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopWifiLocked()
	m.hal.Invalidate()
	cbs = m.takeDeferredLocked()
}

// RegisterStatusListener adds a status listener; re-registering the same
// listener is a no-op.
func (m *Manager) RegisterStatusListener(l StatusListener, h *Handler) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.statusListeners[l]; ok {
		m.log.Warn().Msg("registerStatusListener: duplicate registration ignored")
		return
	}
	m.statusListeners[l] = &statusListenerProxy{listenerProxy: m.newProxy(h), listener: l}
}

// RegisterSubsystemRestartListener adds a restart listener (deduplicated).
func (m *Manager) RegisterSubsystemRestartListener(l SubsystemRestartListener, h *Handler) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.restartListeners[l]; ok {
		m.log.Warn().Msg("registerSubsystemRestartListener: duplicate registration ignored")
		return
	}
	m.restartListeners[l] = &restartListenerProxy{listenerProxy: m.newProxy(h), listener: l}
}

// SetP2pConnected records the global P2P connection state, which gates the
// disconnected-P2P opportunistic downgrade.
func (m *Manager) SetP2pConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p2pConnected = connected
}

// EventHandler exposes the manager's serial event handler, usable as a
// listener dispatch target.
func (m *Manager) EventHandler() *Handler { return m.eventHandler }

// Close stops the event handler. The manager is unusable afterwards.
func (m *Manager) Close() {
	m.eventHandler.Stop()
}

// Status assembles a read-only snapshot for the HTTP surface.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := types.StatusResponse{
		Started: m.hal.IsStarted(),
		Ready:   m.hal.IsInitializationComplete(),
	}
	for _, chipID := range m.hal.ChipIDs() {
		chip := m.hal.Chip(chipID)
		if chip == nil {
			continue
		}
		modeID, valid := chip.Mode()
		n := 0
		for _, rec := range m.registry {
			if rec.chipID == chipID {
				n++
			}
		}
		resp.Chips = append(resp.Chips, types.ChipStatus{
			ChipID:      chipID,
			ModeID:      modeID,
			ModeIDValid: valid,
			NumIfaces:   n,
		})
	}
	resp.Ifaces = m.listIfacesLocked()
	return resp
}

// ListIfaces returns a view of the registry.
func (m *Manager) ListIfaces() []types.IfaceView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listIfacesLocked()
}
