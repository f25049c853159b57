package manager

import (
	"wifidm/internal/hal"
)

// RegisterRttControllerLifecycleCallback subscribes to the shared RTT
// controller. The listener receives OnNewRttController right away when a
// controller exists or can be created now.
func (m *Manager) RegisterRttControllerLifecycleCallback(l RttControllerLifecycleListener, h *Handler) {
	if l == nil {
		return
	}
	m.mu.Lock()
	if _, ok := m.rttListeners[l]; ok {
		m.log.Warn().Msg("registerRttControllerLifecycleCallback: duplicate registration ignored")
		m.mu.Unlock()
		return
	}
	proxy := &rttListenerProxy{listenerProxy: m.newProxy(h), listener: l}
	m.rttListeners[l] = proxy

	if m.rttController == nil {
		m.rttController = m.createRttControllerLocked()
	}
	if ctrl := m.rttController; ctrl != nil {
		m.deferred = append(m.deferred, func() {
			proxy.trigger(func() { proxy.listener.OnNewRttController(ctrl) })
		})
	}
	cbs := m.takeDeferredLocked()
	m.mu.Unlock()
	runDeferred(cbs)
}

// updateRttControllerLocked revalidates the shared controller after the
// interface population changed. A controller bound to a stale chip mode is
// torn down and, if any subscriber remains, replaced.
func (m *Manager) updateRttControllerLocked() {
	if m.rttController != nil && m.rttController.Validate() {
		return
	}
	if m.rttController != nil {
		m.rttController = nil
		m.dispatchRttDestroyedLocked()
	}
	if len(m.rttListeners) == 0 {
		return
	}
	if ctrl := m.createRttControllerLocked(); ctrl != nil {
		m.rttController = ctrl
		m.dispatchRttNewLocked(ctrl)
	}
}

// createRttControllerLocked asks each chip in turn for an RTT controller.
func (m *Manager) createRttControllerLocked() hal.RttController {
	if !m.hal.IsStarted() {
		return nil
	}
	for _, chipID := range m.hal.ChipIDs() {
		chip := m.hal.Chip(chipID)
		if chip == nil {
			continue
		}
		if ctrl := chip.CreateRttController(); ctrl != nil {
			m.log.Debug().Int("chip", chipID).Msg("created RTT controller")
			return ctrl
		}
	}
	m.log.Debug().Msg("no chip could create an RTT controller")
	return nil
}

func (m *Manager) dispatchRttNewLocked(ctrl hal.RttController) {
	for _, proxy := range m.rttListeners {
		p := proxy
		m.deferred = append(m.deferred, func() {
			p.trigger(func() { p.listener.OnNewRttController(ctrl) })
		})
	}
}

func (m *Manager) dispatchRttDestroyedLocked() {
	for _, proxy := range m.rttListeners {
		p := proxy
		m.deferred = append(m.deferred, func() {
			p.trigger(func() { p.listener.OnRttControllerDestroyed() })
		})
	}
}
