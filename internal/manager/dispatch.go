package manager

// listenerProxy pairs a listener with the handler its callbacks must run on.
// A nil handler means the listener is invoked inline on the dispatching
// goroutine.
type listenerProxy struct {
	handler *Handler
	wait    bool
}

func (m *Manager) newProxy(h *Handler) listenerProxy {
	return listenerProxy{handler: h, wait: m.waitForDestroyedListeners}
}

// trigger runs fn on the proxy's handler. With wait set the call blocks
// until the listener returns, otherwise it is posted and forgotten. Must be
// called without the manager lock held.
func (p listenerProxy) trigger(fn func()) {
	if p.handler == nil {
		fn()
		return
	}
	if p.wait {
		p.handler.Call(fn)
		return
	}
	p.handler.Post(fn)
}

type destroyedListenerProxy struct {
	listenerProxy
	listener  DestroyedListener
	ifaceName string
}

func (p *destroyedListenerProxy) action() func() {
	l, name := p.listener, p.ifaceName
	return func() { l.OnDestroyed(name) }
}

type statusListenerProxy struct {
	listenerProxy
	listener StatusListener
}

type restartListenerProxy struct {
	listenerProxy
	listener SubsystemRestartListener
}

type rttListenerProxy struct {
	listenerProxy
	listener RttControllerLifecycleListener
}

// takeDeferredLocked drains the callbacks queued during the locked section.
// Callers run them via runDeferred after releasing the manager lock so a
// listener can call back into the manager without deadlocking.
func (m *Manager) takeDeferredLocked() []func() {
	cbs := m.deferred
	m.deferred = nil
	return cbs
}

func runDeferred(cbs []func()) {
	for _, fn := range cbs {
		fn()
	}
}

// dispatchDestroyedLocked queues every destroy listener of rec exactly once.
// The record has already been dropped from the registry, so a listener that
// re-registers or re-creates during the callback sees consistent state.
func (m *Manager) dispatchDestroyedLocked(rec *ifaceRecord) {
	for _, proxy := range rec.listeners {
		p := proxy
		fn := p.action()
		m.deferred = append(m.deferred, func() { p.trigger(fn) })
	}
	rec.listeners = make(map[DestroyedListener]*destroyedListenerProxy)
}

// dispatchAllDestroyedLocked empties the registry and queues every destroy
// listener. Used on HAL stop and on death of the HAL process.
func (m *Manager) dispatchAllDestroyedLocked() {
	for _, rec := range m.registry {
		m.dispatchDestroyedLocked(rec)
	}
	m.registry = make(map[ifaceKey]*ifaceRecord)
}

func (m *Manager) dispatchStatusChangedLocked() {
	for _, proxy := range m.statusListeners {
		p := proxy
		m.deferred = append(m.deferred, func() {
			p.trigger(func() { p.listener.OnStatusChanged() })
		})
	}
}

func (m *Manager) dispatchSubsystemRestartLocked() {
	for _, proxy := range m.restartListeners {
		p := proxy
		m.deferred = append(m.deferred, func() {
			p.trigger(func() { p.listener.OnSubsystemRestart() })
		})
	}
}
