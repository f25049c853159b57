package manager

import (
	"wifidm/internal/hal"
	"wifidm/pkg/types"
)

// CreateStaIface creates a STA interface if permitted, evicting or
// downgrading lower-priority interfaces and switching chip mode as needed.
// Returns nil when the request is refused or the HAL fails.
func (m *Manager) CreateStaIface(caps uint64, dl DestroyedListener, h *Handler, ws types.WorkSource, secondaryInternet bool) hal.Iface {
	iface, _ := m.CreateIface(IfaceRequest{
		Type:                 types.IfaceSta,
		RequiredCapabilities: caps,
		Destroyed:            dl,
		Handler:              h,
		WorkSource:           ws,
		SecondaryInternet:    secondaryInternet,
	})
	return iface
}

// CreateApIface creates a single AP interface.
func (m *Manager) CreateApIface(caps uint64, dl DestroyedListener, h *Handler, ws types.WorkSource) hal.Iface {
	iface, _ := m.CreateIface(IfaceRequest{
		Type: types.IfaceAp, RequiredCapabilities: caps, Destroyed: dl, Handler: h, WorkSource: ws,
	})
	return iface
}

// CreateBridgedApIface creates a bridged (dual instance) AP interface.
func (m *Manager) CreateBridgedApIface(caps uint64, dl DestroyedListener, h *Handler, ws types.WorkSource) hal.Iface {
	iface, _ := m.CreateIface(IfaceRequest{
		Type: types.IfaceApBridged, RequiredCapabilities: caps, Destroyed: dl, Handler: h, WorkSource: ws,
	})
	return iface
}

// CreateP2pIface creates a P2P interface.
func (m *Manager) CreateP2pIface(caps uint64, dl DestroyedListener, h *Handler, ws types.WorkSource) hal.Iface {
	iface, _ := m.CreateIface(IfaceRequest{
		Type: types.IfaceP2p, RequiredCapabilities: caps, Destroyed: dl, Handler: h, WorkSource: ws,
	})
	return iface
}

// CreateNanIface creates a NAN (Aware) interface.
func (m *Manager) CreateNanIface(caps uint64, dl DestroyedListener, h *Handler, ws types.WorkSource) hal.Iface {
	iface, _ := m.CreateIface(IfaceRequest{
		Type: types.IfaceNan, RequiredCapabilities: caps, Destroyed: dl, Handler: h, WorkSource: ws,
	})
	return iface
}

// CreateIface is the generic creation entry point.
func (m *Manager) CreateIface(req IfaceRequest) (hal.Iface, error) {
	if req.Destroyed != nil && req.Handler == nil {
		// caller error: nowhere to deliver the destroy callback
		m.log.Error().Str("type", req.Type.String()).
			Msg("createIface: non-nil destroyed listener requires a handler")
		return nil, &RefusedError{Type: req.Type, WorkSource: req.WorkSource}
	}

	// Deferred unlock so a panic below cannot leave the manager wedged.
	var cbs []func()
	defer func() { runDeferred(cbs) }()
	m.mu.Lock()
	defer m.mu.Unlock()
	iface, err := m.createIfaceLocked(req)
	cbs = m.takeDeferredLocked()
	return iface, err
}

func (m *Manager) createIfaceLocked(req IfaceRequest) (hal.Iface, error) {
	// identical request from the same owner: hand back the existing iface
	for _, rec := range m.recordsOfTypeLocked(req.Type) {
		if rec.ws.Equal(req.WorkSource) {
			return rec.iface, nil
		}
	}

	chips := m.allChipInfoLocked(false)
	if chips == nil {
		m.log.Error().Msg("createIface: no chip info found")
		m.stopWifiLocked()
		m.registerHalCallbacks()
		return nil, &StateError{Reason: "no chip info"}
	}
	if !m.validateRegistryLocked(chips) {
		m.log.Error().Msg("createIface: registry out of sync with chip")
		m.stopWifiLocked()
		m.registerHalCallbacks()
		return nil, &StateError{Reason: "registry out of sync"}
	}

	best := m.bestCreationProposalLocked(chips, req)
	if best == nil {
		m.log.Warn().Str("type", req.Type.String()).Str("ws", req.WorkSource.String()).
			Msg("createIface: request refused")
		return nil, &RefusedError{Type: req.Type, WorkSource: req.WorkSource}
	}

	iface := m.executePlanLocked(best, req)
	if iface == nil {
		return nil, &HalError{Op: "createIface"}
	}

	rec := &ifaceRecord{
		chip:              best.chip.chip,
		chipID:            best.chip.chipID,
		iface:             iface,
		name:              iface.Name(),
		typ:               req.Type,
		ws:                req.WorkSource,
		createdAt:         m.clock(),
		secondaryInternet: req.SecondaryInternet,
		listeners:         make(map[DestroyedListener]*destroyedListenerProxy),
	}
	if req.Destroyed != nil {
		rec.listeners[req.Destroyed] = &destroyedListenerProxy{
			listenerProxy: m.newProxy(req.Handler),
			listener:      req.Destroyed,
			ifaceName:     rec.name,
		}
	}
	m.addRecordLocked(rec)
	ifacesCreatedTotal.WithLabelValues(req.Type.String()).Inc()
	m.events.Publish(Event{Name: "iface_created", Iface: rec.name,
		Fields: map[string]any{"type": req.Type.String(), "ws": req.WorkSource.String()}})
	return iface, nil
}

// executePlanLocked performs the admitted plan: removes victims (or all
// interfaces when a mode change is needed), reconfigures the chip mode,
// applies bridged-AP downgrades, and finally creates the new interface.
// Returns nil on any HAL failure; nothing is committed to the registry then.
func (m *Manager) executePlanLocked(p *proposal, req IfaceRequest) hal.Iface {
	if p.modeChangeNeeded() {
		for _, t := range types.CreateTypesByPriority {
			for _, info := range p.chip.ifaces[t] {
				m.removeIfaceInternalLocked(info.rec, false)
			}
		}
		ok := p.chip.chip.ConfigureMode(p.modeID)
		if !m.comboLoadedFromDriver {
			m.refreshStaticChipInfoLocked()
			if ok {
				m.log.Info().Msg("chip concurrency combos confirmed by driver")
				m.comboLoadedFromDriver = true
			}
		}
		if !ok {
			m.log.Error().Int("mode", p.modeID).Msg("executePlan: configureChip failed")
			return nil
		}
		modeSwitchesTotal.Inc()
		m.events.Publish(Event{Name: "mode_switch",
			Fields: map[string]any{"chip": p.chip.chipID, "mode": p.modeID}})
	} else {
		for _, info := range p.toRemove {
			m.removeIfaceInternalLocked(info.rec, false)
		}
		for _, info := range p.toDowngrade {
			if info.createType != types.IfaceApBridged {
				continue
			}
			if !m.downgradeBridgedApLocked(info) {
				m.log.Error().Str("iface", info.name).Msg("executePlan: bridged AP downgrade failed")
				return nil
			}
		}
	}

	var iface hal.Iface
	switch req.Type {
	case types.IfaceSta:
		iface = p.chip.chip.CreateStaIface()
	case types.IfaceAp:
		iface = p.chip.chip.CreateApIface()
	case types.IfaceApBridged:
		iface = p.chip.chip.CreateBridgedApIface()
	case types.IfaceP2p:
		iface = p.chip.chip.CreateP2pIface()
	case types.IfaceNan:
		iface = p.chip.chip.CreateNanIface()
	}

	m.updateRttControllerLocked()

	if iface == nil {
		m.log.Error().Str("type", req.Type.String()).Msg("executePlan: HAL create failed")
		return nil
	}
	return iface
}

// RemoveIface destroys the named interface, always invoking its destroy
// listeners. Returns false for unknown interfaces or HAL removal failure.
func (m *Manager) RemoveIface(iface hal.Iface) bool {
	if iface == nil {
		return false
	}
	return m.RemoveIfaceByName(iface.Type(), iface.Name()) == nil
}

// RemoveIfaceByName is RemoveIface for callers that only hold the name.
func (m *Manager) RemoveIfaceByName(t types.IfaceType, name string) error {
	var cbs []func()
	defer func() { runDeferred(cbs) }()
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.recordLocked(name, t)
	var err error
	if rec == nil {
		m.log.Error().Str("iface", name).Msg("removeIface: unknown interface")
		err = &UnknownIfaceError{Name: name}
	} else if !m.removeIfaceInternalLocked(rec, true) {
		err = &HalError{Op: "removeIface"}
	}
	cbs = m.takeDeferredLocked()
	return err
}

// removeIfaceInternalLocked removes the interface from the chip and the
// registry and queues its destroy listeners. validateRtt refreshes the RTT
// controller afterwards; creation paths skip it because they revalidate once
// the new interface exists.
func (m *Manager) removeIfaceInternalLocked(rec *ifaceRecord, validateRtt bool) bool {
	if rec == nil {
		return false
	}
	var ok bool
	switch rec.typ {
	case types.IfaceSta:
		ok = rec.chip.RemoveStaIface(rec.name)
	case types.IfaceAp, types.IfaceApBridged:
		ok = rec.chip.RemoveApIface(rec.name)
	case types.IfaceP2p:
		ok = rec.chip.RemoveP2pIface(rec.name)
	case types.IfaceNan:
		ok = rec.chip.RemoveNanIface(rec.name)
	}

	m.removeRecordLocked(rec.name, rec.typ)
	m.dispatchDestroyedLocked(rec)
	ifacesDestroyedTotal.WithLabelValues(rec.typ.String()).Inc()
	m.events.Publish(Event{Name: "iface_destroyed", Iface: rec.name,
		Fields: map[string]any{"type": rec.typ.String()}})

	if validateRtt {
		m.updateRttControllerLocked()
	}
	if !ok {
		m.log.Error().Str("iface", rec.name).Str("type", rec.typ.String()).
			Msg("removeIface: HAL removal failed")
	}
	return ok
}

// retypedIface wraps an interface handle whose create type changed in place,
// as happens when a bridged AP is downgraded to a single AP.
type retypedIface struct {
	hal.Iface
	typ types.IfaceType
}

func (r retypedIface) Type() types.IfaceType { return r.typ }

// downgradeBridgedApLocked tears down one instance of a bridged AP, leaving
// a single AP under the same name. The interface survives, so its destroy
// listeners do not fire; its registry record is re-keyed as a single AP.
func (m *Manager) downgradeBridgedApLocked(info *ifaceInfo) bool {
	if m.downgrade == nil || info.rec == nil {
		return false
	}
	instance, ok := m.downgrade(info.name)
	if !ok {
		m.log.Error().Str("iface", info.name).Msg("no downgrade instance for bridged AP")
		return false
	}
	rec := info.rec
	if !rec.chip.RemoveIfaceInstanceFromBridgedApIface(info.name, instance) {
		return false
	}
	m.removeRecordLocked(rec.name, rec.typ)
	rec.typ = types.IfaceAp
	rec.iface = retypedIface{Iface: rec.iface, typ: types.IfaceAp}
	m.addRecordLocked(rec)
	m.events.Publish(Event{Name: "bridged_ap_downgraded", Iface: info.name,
		Fields: map[string]any{"instance": instance}})
	return true
}
