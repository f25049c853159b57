package manager

import (
	"time"

	"wifidm/internal/hal"
)

// startWifiLocked starts the HAL, retrying a bounded number of times when it
// reports not-available. Retries are spaced by the configured interval.
func (m *Manager) startWifiLocked() bool {
	if m.hal.IsStarted() {
		return true
	}
	for attempt := 0; attempt < m.startRetryTimes; attempt++ {
		status := m.hal.Start()
		switch status {
		case hal.StatusSuccess:
			m.log.Info().Msg("wifi started")
			m.events.Publish(Event{Name: "wifi_started"})
			m.dispatchStatusChangedLocked()
			return true
		case hal.StatusErrNotAvailable:
			m.log.Warn().Int("attempt", attempt+1).Msg("wifi start: HAL not available, retrying")
			time.Sleep(m.startRetryInterval)
		default:
			m.log.Error().Int("status", int(status)).Msg("wifi start failed")
			return false
		}
	}
	m.log.Error().Int("attempts", m.startRetryTimes).Msg("wifi start: HAL kept reporting not available")
	return false
}

// stopWifiLocked stops the HAL and tears down all interface state. Destroy
// listeners of every live interface are queued, then status listeners.
func (m *Manager) stopWifiLocked() {
	if !m.hal.IsStarted() {
		return
	}
	if !m.hal.Stop() {
		m.log.Error().Msg("wifi stop failed")
	}
	m.teardownInternalLocked()
	m.events.Publish(Event{Name: "wifi_stopped"})
}

// teardownInternalLocked clears all per-start state: the registry, the
// cached chip views, and the RTT controller. Queues destroy, RTT and status
// notifications.
func (m *Manager) teardownInternalLocked() {
	m.dispatchAllDestroyedLocked()
	if m.rttController != nil {
		m.rttController = nil
		m.dispatchRttDestroyedLocked()
	}
	m.bandCombosByChip = nil
	m.dispatchStatusChangedLocked()
}

// registerHalCallbacks (re-)registers the HAL event callback and death
// recipient. Called at initialization and again after a registry desync
// forced a full stop.
func (m *Manager) registerHalCallbacks() {
	if !m.hal.RegisterEventCallback(&halEventCallback{m: m}) {
		m.log.Error().Msg("failed to register HAL event callback")
	}
	m.hal.RegisterDeathRecipient(&halDeathRecipient{m: m})
}

// halEventCallback funnels HAL events onto the manager's serial event
// handler before touching manager state.
type halEventCallback struct {
	m *Manager
}

func (c *halEventCallback) OnStart() {
	c.m.eventHandler.Post(func() {
		c.m.log.Debug().Msg("HAL event: started")
	})
}

func (c *halEventCallback) OnStop() {
	c.m.eventHandler.Post(func() {
		c.m.log.Debug().Msg("HAL event: stopped")
	})
}

func (c *halEventCallback) OnFailure(status hal.Status) {
	c.m.eventHandler.Post(func() {
		c.m.log.Error().Int("status", int(status)).Msg("HAL event: failure")
		m := c.m
		m.mu.Lock()
		m.teardownInternalLocked()
		cbs := m.takeDeferredLocked()
		m.mu.Unlock()
		runDeferred(cbs)
		m.events.Publish(Event{Name: "wifi_failure", Fields: map[string]any{"status": int(status)}})
	})
}

func (c *halEventCallback) OnSubsystemRestart(status hal.Status) {
	c.m.eventHandler.Post(func() {
		c.m.log.Warn().Int("status", int(status)).Msg("HAL event: subsystem restart")
		m := c.m
		m.mu.Lock()
		m.dispatchSubsystemRestartLocked()
		cbs := m.takeDeferredLocked()
		m.mu.Unlock()
		runDeferred(cbs)
		m.events.Publish(Event{Name: "subsystem_restart", Fields: map[string]any{"status": int(status)}})
	})
}

// halDeathRecipient handles death of the HAL process: all interfaces are
// gone, so every destroy listener fires and status flips to stopped.
type halDeathRecipient struct {
	m *Manager
}

func (d *halDeathRecipient) OnDeath() {
	d.m.eventHandler.Post(func() {
		m := d.m
		m.log.Error().Msg("HAL service died")
		m.mu.Lock()
		m.teardownInternalLocked()
		cbs := m.takeDeferredLocked()
		m.mu.Unlock()
		runDeferred(cbs)
		m.events.Publish(Event{Name: "hal_death"})
	})
}
