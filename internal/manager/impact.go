package manager

import (
	"wifidm/pkg/types"
)

// ReportImpactToCreateIface reports which interfaces would be destroyed if
// the request were admitted. Returns (nil, false) when the request cannot be
// satisfied at all; an empty non-nil slice means admissible with no
// destruction.
//
// With queryForNewIface false, an existing interface of the requested type
// short-circuits to "no impact": the caller would reuse it rather than
// create a second one.
func (m *Manager) ReportImpactToCreateIface(req IfaceRequest, queryForNewIface bool) ([]Impact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !queryForNewIface && len(m.recordsOfTypeLocked(req.Type)) > 0 {
		return []Impact{}, true
	}

	victims := m.ifacesToDestroyForRequestLocked(req)
	if victims == nil {
		return nil, false
	}
	impact := make([]Impact, 0, len(victims))
	for _, info := range victims {
		if info.rec == nil {
			continue
		}
		impact = append(impact, Impact{Type: info.createType, WorkSource: info.rec.ws})
	}
	return impact, true
}

// IsItPossibleToCreateIface reports whether the request could be admitted,
// with or without evictions.
func (m *Manager) IsItPossibleToCreateIface(req IfaceRequest) bool {
	_, ok := m.ReportImpactToCreateIface(req, true)
	return ok
}

// CreatingIfaceWillDeletePrivilegedIface reports whether admitting the
// request would destroy an interface held by a privileged requester.
// Disconnected-idle P2P interfaces do not count: their owner has signalled
// it no longer needs them.
func (m *Manager) CreatingIfaceWillDeletePrivilegedIface(req IfaceRequest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	victims := m.ifacesToDestroyForRequestLocked(req)
	for _, info := range victims {
		if info.rec == nil {
			continue
		}
		if info.createType == types.IfaceP2p && m.isDisconnectedP2pLocked(info) {
			continue
		}
		if m.tierOfLocked(info.rec.ws) == types.TierPrivileged {
			return true
		}
	}
	return false
}

// ifacesToDestroyForRequestLocked runs the planner without executing the
// plan. nil means no chip can satisfy the request.
func (m *Manager) ifacesToDestroyForRequestLocked(req IfaceRequest) []*ifaceInfo {
	chips := m.allChipInfoLocked(false)
	if chips == nil {
		return nil
	}
	if !m.validateRegistryLocked(chips) {
		m.log.Error().Msg("reportImpact: registry out of sync with chip")
		return nil
	}
	best := m.bestCreationProposalLocked(chips, req)
	if best == nil {
		return nil
	}
	return best.victims()
}
