package manager

import (
	"wifidm/pkg/types"
)

// Priority rules deciding which existing interfaces a new request may evict.

// tierOfLocked resolves the work source of an existing record.
func (m *Manager) tierOfLocked(ws types.WorkSource) types.Tier {
	return m.resolver.PriorityOf(ws)
}

// isOpportunisticStaLocked reports whether an existing STA serves secondary
// internet only, demoting it below every non-background requestor.
func isOpportunisticSta(info *ifaceInfo) bool {
	return info.createType == types.IfaceSta && info.rec != nil && info.rec.secondaryInternet
}

// isDisconnectedP2pLocked reports whether an existing P2P interface has been
// globally disconnected for longer than the configured idle window.
func (m *Manager) isDisconnectedP2pLocked(info *ifaceInfo) bool {
	if info.createType != types.IfaceP2p || m.p2pConnected || m.p2pIdleTimeout < 0 {
		return false
	}
	if info.rec == nil {
		return false
	}
	return !m.clock().Before(info.rec.createdAt.Add(m.p2pIdleTimeout))
}

// allowedToEvictLocked decides whether the request may delete the existing
// interface. Rules, in order:
//  1. opportunistic interfaces (secondary-internet STA, idle disconnected
//     P2P) are evictable by any requestor above background;
//  2. higher tier wins;
//  3. equal tier: same create type keeps the existing interface; two
//     privileged callers let the new one win (last caller wins), except a
//     privileged P2P request never deletes a privileged AP/AP_BRIDGED or a
//     primary STA;
//  4. privileged/system internal requests may bypass all of the above.
func (m *Manager) allowedToEvictLocked(req IfaceRequest, reqTier types.Tier, existing *ifaceInfo) bool {
	if existing.rec != nil && req.WorkSource.Equal(existing.rec.ws) {
		// replacing your own interface is always allowed
		return true
	}

	if reqTier > types.TierBackground {
		if isOpportunisticSta(existing) {
			return true
		}
		if m.isDisconnectedP2pLocked(existing) {
			return true
		}
	}

	if req.BypassDishonorable && reqTier >= types.TierSystem {
		return true
	}

	existingTier := types.TierInternal
	if existing.rec != nil {
		existingTier = m.tierOfLocked(existing.rec.ws)
	}

	if reqTier > existingTier {
		return true
	}
	if reqTier == existingTier {
		if req.Type == existing.createType {
			return false
		}
		if reqTier == types.TierPrivileged {
			if req.Type == types.IfaceP2p {
				switch existing.createType {
				case types.IfaceAp, types.IfaceApBridged:
					return false
				case types.IfaceSta:
					if existing.rec != nil && !existing.rec.secondaryInternet {
						return false
					}
				}
			}
			return true
		}
	}
	return false
}

// selectVictimsLocked picks `quantity` interfaces of one existing type that
// the request is allowed to delete, or nil when not enough exist. Candidates
// are gathered newest-first so later interfaces go first, then consumed from
// the lowest existing tier upwards.
func (m *Manager) selectVictimsLocked(quantity int, req IfaceRequest, existingType types.IfaceType, existing []*ifaceInfo) []*ifaceInfo {
	if quantity == 0 {
		return []*ifaceInfo{}
	}
	reqTier := m.resolver.PriorityOf(req.WorkSource)

	lookupError := false
	byTier := make(map[types.Tier][]*ifaceInfo)
	for i := len(existing) - 1; i >= 0; i-- {
		info := existing[i]
		if info.rec == nil {
			m.log.Error().Str("iface", info.name).Msg("selectVictims: no registry record")
			lookupError = true
			break
		}
		if m.allowedToEvictLocked(req, reqTier, info) {
			t := m.tierOfLocked(info.rec.ws)
			byTier[t] = append(byTier[t], info)
		}
	}

	if lookupError {
		// registry data is gone; fall back to arbitrary selection
		if len(existing) < quantity {
			return nil
		}
		return existing[:quantity]
	}

	victims := make([]*ifaceInfo, 0, quantity)
	for t := types.TierMin; t <= types.TierMax; t++ {
		for _, info := range byTier[t] {
			victims = append(victims, info)
			if len(victims) == quantity {
				return victims
			}
		}
	}
	return nil
}

// selectBridgedDowngradesLocked picks `quantity` bridged APs whose SoftAp
// collaborator names a removable instance, in creation order, or nil when
// not enough can be downgraded.
func (m *Manager) selectBridgedDowngradesLocked(quantity int, bridged []*ifaceInfo) []*ifaceInfo {
	if m.downgrade == nil {
		return nil
	}
	var out []*ifaceInfo
	for _, info := range bridged {
		if _, ok := m.downgrade(info.name); !ok {
			continue
		}
		out = append(out, info)
		if len(out) >= quantity {
			return out
		}
	}
	return nil
}
