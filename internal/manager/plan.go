package manager

import (
	"wifidm/internal/hal"
	"wifidm/pkg/types"
)

// The admission/eviction planner. Given a request for a new interface it
// enumerates every chip, mode and concurrency combination, asks which
// existing interfaces would have to go, filters the options by the priority
// rules in evict.go, and keeps the least disruptive proposal.

// expandCombination flattens a concurrency combination into every concrete
// assignment of its limit slots to create types, expressed as per-type count
// vectors. Duplicates are tolerated. A malformed combination (a limit with
// slots but no types to fill them) expands to nothing.
func expandCombination(combo types.ConcurrencyCombination) [][types.NumIfaceTypes]int {
	numCombos := 1
	for _, limit := range combo.Limits {
		if limit.MaxIfaces > 0 && len(limit.Types) == 0 {
			return nil
		}
		for i := 0; i < limit.MaxIfaces; i++ {
			numCombos *= len(limit.Types)
		}
	}
	expanded := make([][types.NumIfaceTypes]int, numCombos)
	span := numCombos
	for _, limit := range combo.Limits {
		for i := 0; i < limit.MaxIfaces; i++ {
			span /= len(limit.Types)
			for k := 0; k < numCombos; k++ {
				expanded[k][limit.Types[(k/span)%len(limit.Types)]]++
			}
		}
	}
	return expanded
}

func capabilitiesMatch(chipCaps, required uint64) bool {
	if required == hal.CapabilityAny {
		return true
	}
	if chipCaps == hal.CapabilityUninitialized {
		return true
	}
	return chipCaps&required == required
}

// bestCreationProposalLocked scans all chips/modes/combinations and returns
// the best admissible proposal, or nil when the request is impossible.
func (m *Manager) bestCreationProposalLocked(chips []*chipInfo, req IfaceRequest) *proposal {
	var best *proposal
	for _, ci := range chips {
		if !capabilitiesMatch(ci.caps, req.RequiredCapabilities) {
			continue
		}
		for _, mode := range ci.availableModes {
			for _, combo := range mode.AvailableCombinations {
				expansions := expandCombination(combo)
				if expansions == nil {
					m.log.Warn().Int("chip", ci.chipID).Int("mode", mode.ID).
						Msg("skipping malformed concurrency combination")
					continue
				}
				for _, expanded := range expansions {
					cur := m.comboSupportsRequestLocked(ci, mode.ID, expanded, req)
					if betterProposal(cur, best) {
						best = cur
					}
				}
			}
		}
	}
	if best == nil {
		m.log.Info().
			Str("type", req.Type.String()).
			Str("ws", req.WorkSource.String()).
			Msg("no creation proposal for request")
	}
	return best
}

// comboSupportsRequestLocked checks whether one expanded combination of one
// mode can host the request, and if so at what cost. Returns nil when the
// combination cannot host the type at all or when the required evictions are
// not permitted by priority.
//
// A mode change removes every interface on the chip, so for a proposed mode
// change each existing interface must be individually evictable; the
// proposal then carries no explicit removal list.
func (m *Manager) comboSupportsRequestLocked(ci *chipInfo, modeID int, chipCombo [types.NumIfaceTypes]int, req IfaceRequest) *proposal {
	if chipCombo[req.Type] == 0 {
		return nil
	}

	p := &proposal{chip: ci, modeID: modeID}

	if ci.currentModeValid && ci.currentMode != modeID {
		for _, existingType := range types.CreateTypesByPriority {
			existing := ci.ifaces[existingType]
			if m.selectVictimsLocked(len(existing), req, existingType, existing) == nil {
				return nil
			}
		}
		return p
	}

	for _, existingType := range types.CreateTypesByPriority {
		existing := ci.ifaces[existingType]
		excess := len(existing) - chipCombo[existingType]
		if existingType == req.Type {
			excess++
		}
		if excess <= 0 {
			continue
		}
		// Try downgrading bridged APs before deleting them.
		if existingType == types.IfaceApBridged {
			spareApCapacity := chipCombo[types.IfaceAp] - len(ci.ifaces[types.IfaceAp])
			if req.Type == types.IfaceAp {
				spareApCapacity--
			}
			if spareApCapacity >= excess {
				if downgrades := m.selectBridgedDowngradesLocked(excess, existing); downgrades != nil {
					p.toDowngrade = append(p.toDowngrade, downgrades...)
					continue
				}
			}
		}
		victims := m.selectVictimsLocked(excess, req, existingType, existing)
		if victims == nil {
			return nil
		}
		p.toRemove = append(p.toRemove, victims...)
	}
	return p
}

// betterProposal reports whether a beats b. Both are assumed admissible.
// Fewer removed interfaces win, compared per create type in priority order,
// then fewer downgrades; ties keep b. Mode-change proposals count every
// existing interface as removed, which naturally prefers staying in the
// current mode.
func betterProposal(a, b *proposal) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	aRemoved := removalCounts(a)
	bRemoved := removalCounts(b)
	for _, t := range types.CreateTypesByPriority {
		if aRemoved[t] != bRemoved[t] {
			return aRemoved[t] < bRemoved[t]
		}
	}
	if len(a.toDowngrade) != len(b.toDowngrade) {
		return len(a.toDowngrade) < len(b.toDowngrade)
	}
	return false
}

func removalCounts(p *proposal) [types.NumIfaceTypes]int {
	var counts [types.NumIfaceTypes]int
	if p.modeChangeNeeded() {
		for _, t := range types.CreateTypesByPriority {
			counts[t] = len(p.chip.ifaces[t])
		}
		return counts
	}
	for _, info := range p.toRemove {
		counts[info.createType]++
	}
	return counts
}
