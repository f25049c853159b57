package manager

import (
	"sort"

	"wifidm/internal/hal"
	"wifidm/pkg/types"
)

// The interface registry: in-memory records for every interface the manager
// created, keyed by (name, type). All access happens with m.mu held.

func (m *Manager) addRecordLocked(rec *ifaceRecord) {
	m.registry[ifaceKey{rec.name, rec.typ}] = rec
}

func (m *Manager) recordLocked(name string, t types.IfaceType) *ifaceRecord {
	return m.registry[ifaceKey{name, t}]
}

func (m *Manager) removeRecordLocked(name string, t types.IfaceType) {
	delete(m.registry, ifaceKey{name, t})
}

// recordsOfTypeLocked returns the registry records for one create type in
// creation order.
func (m *Manager) recordsOfTypeLocked(t types.IfaceType) []*ifaceRecord {
	var recs []*ifaceRecord
	for _, rec := range m.registry {
		if rec.typ == t {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].createdAt.Equal(recs[j].createdAt) {
			return recs[i].name < recs[j].name
		}
		return recs[i].createdAt.Before(recs[j].createdAt)
	})
	return recs
}

func (m *Manager) listIfacesLocked() []types.IfaceView {
	var out []types.IfaceView
	for _, t := range types.CreateTypesByPriority {
		for _, rec := range m.recordsOfTypeLocked(t) {
			out = append(out, types.IfaceView{
				Name:       rec.name,
				Type:       rec.typ.String(),
				ChipID:     rec.chipID,
				WorkSource: rec.ws,
				CreatedAt:  rec.createdAt.UnixMilli(),
			})
		}
	}
	return out
}

// ReplaceRequestorWs atomically swaps the owning work source of an interface,
// e.g. on P2P ownership handoff. Returns false for unknown interfaces.
func (m *Manager) ReplaceRequestorWs(iface hal.Iface, ws types.WorkSource) bool {
	if iface == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.recordLocked(iface.Name(), iface.Type())
	if rec == nil {
		m.log.Error().Str("iface", iface.Name()).Msg("replaceRequestorWs: no entry for iface")
		return false
	}
	rec.ws = ws
	return true
}

// validateRegistryLocked cross-checks every registry record against the live
// chip view and annotates the chip view with ownership data. A record whose
// interface the chip no longer reports means the chip and the manager have
// desynced; the caller must treat this as fatal.
func (m *Manager) validateRegistryLocked(chips []*chipInfo) bool {
	for _, rec := range m.registry {
		var chip *chipInfo
		for _, ci := range chips {
			if ci.chipID == rec.chipID {
				chip = ci
				break
			}
		}
		if chip == nil {
			m.log.Error().Stringer("record", rec).Msg("validateRegistry: no chip found")
			return false
		}
		found := false
		for _, info := range chip.ifaces[rec.typ] {
			if info.name == rec.name {
				info.rec = rec
				found = true
				break
			}
		}
		if !found {
			m.log.Error().Stringer("record", rec).Msg("validateRegistry: no interface found")
			return false
		}
	}
	return true
}
