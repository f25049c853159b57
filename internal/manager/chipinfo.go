package manager

import (
	"fmt"
	"reflect"
	"sort"

	"wifidm/internal/hal"
	"wifidm/pkg/types"
)

// allChipInfoLocked snapshots every chip: capabilities, available modes,
// current mode, and the live interface population. Available modes come from
// the static cache unless force is set or no cached copy exists - querying
// the driver for concurrency combos is only reliable once a mode was
// configured.
func (m *Manager) allChipInfoLocked(force bool) []*chipInfo {
	ids := m.hal.ChipIDs()
	if len(ids) == 0 {
		m.log.Error().Msg("allChipInfo: no chips reported")
		return nil
	}
	staticByID := make(map[int]types.StaticChipInfo)
	for _, sci := range m.staticChipInfos {
		staticByID[sci.ChipID] = sci
	}
	var chips []*chipInfo
	for _, id := range ids {
		chip := m.hal.Chip(id)
		if chip == nil {
			m.log.Error().Int("chip", id).Msg("allChipInfo: chip lookup failed")
			return nil
		}
		ci := &chipInfo{chip: chip, chipID: id, caps: chip.Capabilities()}
		if sci, ok := staticByID[id]; ok && !force {
			ci.availableModes = sci.AvailableModes
		} else {
			ci.availableModes = chip.AvailableModes()
		}
		ci.currentMode, ci.currentModeValid = chip.Mode()
		for _, t := range types.CreateTypesByPriority {
			for _, name := range chip.ListIfaceNames(t) {
				ci.ifaces[t] = append(ci.ifaces[t], &ifaceInfo{name: name, createType: t})
			}
		}
		chips = append(chips, ci)
	}
	return chips
}

// staticChipInfosLocked returns the best available static snapshot: the
// driver-confirmed cache, else a conversion of the live view, else whatever
// the store held at initialize time.
func (m *Manager) staticChipInfosLocked() []types.StaticChipInfo {
	if m.comboLoadedFromDriver || !m.hal.IsStarted() {
		return m.staticChipInfos
	}
	chips := m.allChipInfoLocked(false)
	if chips == nil {
		return m.staticChipInfos
	}
	return convertToStaticChipInfos(chips)
}

func convertToStaticChipInfos(chips []*chipInfo) []types.StaticChipInfo {
	out := make([]types.StaticChipInfo, 0, len(chips))
	for _, ci := range chips {
		out = append(out, types.StaticChipInfo{
			ChipID:           ci.chipID,
			ChipCapabilities: ci.caps,
			AvailableModes:   ci.availableModes,
		})
	}
	return out
}

// refreshStaticChipInfoLocked re-reads the modes from the driver and persists
// them when they differ from the stored snapshot.
func (m *Manager) refreshStaticChipInfoLocked() {
	chips := m.allChipInfoLocked(true)
	if chips == nil {
		m.log.Error().Msg("could not get current chip info")
		return
	}
	infos := convertToStaticChipInfos(chips)
	if !reflect.DeepEqual(infos, m.staticChipInfos) {
		if err := m.store.Save(infos); err != nil {
			m.log.Error().Err(err).Msg("failed to save static chip info")
		}
	}
	m.staticChipInfos = infos
}

// StaticChipInfos returns the current static chip capability snapshot.
func (m *Manager) StaticChipInfos() []types.StaticChipInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staticChipInfosLocked()
}

// SupportedIfaceTypes returns the union of interface types appearing in any
// concurrency limit of any mode, across all chips.
func (m *Manager) SupportedIfaceTypes() map[types.IfaceType]bool {
	return m.supportedIfaceTypes(-1)
}

// SupportedIfaceTypesOnChip restricts SupportedIfaceTypes to one chip.
func (m *Manager) SupportedIfaceTypesOnChip(chipID int) map[types.IfaceType]bool {
	return m.supportedIfaceTypes(chipID)
}

func (m *Manager) supportedIfaceTypes(chipID int) map[types.IfaceType]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make(map[types.IfaceType]bool)
	infos := m.staticChipInfosLocked()
	if len(infos) == 0 {
		if chips := m.allChipInfoLocked(false); chips != nil {
			infos = convertToStaticChipInfos(chips)
		}
	}
	for _, sci := range infos {
		if chipID >= 0 && sci.ChipID != chipID {
			continue
		}
		for _, mode := range sci.AvailableModes {
			for _, combo := range mode.AvailableCombinations {
				for _, limit := range combo.Limits {
					for _, t := range limit.Types {
						results[t] = true
					}
				}
			}
		}
	}
	return results
}

// CanDeviceSupportCreateTypeCombo reports whether some mode of some chip has
// a combination that can host the requested counts simultaneously. The
// answer is purely structural - priorities play no part.
func (m *Manager) CanDeviceSupportCreateTypeCombo(combo map[types.IfaceType]int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	requested := [types.NumIfaceTypes]int{}
	for t, n := range combo {
		requested[t] = n
	}
	for _, sci := range m.staticChipInfosLocked() {
		for _, mode := range sci.AvailableModes {
			for _, c := range mode.AvailableCombinations {
				for _, expanded := range expandCombination(c) {
					if comboSatisfies(expanded, requested) {
						return true
					}
				}
			}
		}
	}
	return false
}

func comboSatisfies(chipCombo, requested [types.NumIfaceTypes]int) bool {
	for _, t := range types.CreateTypesByPriority {
		if chipCombo[t] < requested[t] {
			return false
		}
	}
	return true
}

// Band combination queries, derived from the chip's radio combinations.

func bandKey(bands []int) string {
	sorted := append([]int(nil), bands...)
	sort.Ints(sorted)
	return fmt.Sprint(sorted)
}

func (m *Manager) bandCombosLocked(iface hal.Iface) map[string][]int {
	rec := m.recordLocked(iface.Name(), iface.Type())
	if rec == nil {
		return nil
	}
	if m.bandCombosByChip == nil {
		m.bandCombosByChip = make(map[int]map[string][]int)
	}
	if combos, ok := m.bandCombosByChip[rec.chipID]; ok {
		return combos
	}
	radios := rec.chip.SupportedRadioCombinations()
	combos := make(map[string][]int, len(radios))
	for _, bands := range radios {
		sorted := append([]int(nil), bands...)
		sort.Ints(sorted)
		combos[bandKey(sorted)] = sorted
	}
	m.bandCombosByChip[rec.chipID] = combos
	return combos
}

// SupportedBandCombinations lists the sets of bands the interface's chip can
// run simultaneously, each sorted ascending. ok=false for unknown interfaces.
func (m *Manager) SupportedBandCombinations(iface hal.Iface) ([][]int, bool) {
	if iface == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	combos := m.bandCombosLocked(iface)
	if combos == nil {
		return nil, false
	}
	keys := make([]string, 0, len(combos))
	for k := range combos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]int, 0, len(combos))
	for _, k := range keys {
		out = append(out, combos[k])
	}
	return out, true
}

// IsBandCombinationSupported reports whether the chip can run the given bands
// simultaneously; order does not matter.
func (m *Manager) IsBandCombinationSupported(iface hal.Iface, bands []int) bool {
	if iface == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	combos := m.bandCombosLocked(iface)
	if combos == nil {
		return false
	}
	_, ok := combos[bandKey(bands)]
	return ok
}

// Is24g5gDbsSupported reports 2.4GHz+5GHz dual-band simultaneous support.
func (m *Manager) Is24g5gDbsSupported(iface hal.Iface) bool {
	return m.IsBandCombinationSupported(iface, []int{types.Band24Ghz, types.Band5Ghz})
}

// Is5g6gDbsSupported reports 5GHz+6GHz dual-band simultaneous support.
func (m *Manager) Is5g6gDbsSupported(iface hal.Iface) bool {
	return m.IsBandCombinationSupported(iface, []int{types.Band5Ghz, types.Band6Ghz})
}
