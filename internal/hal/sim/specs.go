package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"wifidm/pkg/types"
)

// LoadSpecs reads chip specs from a .json or .yaml/.yml file.
func LoadSpecs(path string) ([]ChipSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var specs []ChipSpec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(b, &specs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &specs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported chip spec extension: %s", ext)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no chips in %s", path)
	}
	return specs, nil
}

// DefaultSpecs models a common dual-band chip: one mode hosting a STA next
// to one of AP/AP_BRIDGED/P2P/NAN, and a dedicated dual-STA mode.
func DefaultSpecs() []ChipSpec {
	return []ChipSpec{{
		ID:           0,
		Capabilities: 0x7ff,
		Modes: []types.ChipMode{
			{
				ID: 0,
				AvailableCombinations: []types.ConcurrencyCombination{
					{Limits: []types.ConcurrencyLimit{
						{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceSta}},
						{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceAp, types.IfaceApBridged}},
					}},
					{Limits: []types.ConcurrencyLimit{
						{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceSta}},
						{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceP2p, types.IfaceNan}},
					}},
				},
			},
			{
				ID: 1,
				AvailableCombinations: []types.ConcurrencyCombination{
					{Limits: []types.ConcurrencyLimit{
						{MaxIfaces: 2, Types: []types.IfaceType{types.IfaceSta}},
					}},
				},
			},
		},
		RadioCombinations: [][]int{
			{types.Band24Ghz},
			{types.Band5Ghz},
			{types.Band24Ghz, types.Band5Ghz},
		},
		RttModes: []int{0},
	}}
}
