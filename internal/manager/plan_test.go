package manager

import (
	"testing"

	"wifidm/internal/hal/sim"
	"wifidm/pkg/types"
)

func TestExpandCombination_MalformedLimitExpandsToNothing(t *testing.T) {
	// a limit with slots but no types to fill them
	got := expandCombination(types.ConcurrencyCombination{
		Limits: []types.ConcurrencyLimit{
			{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceSta}},
			{MaxIfaces: 1, Types: nil},
		},
	})
	if got != nil {
		t.Fatalf("expected no expansions, got %v", got)
	}

	// zero slots with no types is inert, not malformed
	got = expandCombination(types.ConcurrencyCombination{
		Limits: []types.ConcurrencyLimit{
			{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceSta}},
			{MaxIfaces: 0, Types: nil},
		},
	})
	if len(got) != 1 || got[0][types.IfaceSta] != 1 {
		t.Fatalf("expected one STA expansion, got %v", got)
	}
}

// malformedComboSpecs: mode 0 carries one broken combination (a slot without
// types, as a hand-edited chip file might) next to a valid single-STA one.
func malformedComboSpecs(includeValid bool) []sim.ChipSpec {
	combos := []types.ConcurrencyCombination{
		{Limits: []types.ConcurrencyLimit{{MaxIfaces: 1, Types: nil}}},
	}
	if includeValid {
		combos = append(combos, types.ConcurrencyCombination{
			Limits: []types.ConcurrencyLimit{{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceSta}}},
		})
	}
	return []sim.ChipSpec{{
		ID:           0,
		Capabilities: 0xff,
		Modes:        []types.ChipMode{{ID: 0, AvailableCombinations: combos}},
	}}
}

func TestCreateIface_MalformedComboIsSkipped(t *testing.T) {
	env := startedEnv(t, malformedComboSpecs(true), nil)
	name := mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})
	if name != "wlan0" {
		t.Fatalf("expected wlan0 via the valid combination, got %s", name)
	}
}

func TestCreateIface_MalformedOnlyComboRefusesAndStaysUsable(t *testing.T) {
	env := startedEnv(t, malformedComboSpecs(false), nil)
	iface, err := env.mgr.CreateIface(IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})
	if iface != nil || !IsRefused(err) {
		t.Fatalf("expected refusal, got iface=%v err=%v", iface, err)
	}
	// the manager must not wedge: subsequent calls still answer
	if _, err := env.mgr.CreateIface(IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")}); !IsRefused(err) {
		t.Fatalf("second call after malformed combo: %v", err)
	}
	if got := env.mgr.ListIfaces(); len(got) != 0 {
		t.Fatalf("registry changed by refused requests: %v", got)
	}
}
