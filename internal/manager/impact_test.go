package manager

import (
	"testing"
	"time"

	"wifidm/internal/hal/sim"
	"wifidm/pkg/types"
)

func TestReportImpact_ExistingTypeShortCircuits(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})

	impact, ok := env.mgr.ReportImpactToCreateIface(IfaceRequest{Type: types.IfaceSta, WorkSource: ws("bg")}, false)
	if !ok {
		t.Fatalf("existing type must short-circuit to possible")
	}
	if impact == nil || len(impact) != 0 {
		t.Fatalf("expected empty impact, got %v", impact)
	}
}

func TestReportImpact_ListsVictims(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("bg")})

	impact, ok := env.mgr.ReportImpactToCreateIface(IfaceRequest{Type: types.IfaceAp, WorkSource: ws("settings")}, true)
	if !ok {
		t.Fatalf("privileged AP over background STA must be possible")
	}
	if len(impact) != 1 || impact[0].Type != types.IfaceSta || !impact[0].WorkSource.Equal(ws("bg")) {
		t.Fatalf("unexpected impact: %+v", impact)
	}
	// Reporting must not execute the plan.
	if len(env.mgr.ListIfaces()) != 1 {
		t.Fatalf("impact query must not change the registry")
	}
}

func TestReportImpact_Impossible(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("settings")})

	impact, ok := env.mgr.ReportImpactToCreateIface(IfaceRequest{Type: types.IfaceAp, WorkSource: ws("bg")}, true)
	if ok || impact != nil {
		t.Fatalf("background AP over privileged STA must be impossible, got %v %v", impact, ok)
	}
	if env.mgr.IsItPossibleToCreateIface(IfaceRequest{Type: types.IfaceAp, WorkSource: ws("bg")}) {
		t.Fatalf("IsItPossibleToCreateIface must agree")
	}
}

func TestCreatingIfaceWillDeletePrivilegedIface(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("settings")})

	if !env.mgr.CreatingIfaceWillDeletePrivilegedIface(IfaceRequest{Type: types.IfaceAp, WorkSource: ws("settings")}) {
		t.Fatalf("evicting a privileged STA must be flagged")
	}
}

func TestCreatingIfaceWillDeletePrivilegedIface_IgnoresDisconnectedP2p(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceP2p, WorkSource: ws("settings")})

	env.clock.Advance(11 * time.Minute)
	req := IfaceRequest{Type: types.IfaceNan, WorkSource: ws("fg_app")}
	impact, ok := env.mgr.ReportImpactToCreateIface(req, true)
	if !ok || len(impact) != 1 || impact[0].Type != types.IfaceP2p {
		t.Fatalf("NAN should displace the idle P2P: %v %v", impact, ok)
	}
	if env.mgr.CreatingIfaceWillDeletePrivilegedIface(req) {
		t.Fatalf("a disconnected idle P2P does not count as privileged impact")
	}
}

func TestSetP2pConnected_BlocksOpportunisticDowngrade(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceP2p, WorkSource: ws("settings")})
	env.mgr.SetP2pConnected(true)

	env.clock.Advance(11 * time.Minute)
	if env.mgr.IsItPossibleToCreateIface(IfaceRequest{Type: types.IfaceNan, WorkSource: ws("fg_app")}) {
		t.Fatalf("a connected P2P must not be evictable by a foreground app")
	}
}

func TestSecondaryInternetSta_IsOpportunistic(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{
		Type: types.IfaceSta, WorkSource: ws("settings"), SecondaryInternet: true,
	})

	// A foreground app may displace a privileged secondary-internet STA.
	if !env.mgr.IsItPossibleToCreateIface(IfaceRequest{Type: types.IfaceAp, WorkSource: ws("fg_app")}) {
		t.Fatalf("secondary-internet STA must be evictable by fg_app")
	}
	// But a background requestor may not.
	if env.mgr.IsItPossibleToCreateIface(IfaceRequest{Type: types.IfaceAp, WorkSource: ws("bg")}) {
		t.Fatalf("background requestor must not evict it")
	}
}

func TestBypassDishonorable(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("settings")})

	// A system internal request with the bypass set may evict the
	// privileged STA even though its tier is lower.
	req := IfaceRequest{Type: types.IfaceAp, WorkSource: ws("system"), BypassDishonorable: true}
	if !env.mgr.IsItPossibleToCreateIface(req) {
		t.Fatalf("bypass must permit the eviction")
	}
	// The same bypass from a non-system caller is ignored.
	req = IfaceRequest{Type: types.IfaceAp, WorkSource: ws("fg_app"), BypassDishonorable: true}
	if env.mgr.IsItPossibleToCreateIface(req) {
		t.Fatalf("bypass requires at least system tier")
	}
}

func TestCanDeviceSupportCreateTypeCombo(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	// Loads the static snapshot.
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})

	cases := []struct {
		combo map[types.IfaceType]int
		want  bool
	}{
		{map[types.IfaceType]int{types.IfaceSta: 1, types.IfaceAp: 1}, true},
		{map[types.IfaceType]int{types.IfaceSta: 2}, true},
		{map[types.IfaceType]int{types.IfaceSta: 1, types.IfaceP2p: 1}, true},
		{map[types.IfaceType]int{types.IfaceAp: 1, types.IfaceP2p: 1}, false},
		{map[types.IfaceType]int{types.IfaceSta: 3}, false},
	}
	for _, c := range cases {
		if got := env.mgr.CanDeviceSupportCreateTypeCombo(c.combo); got != c.want {
			t.Fatalf("combo %v: got %v, want %v", c.combo, got, c.want)
		}
	}
}

func TestSupportedIfaceTypes(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	got := env.mgr.SupportedIfaceTypes()
	if !got[types.IfaceSta] || !got[types.IfaceAp] {
		t.Fatalf("STA and AP must be supported: %v", got)
	}
	if got[types.IfaceNan] || got[types.IfaceP2p] {
		t.Fatalf("P2P/NAN must not be supported: %v", got)
	}
}
