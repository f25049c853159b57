package manager

import (
	"sync"
	"testing"
	"time"

	"wifidm/internal/hal/sim"
	"wifidm/pkg/types"
)

func TestStart_RetriesWhileHalNotAvailable(t *testing.T) {
	env := newTestEnv(t, sim.DefaultSpecs(), nil)
	env.wifi.FailStartTimes = 2
	if !env.mgr.Start() {
		t.Fatalf("start should succeed on the third attempt")
	}
	if !env.mgr.IsStarted() {
		t.Fatalf("manager should report started")
	}
}

func TestStart_GivesUpAfterRetryBudget(t *testing.T) {
	env := newTestEnv(t, sim.DefaultSpecs(), nil)
	env.wifi.FailStartTimes = 3
	if env.mgr.Start() {
		t.Fatalf("start should fail after exhausting retries")
	}
	// The budget consumed all injected failures; a fresh attempt works.
	if !env.mgr.Start() {
		t.Fatalf("subsequent start should succeed")
	}
}

func TestStart_HardFailureDoesNotRetry(t *testing.T) {
	env := newTestEnv(t, sim.DefaultSpecs(), nil)
	env.wifi.FailStartHard = true
	if env.mgr.Start() {
		t.Fatalf("start should fail")
	}
}

func TestStop_DestroysAllInterfacesAndNotifies(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	h := NewHandler("test")
	defer h.Stop()
	rec := newDestroyRecorder()
	status := newStatusRecorder()
	env.mgr.RegisterStatusListener(status, nil)

	staName := mustCreate(t, env.mgr, IfaceRequest{
		Type: types.IfaceSta, WorkSource: ws("fg_app"), Destroyed: rec, Handler: h,
	})
	apName := mustCreate(t, env.mgr, IfaceRequest{
		Type: types.IfaceAp, WorkSource: ws("system"), Destroyed: rec, Handler: h,
	})

	env.mgr.Stop()
	waitFor(t, time.Second, func() bool { return rec.total() == 2 })
	if rec.count(staName) != 1 || rec.count(apName) != 1 {
		t.Fatalf("each listener must fire exactly once: %v", rec.fired)
	}
	if env.mgr.IsStarted() {
		t.Fatalf("manager should be stopped")
	}
	if len(env.mgr.ListIfaces()) != 0 {
		t.Fatalf("registry should be empty after stop")
	}
	if status.count() == 0 {
		t.Fatalf("status listener should have fired")
	}
}

func TestHalDeath_DestroysEverythingThenRecovers(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	h := NewHandler("test")
	defer h.Stop()
	rec := newDestroyRecorder()
	status := newStatusRecorder()
	env.mgr.RegisterStatusListener(status, nil)

	staName := mustCreate(t, env.mgr, IfaceRequest{
		Type: types.IfaceSta, WorkSource: ws("fg_app"), Destroyed: rec, Handler: h,
	})
	apName := mustCreate(t, env.mgr, IfaceRequest{
		Type: types.IfaceAp, WorkSource: ws("system"), Destroyed: rec, Handler: h,
	})

	env.wifi.Die()
	waitFor(t, time.Second, func() bool { return rec.total() == 2 })
	if rec.count(staName) != 1 || rec.count(apName) != 1 {
		t.Fatalf("each listener must fire exactly once on death: %v", rec.fired)
	}
	if env.mgr.IsStarted() {
		t.Fatalf("manager should be stopped after HAL death")
	}
	if len(env.mgr.ListIfaces()) != 0 {
		t.Fatalf("registry should be empty after HAL death")
	}

	// Recovery: a fresh start and creation must work.
	if !env.mgr.Start() {
		t.Fatalf("restart after death failed")
	}
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})
}

type restartRecorder struct {
	mu    sync.Mutex
	calls int
}

func (r *restartRecorder) OnSubsystemRestart() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *restartRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSubsystemRestartListener(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	rec := &restartRecorder{}
	env.mgr.RegisterSubsystemRestartListener(rec, nil)
	env.mgr.RegisterSubsystemRestartListener(rec, nil) // duplicate is ignored

	env.wifi.FireSubsystemRestart()
	waitFor(t, time.Second, func() bool { return rec.count() == 1 })
	if rec.count() != 1 {
		t.Fatalf("restart listener fired %d times, want 1", rec.count())
	}
}

func TestRegistryDesync_StopsWifi(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	h := NewHandler("test")
	defer h.Stop()
	rec := newDestroyRecorder()
	staName := mustCreate(t, env.mgr, IfaceRequest{
		Type: types.IfaceSta, WorkSource: ws("fg_app"), Destroyed: rec, Handler: h,
	})

	// An interface disappears behind the manager's back.
	env.wifi.SimChip(0).RemoveStaIface(staName)

	_, err := env.mgr.CreateIface(IfaceRequest{Type: types.IfaceP2p, WorkSource: ws("fg_app")})
	if !IsStateError(err) {
		t.Fatalf("expected state error on desync, got %v", err)
	}
	if env.mgr.IsStarted() {
		t.Fatalf("desync must stop wifi")
	}
	waitFor(t, time.Second, func() bool { return rec.count(staName) == 1 })
}

func TestStaticChipInfo_PersistedOnceAfterDriverRead(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})
	if env.store.Saves() != 1 {
		t.Fatalf("expected one store save after first mode configure, got %d", env.store.Saves())
	}
	// Forces a second mode change; the driver-confirmed snapshot is reused.
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceAp, WorkSource: ws("settings")})
	if env.store.Saves() != 1 {
		t.Fatalf("snapshot must not be re-saved, got %d saves", env.store.Saves())
	}

	infos := env.mgr.StaticChipInfos()
	if len(infos) != 1 || infos[0].ChipID != 0 || len(infos[0].AvailableModes) != 2 {
		t.Fatalf("unexpected static chip info: %+v", infos)
	}
}

func TestEvents_PublishedForLifecycle(t *testing.T) {
	env := startedEnv(t, sim.DefaultSpecs(), nil)
	name := mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})
	if err := env.mgr.RemoveIfaceByName(types.IfaceSta, name); err != nil {
		t.Fatalf("remove: %v", err)
	}

	seen := map[string]bool{}
	for _, e := range env.pub.Events() {
		seen[e.Name] = true
	}
	for _, want := range []string{"wifi_started", "mode_switch", "iface_created", "iface_destroyed"} {
		if !seen[want] {
			t.Fatalf("missing event %q in %v", want, seen)
		}
	}
}
