package manager

import (
	"sync"
	"testing"

	"wifidm/internal/hal"
	"wifidm/pkg/types"
)

type rttRecorder struct {
	mu        sync.Mutex
	created   int
	destroyed int
	last      hal.RttController
}

func (r *rttRecorder) OnNewRttController(ctrl hal.RttController) {
	r.mu.Lock()
	r.created++
	r.last = ctrl
	r.mu.Unlock()
}

func (r *rttRecorder) OnRttControllerDestroyed() {
	r.mu.Lock()
	r.destroyed++
	r.mu.Unlock()
}

func (r *rttRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created, r.destroyed
}

func TestRttController_CreatedWithCapableModeDestroyedOnSwitch(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil) // RTT only in mode 0
	rec := &rttRecorder{}
	env.mgr.RegisterRttControllerLifecycleCallback(rec, nil)
	env.mgr.RegisterRttControllerLifecycleCallback(rec, nil) // duplicate ignored
	if created, _ := rec.counts(); created != 0 {
		t.Fatalf("no controller can exist before a mode is configured")
	}

	// STA creation configures mode 0, which supports RTT.
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})
	created, destroyed := rec.counts()
	if created != 1 || destroyed != 0 {
		t.Fatalf("expected one controller, got created=%d destroyed=%d", created, destroyed)
	}
	if rec.last == nil || !rec.last.Validate() {
		t.Fatalf("delivered controller must validate")
	}

	// AP creation switches to mode 1, which does not support RTT.
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceAp, WorkSource: ws("settings")})
	created, destroyed = rec.counts()
	if created != 1 || destroyed != 1 {
		t.Fatalf("controller must be torn down on mode switch, got created=%d destroyed=%d", created, destroyed)
	}
	if rec.last.Validate() {
		t.Fatalf("old controller must be invalid after mode switch")
	}
}

func TestRttController_LateRegistrationGetsExistingController(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})

	rec := &rttRecorder{}
	env.mgr.RegisterRttControllerLifecycleCallback(rec, nil)
	if created, _ := rec.counts(); created != 1 {
		t.Fatalf("late registration must receive the live controller immediately")
	}
}

func TestRttController_GoneAfterStop(t *testing.T) {
	env := startedEnv(t, singleStaApSpecs(), nil)
	rec := &rttRecorder{}
	env.mgr.RegisterRttControllerLifecycleCallback(rec, nil)
	mustCreate(t, env.mgr, IfaceRequest{Type: types.IfaceSta, WorkSource: ws("fg_app")})

	env.mgr.Stop()
	created, destroyed := rec.counts()
	if created != 1 || destroyed != 1 {
		t.Fatalf("stop must destroy the controller, got created=%d destroyed=%d", created, destroyed)
	}
}
