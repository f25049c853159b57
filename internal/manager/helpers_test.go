package manager

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wifidm/internal/chipstore"
	"wifidm/internal/hal/sim"
	"wifidm/internal/priority"
	"wifidm/pkg/types"
)

// fakeClock is a manually advanced clock for timeout-sensitive tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// destroyRecorder counts destroy callbacks per interface name.
type destroyRecorder struct {
	mu    sync.Mutex
	fired map[string]int
}

func newDestroyRecorder() *destroyRecorder {
	return &destroyRecorder{fired: make(map[string]int)}
}

func (r *destroyRecorder) OnDestroyed(name string) {
	r.mu.Lock()
	r.fired[name]++
	r.mu.Unlock()
}

func (r *destroyRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fired[name]
}

func (r *destroyRecorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.fired {
		n += c
	}
	return n
}

type statusRecorder struct {
	mu    sync.Mutex
	calls int
	ch    chan struct{}
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{ch: make(chan struct{}, 16)}
}

func (r *statusRecorder) OnStatusChanged() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

func (r *statusRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// testTiers is the holder table used across tests.
var testTiers = map[string]types.Tier{
	"internal":   types.TierInternal,
	"bg":         types.TierBackground,
	"fg_service": types.TierFgService,
	"fg_app":     types.TierFgApp,
	"system":     types.TierSystem,
	"settings":   types.TierPrivileged,
}

type testEnv struct {
	wifi  *sim.Wifi
	mgr   *Manager
	store *chipstore.MemStore
	clock *fakeClock
	pub   *MemoryPublisher
}

func newTestEnv(t *testing.T, specs []sim.ChipSpec, mutate func(*Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		wifi:  sim.New(specs...),
		store: chipstore.NewMemStore(),
		clock: newFakeClock(),
		pub:   NewMemoryPublisher(),
	}
	cfg := Config{
		Hal:                env.wifi,
		Store:              env.store,
		Resolver:           priority.NewTableResolver(testTiers),
		Clock:              env.clock.Now,
		Logger:             zerolog.Nop(),
		Events:             env.pub,
		StartRetryInterval: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	env.mgr = New(cfg)
	env.mgr.Initialize()
	t.Cleanup(env.mgr.Close)
	return env
}

func startedEnv(t *testing.T, specs []sim.ChipSpec, mutate func(*Config)) *testEnv {
	t.Helper()
	env := newTestEnv(t, specs, mutate)
	if !env.mgr.Start() {
		t.Fatalf("start failed")
	}
	return env
}

func ws(holders ...string) types.WorkSource { return types.NewWorkSource(holders...) }

func mustCreate(t *testing.T, m *Manager, req IfaceRequest) string {
	t.Helper()
	iface, err := m.CreateIface(req)
	if err != nil {
		t.Fatalf("create %s for %s: %v", req.Type, req.WorkSource, err)
	}
	return iface.Name()
}

// singleStaApSpecs: mode 0 hosts one STA, mode 1 hosts one AP. Forces a mode
// switch between STA and AP use.
func singleStaApSpecs() []sim.ChipSpec {
	return []sim.ChipSpec{{
		ID:           0,
		Capabilities: 0xff,
		Modes: []types.ChipMode{
			{ID: 0, AvailableCombinations: []types.ConcurrencyCombination{
				{Limits: []types.ConcurrencyLimit{{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceSta}}}},
			}},
			{ID: 1, AvailableCombinations: []types.ConcurrencyCombination{
				{Limits: []types.ConcurrencyLimit{{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceAp}}}},
			}},
		},
		RttModes: []int{0},
	}}
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}
