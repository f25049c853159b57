package manager

import (
	"time"

	"github.com/rs/zerolog"

	"wifidm/internal/chipstore"
	"wifidm/internal/hal"
	"wifidm/internal/priority"
	"wifidm/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultStartRetryTimes    = 3
	defaultStartRetryInterval = 20 * time.Millisecond
	defaultP2pIdleTimeout     = 10 * time.Minute
)

// BridgedApDowngradeFn names the bridged-AP instance that can be torn down to
// downgrade the given bridged AP to a single AP, or ok=false when the AP
// cannot be downgraded. Provided by the SoftAp collaborator.
type BridgedApDowngradeFn func(ifaceName string) (instance string, ok bool)

// Config encapsulates all tunables and collaborators for Manager
// construction.
type Config struct {
	Hal      hal.Wifi
	Store    chipstore.Store
	Resolver priority.Resolver
	Clock    func() time.Time
	Logger   zerolog.Logger
	Events   EventPublisher

	BridgedApDowngrade BridgedApDowngradeFn

	// Cross-handler destroy callbacks block the destroying goroutine until
	// the callback completes.
	WaitForDestroyedListeners bool

	// P2P interfaces disconnected longer than this become opportunistic.
	// Zero means the default; negative disables the downgrade.
	P2pIdleTimeout time.Duration

	StartRetryTimes    int
	StartRetryInterval time.Duration
}

// New constructs a Manager from Config, applying package defaults.
func New(cfg Config) *Manager {
	m := &Manager{
		hal:       cfg.Hal,
		store:     cfg.Store,
		resolver:  cfg.Resolver,
		clock:     cfg.Clock,
		log:       cfg.Logger,
		events:    cfg.Events,
		downgrade: cfg.BridgedApDowngrade,

		waitForDestroyedListeners: cfg.WaitForDestroyedListeners,
		p2pIdleTimeout:            cfg.P2pIdleTimeout,
		startRetryTimes:           cfg.StartRetryTimes,
		startRetryInterval:        cfg.StartRetryInterval,

		registry:        make(map[ifaceKey]*ifaceRecord),
		statusListeners: make(map[StatusListener]*statusListenerProxy),
		restartListeners: make(map[SubsystemRestartListener]*restartListenerProxy),
		rttListeners:    make(map[RttControllerLifecycleListener]*rttListenerProxy),
	}
	if m.resolver == nil {
		m.resolver = priority.FixedResolver(types.TierBackground)
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.events == nil {
		m.events = noopPublisher{}
	}
	if m.store == nil {
		m.store = chipstore.NewMemStore()
	}
	if m.p2pIdleTimeout == 0 {
		m.p2pIdleTimeout = defaultP2pIdleTimeout
	}
	if m.startRetryTimes <= 0 {
		m.startRetryTimes = defaultStartRetryTimes
	}
	if m.startRetryInterval <= 0 {
		m.startRetryInterval = defaultStartRetryInterval
	}
	m.eventHandler = NewHandler("wifidm-events")
	return m
}
