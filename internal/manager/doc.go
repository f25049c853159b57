// Package manager provides chip and interface lifecycle coordination: it
// owns the interface registry, decides which requests are admitted, and
// evicts or downgrades lower-priority interfaces to make room. It is
// structured into small files by concern:
//
//   - manager.go: core Manager type, lifecycle entry points, status snapshot.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: internal state types (ifaceRecord, chipInfo, proposal) and
//     the listener interfaces.
//   - errors.go: error types and helpers (IsRefused, IsHalError).
//   - handler.go: serial callback executor used as a listener dispatch target.
//   - chipinfo.go: chip snapshot assembly, static chip info persistence,
//     band combination queries.
//   - plan.go: the admission planner (combination expansion, proposal
//     comparison).
//   - evict.go: the priority rules (eviction permission, victim selection,
//     bridged-AP downgrade selection).
//   - create.go: interface creation/removal and plan execution.
//   - impact.go: what-if queries (ReportImpactToCreateIface and friends).
//   - lifecycle.go: HAL start/stop, event callback and death recipient.
//   - rtt.go: shared RTT controller lifecycle.
//   - dispatch.go: listener proxies and deferred callback dispatch.
//   - registry.go: owned-interface bookkeeping and cache validation.
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus counters.
//
// External packages should treat this package as the orchestration layer and
// use public methods only (e.g., New, Initialize, Start, CreateIface,
// ReportImpactToCreateIface). Internal types are subject to change.
package manager
