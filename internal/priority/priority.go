// Package priority classifies interface requestors into eviction tiers. The
// platform decides what a holder is (settings, system service, foreground
// app); this package only maps holders to tiers, keeping the planner free of
// platform specifics.
package priority

import "wifidm/pkg/types"

// Resolver maps a work source to its priority tier.
type Resolver interface {
	PriorityOf(ws types.WorkSource) types.Tier
}

// TableResolver resolves tiers from a static holder table. A work source's
// tier is the maximum tier across its holders; unknown holders get the
// default tier. A nil or empty work source is internal.
type TableResolver struct {
	Tiers   map[string]types.Tier
	Default types.Tier
}

// NewTableResolver builds a resolver with the given holder table and
// background as the default tier.
func NewTableResolver(tiers map[string]types.Tier) *TableResolver {
	return &TableResolver{Tiers: tiers, Default: types.TierBackground}
}

func (r *TableResolver) PriorityOf(ws types.WorkSource) types.Tier {
	if len(ws.Holders) == 0 {
		return types.TierInternal
	}
	top := types.TierMin
	for _, h := range ws.Holders {
		t, ok := r.Tiers[h]
		if !ok {
			t = r.Default
		}
		if t > top {
			top = t
		}
	}
	return top
}

// FixedResolver returns the same tier for every work source; used in tests
// and as a safe default when no platform integration is wired.
type FixedResolver types.Tier

func (r FixedResolver) PriorityOf(types.WorkSource) types.Tier { return types.Tier(r) }

// ParseTier maps a configuration tier name to its Tier value.
func ParseTier(name string) (types.Tier, bool) {
	switch name {
	case "internal":
		return types.TierInternal, true
	case "background", "bg":
		return types.TierBackground, true
	case "fg_service":
		return types.TierFgService, true
	case "fg_app":
		return types.TierFgApp, true
	case "system":
		return types.TierSystem, true
	case "privileged":
		return types.TierPrivileged, true
	}
	return types.TierBackground, false
}
