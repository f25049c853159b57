package types

import (
	"fmt"
	"sort"
	"strings"
)

// IfaceType identifies the kind of radio interface that can be created on a
// chip. AP_BRIDGED is a distinct create type even though it is backed by AP
// hardware slots: it spans two radio instances and can be partially
// downgraded to a single AP.
type IfaceType int

const (
	IfaceSta IfaceType = iota
	IfaceAp
	IfaceApBridged
	IfaceP2p
	IfaceNan

	NumIfaceTypes = 5
)

// CreateTypesByPriority is the fixed iteration order used when comparing
// creation proposals and when accounting victims per type.
var CreateTypesByPriority = []IfaceType{IfaceAp, IfaceApBridged, IfaceSta, IfaceP2p, IfaceNan}

func (t IfaceType) String() string {
	switch t {
	case IfaceSta:
		return "STA"
	case IfaceAp:
		return "AP"
	case IfaceApBridged:
		return "AP_BRIDGED"
	case IfaceP2p:
		return "P2P"
	case IfaceNan:
		return "NAN"
	default:
		return fmt.Sprintf("IfaceType(%d)", int(t))
	}
}

// ParseIfaceType parses the string form produced by String.
func ParseIfaceType(s string) (IfaceType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STA":
		return IfaceSta, nil
	case "AP":
		return IfaceAp, nil
	case "AP_BRIDGED":
		return IfaceApBridged, nil
	case "P2P":
		return IfaceP2p, nil
	case "NAN":
		return IfaceNan, nil
	default:
		return 0, fmt.Errorf("unknown iface type: %q", s)
	}
}

// Tier is the priority level assigned to a requestor work source. Higher
// values outrank lower ones when deciding evictions.
type Tier int

const (
	TierInternal Tier = iota
	TierBackground
	TierFgService
	TierFgApp
	TierSystem
	TierPrivileged

	TierMin = TierInternal
	TierMax = TierPrivileged
)

func (p Tier) String() string {
	switch p {
	case TierInternal:
		return "internal"
	case TierBackground:
		return "background"
	case TierFgService:
		return "fg_service"
	case TierFgApp:
		return "fg_app"
	case TierSystem:
		return "system"
	case TierPrivileged:
		return "privileged"
	default:
		return fmt.Sprintf("tier(%d)", int(p))
	}
}

// WorkSource attributes an interface request to one or more holders (apps or
// platform subsystems). The holder set is replaceable over the lifetime of an
// interface via ReplaceRequestorWs.
type WorkSource struct {
	Holders []string `json:"holders"`
}

// NewWorkSource builds a WorkSource from holder names.
func NewWorkSource(holders ...string) WorkSource {
	return WorkSource{Holders: holders}
}

// Equal reports whether two work sources contain the same holder set,
// ignoring order.
func (w WorkSource) Equal(other WorkSource) bool {
	if len(w.Holders) != len(other.Holders) {
		return false
	}
	a := append([]string(nil), w.Holders...)
	b := append([]string(nil), other.Holders...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (w WorkSource) String() string {
	return strings.Join(w.Holders, ",")
}
