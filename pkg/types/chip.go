package types

// ConcurrencyLimit describes one slot group of a concurrency combination: up
// to MaxIfaces interfaces, each of any type in Types.
type ConcurrencyLimit struct {
	MaxIfaces int         `json:"maxIfaces" yaml:"maxIfaces"`
	Types     []IfaceType `json:"types" yaml:"types"`
}

// ConcurrencyCombination is a multiset of limits that may be populated
// simultaneously while the chip is in the owning mode.
type ConcurrencyCombination struct {
	Limits []ConcurrencyLimit `json:"limits" yaml:"limits"`
}

// ChipMode is one configuration state of a chip. A chip is in exactly one
// mode at a time (or unconfigured); the currently-created interfaces must fit
// into some combination of the current mode.
type ChipMode struct {
	ID                    int                      `json:"id" yaml:"id"`
	AvailableCombinations []ConcurrencyCombination `json:"availableCombinations" yaml:"availableCombinations"`
}

// StaticChipInfo is the persisted snapshot of a chip's identity and supported
// modes, used to answer capability queries before the driver is up. The JSON
// field names are the on-disk wire format and must not change.
type StaticChipInfo struct {
	ChipID           int        `json:"chipId"`
	ChipCapabilities uint64     `json:"chipCapabilities"`
	AvailableModes   []ChipMode `json:"availableModes"`
}

// Band identifiers used in radio combination reporting.
const (
	Band24Ghz = 1
	Band5Ghz  = 2
	Band6Ghz  = 4
)
