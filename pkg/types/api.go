package types

// IfaceView is a read-only projection of one registry record for /v1/ifaces.
type IfaceView struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	ChipID     int        `json:"chip_id"`
	WorkSource WorkSource `json:"work_source"`
	CreatedAt  int64      `json:"created_at_unix_ms"`
}

// ChipStatus summarizes one chip for /v1/status.
type ChipStatus struct {
	ChipID      int  `json:"chip_id"`
	ModeID      int  `json:"mode_id"`
	ModeIDValid bool `json:"mode_id_valid"`
	NumIfaces   int  `json:"num_ifaces"`
}

// StatusResponse is the payload of GET /v1/status.
type StatusResponse struct {
	Started bool         `json:"started"`
	Ready   bool         `json:"ready"`
	Chips   []ChipStatus `json:"chips"`
	Ifaces  []IfaceView  `json:"ifaces"`
}

// CreateIfaceRequest is the payload of POST /v1/ifaces.
type CreateIfaceRequest struct {
	Type                 string     `json:"type"`
	WorkSource           WorkSource `json:"work_source"`
	RequiredCapabilities uint64     `json:"required_capabilities,omitempty"`
}

// CreateIfaceResponse reports the created interface name.
type CreateIfaceResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ImpactRequest is the payload of POST /v1/impact.
type ImpactRequest struct {
	Type       string     `json:"type"`
	QueryOnly  bool       `json:"query_only"`
	WorkSource WorkSource `json:"work_source"`
}

// ImpactEntry names one interface that would be destroyed by the proposed
// creation, together with its owning work source.
type ImpactEntry struct {
	Type       string     `json:"type"`
	WorkSource WorkSource `json:"work_source"`
}

// ImpactResponse is the payload of a successful impact query. Possible=false
// means the request cannot be satisfied under any chip mode.
type ImpactResponse struct {
	Possible bool          `json:"possible"`
	Victims  []ImpactEntry `json:"victims,omitempty"`
}

// CapabilitiesResponse is the payload of GET /v1/capabilities. ComboSupported
// is set only when the request carried a ?types= concurrency query.
type CapabilitiesResponse struct {
	Chips          []StaticChipInfo `json:"chips"`
	SupportedTypes []string         `json:"supported_types"`
	ComboSupported *bool            `json:"combo_supported,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
