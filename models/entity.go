package models

// EntityKind tags the three simulated entity variants.
type EntityKind string

const (
	KindNode      EntityKind = "node"
	KindGroup     EntityKind = "group"
	KindSignature EntityKind = "signature"
)

// Valid reports whether k names a known entity variant.
func (k EntityKind) Valid() bool {
	switch k {
	case KindNode, KindGroup, KindSignature:
		return true
	}
	return false
}

// EntityReport is the per-entity reporting row. Fields that do not apply to a
// kind are left nil and omitted from JSON.
type EntityReport struct {
	ID     int        `json:"id"`     // unique across all kinds within a run
	Kind   EntityKind `json:"kind"`   // node, group or signature
	Status string     `json:"status"` // connected/disconnected, dkg/active/expired, started/complete

	// node
	Owner     *int  `json:"owner,omitempty"`
	Tickets   *int  `json:"tickets,omitempty"`
	Malicious *bool `json:"malicious,omitempty"`
	Dead      *bool `json:"dead,omitempty"`

	// group and signature
	Ownership map[int]int `json:"ownership,omitempty"` // node id -> tickets held in the group
	GroupID   *int        `json:"group_id,omitempty"`

	DKGBlockDelay    *int     `json:"dkg_block_delay,omitempty"`
	MaliciousPercent *float64 `json:"malicious_percent,omitempty"`
	OfflinePercent   *float64 `json:"offline_percent,omitempty"`
	DominatorPercent *float64 `json:"dominator_percent,omitempty"`
	LynchpinPercent  *float64 `json:"lynchpin_percent,omitempty"`
}
