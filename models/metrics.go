package models

// TickMetrics is the aggregate view of one simulation tick. Ratio fields are
// nil until at least one sample exists.
type TickMetrics struct {
	Tick                int  `json:"tick"`
	RelayRequest        bool `json:"relay_request"`
	ActiveNodes         int  `json:"active_nodes"`
	ActiveGroups        int  `json:"active_groups"`
	TotalGroups         int  `json:"total_groups"`
	TotalSignatures     int  `json:"total_signatures"`
	CompletedSignatures int  `json:"completed_signatures"`
	SkippedSignatures   int  `json:"skipped_signatures"`

	MedianMaliciousGroupPercent  *float64 `json:"median_malicious_group_percent"`
	CompromisedGroupsPercent     *float64 `json:"compromised_groups_percent"`
	MedianDominatorPercent       *float64 `json:"median_dominator_percent"`
	DominatedSignaturesPercent   *float64 `json:"dominated_signatures_percent"`
	MedianOfflinePercent         *float64 `json:"median_offline_percent"`
	FailedSignaturesPercent      *float64 `json:"failed_signatures_percent"`
	LynchpinnedSignaturesPercent *float64 `json:"lynchpinned_signatures_percent"`
}
