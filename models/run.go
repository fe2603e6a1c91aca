package models

// RunRecord describes one stored simulation run.
type RunRecord struct {
	ID        string      `json:"id"`
	Seed      uint64      `json:"seed"`
	Ticks     int         `json:"ticks"`
	CreatedAt int64       `json:"created_at"` // unix timestamp in ms
	Final     TickMetrics `json:"final"`
}

// AnalysisReport holds the closed-form outcome probabilities for one parameter set.
type AnalysisReport struct {
	VirtualStakers          int     `json:"virtual_stakers"`
	MaliciousVirtualStakers int     `json:"malicious_virtual_stakers"`
	GroupSize               int     `json:"group_size"`
	SharesRequired          int     `json:"shares_required"`
	Compromised             float64 `json:"compromised"`
	SigFail                 float64 `json:"sigfail"`
	Lynchpinned             float64 `json:"lynchpinned"`
	CleanSuccess            float64 `json:"clean_success"`
}

// EnsembleStat is the mean and spread of one aggregate over a batch of runs.
type EnsembleStat struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
}

// EnsembleReport compares a batch of simulation runs with the analytical model.
type EnsembleReport struct {
	Runs        int            `json:"runs"`
	Ticks       int            `json:"ticks"`
	Compromised EnsembleStat   `json:"compromised"`
	Failed      EnsembleStat   `json:"failed"`
	Lynchpinned EnsembleStat   `json:"lynchpinned"`
	Dominated   EnsembleStat   `json:"dominated"`
	Analytical  AnalysisReport `json:"analytical"`
}
