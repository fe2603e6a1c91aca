package beacon

import (
	"github.com/montanaflynn/stats"

	"beacon-sim/models"
)

// aggregate computes the population-wide metrics from the current entity
// state. Groups are counted regardless of status; signatures only once they
// are complete.
func (s *Simulation) aggregate() models.TickMetrics {
	m := models.TickMetrics{
		TotalGroups:       len(s.groups),
		TotalSignatures:   len(s.signatures),
		SkippedSignatures: s.skippedSignatures,
	}

	malicious := make([]float64, 0, len(s.groups))
	compromised := 0
	for _, g := range s.groups {
		malicious = append(malicious, g.maliciousPercent)
		if g.maliciousPercent >= s.cfg.CompromiseThreshold {
			compromised++
		}
	}
	m.MedianMaliciousGroupPercent = median(malicious)
	m.CompromisedGroupsPercent = ratio(compromised, len(s.groups))

	var dominator, offline []float64
	dominated, failed, lynchpinned := 0, 0, 0
	for _, sig := range s.signatures {
		if !sig.Complete() {
			continue
		}
		dominator = append(dominator, sig.dominatorPercent)
		offline = append(offline, sig.offlinePercent)
		if sig.dominatorPercent >= s.cfg.DominationThreshold {
			dominated++
		}
		switch {
		case sig.offlinePercent >= s.cfg.FailedSignatureThreshold:
			failed++
		case sig.Withheld() >= s.cfg.FailedSignatureThreshold:
			lynchpinned++
		}
	}
	m.CompletedSignatures = len(dominator)
	m.MedianDominatorPercent = median(dominator)
	m.MedianOfflinePercent = median(offline)
	m.DominatedSignaturesPercent = ratio(dominated, len(dominator))
	m.FailedSignaturesPercent = ratio(failed, len(dominator))
	m.LynchpinnedSignaturesPercent = ratio(lynchpinned, len(dominator))
	return m
}

func median(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	v, err := stats.Median(xs)
	if err != nil {
		return nil
	}
	return &v
}

func ratio(n, total int) *float64 {
	if total == 0 {
		return nil
	}
	v := float64(n) / float64(total)
	return &v
}
