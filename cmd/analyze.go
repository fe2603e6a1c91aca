package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"beacon-sim/analysis"
)

var (
	flagVirtualStakers int
	flagAdversaryPower float64
	flagGroupSize      int
	flagSharesRequired int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the analytical outcome probabilities",
	RunE:  analyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&flagVirtualStakers, "virtual-stakers", 0,
		"total tickets in the network")
	analyzeCmd.Flags().Float64Var(&flagAdversaryPower, "adversary-power", 0,
		"fraction of tickets held by the adversary")
	analyzeCmd.Flags().IntVar(&flagGroupSize, "group-size", 0,
		"members per group")
	analyzeCmd.Flags().IntVar(&flagSharesRequired, "shares-required", 0,
		"signature shares needed to sign")
}

func analyze(cmd *cobra.Command, _ []string) error {
	p := cfg.AnalysisParams()
	if cmd.Flags().Changed("virtual-stakers") {
		p.VirtualStakers = flagVirtualStakers
	}
	if cmd.Flags().Changed("adversary-power") {
		p.AdversaryPower = flagAdversaryPower
	}
	if cmd.Flags().Changed("group-size") {
		p.GroupSize = flagGroupSize
	}
	if cmd.Flags().Changed("shares-required") {
		p.SharesRequired = flagSharesRequired
	}

	m, err := analysis.New(p)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(m.Report())
}
