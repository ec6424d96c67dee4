package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the resolved configuration: providers, scale-tier models, memory and safety settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAppFromRootFlags(cmd)
			if err != nil {
				return err
			}
			cfg := a.cfg

			fmt.Println("providers:")
			for _, name := range sortedProviderNames(cfg) {
				pc := cfg.LLM.Providers[name]
				fmt.Printf("  %-24s type=%-8s model=%s\n", name, pc.Type, pc.Model)
			}

			fmt.Println("scale tiers:")
			for _, tier := range []string{"logic", "tiny", "standard", "heavy"} {
				fmt.Printf("  %-10s -> %s\n", tier, cfg.Router.ModelsByTier[tier])
			}

			fmt.Printf("memory: hot_capacity=%d cold_path=%s\n", cfg.Memory.HotCapacity, cfg.Memory.ColdPath)
			fmt.Printf("safety: deny_below=%.2f approve_above=%.2f\n", cfg.Safety.AssuranceDenyBelow, cfg.Safety.AssuranceApproveAbove)
			fmt.Printf("supervisor: max_escalations=%d concurrency_cap=%d\n", cfg.Supervisor.MaxEscalations, cfg.Supervisor.ConcurrencyCap)
			fmt.Printf("history: path=%s max_bytes=%d\n", cfg.History.Path, cfg.History.MaxBytes)
			return nil
		},
	}
}
