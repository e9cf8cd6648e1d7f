package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pulsepro/pulsebot/internal/health"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local setup for problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			report := health.RunChecks(cfg)

			fmt.Println("🩺 Pulsebot doctor")
			fmt.Println()
			for _, check := range report.Checks {
				fmt.Printf("%s %s: %s\n", check.Status.Symbol(), check.Name, check.Message)
				if check.Fix != "" {
					fmt.Printf("   Fix: %s\n", check.Fix)
				}
			}
			fmt.Println()

			if !report.Healthy() {
				return fmt.Errorf("some checks failed")
			}
			fmt.Println("All checks passed.")
			return nil
		},
	}
}
