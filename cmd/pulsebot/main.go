package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulsebot",
		Short: "Task management over chat",
		Long:  `Pulsebot turns chat messages into task-list queries and mutations: list, complete by number, and add tasks from any linked Telegram chat.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.pulsebot/config.yaml)")

	rootCmd.AddCommand(
		newStartCmd(),
		newInitCmd(),
		newUserCmd(),
		newProjectCmd(),
		newLinkCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show Pulsebot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Pulsebot v%s\n", version)
		},
	}
}
