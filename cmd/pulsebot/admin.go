package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pulsepro/pulsebot/internal/config"
	"github.com/pulsepro/pulsebot/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("🔧 Wrote default config to %s\n", path)
			fmt.Println("Set telegram.bot_token and telegram.enabled, then run: pulsebot start")
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	var plan string

	cmd := &cobra.Command{
		Use:   "user add",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1), // the literal "add"
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "add" {
				return fmt.Errorf("unknown subcommand %q, expected: user add", args[0])
			}

			taskStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = taskStore.Close() }()

			user, err := taskStore.CreateUser(store.Plan(plan))
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Printf("👤 Created user %s (%s plan)\n", user.ID, user.Plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&plan, "plan", string(store.PlanFree), "Billing plan: free, pro, or team")
	return cmd
}

func newProjectCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "project add <name>",
		Short: "Create a project for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "add" {
				return fmt.Errorf("unknown subcommand %q, expected: project add <name>", args[0])
			}

			taskStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = taskStore.Close() }()

			project, err := taskStore.CreateProject(userID, args[1])
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}
			fmt.Printf("📁 Created project %q (%s)\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owning user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLinkCmd() *cobra.Command {
	var userID, chatID string

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a Telegram chat to a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			taskStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = taskStore.Close() }()

			if err := taskStore.LinkChat(userID, chatID); err != nil {
				return fmt.Errorf("failed to link chat: %w", err)
			}
			fmt.Printf("🔗 Linked chat %s to user %s\n", chatID, userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id to link")
	cmd.Flags().StringVar(&chatID, "chat", "", "Telegram chat id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("chat")
	return cmd
}

// openStore loads config and opens the task store for admin commands.
func openStore(cmd *cobra.Command) (*store.SQLiteStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	taskStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}
	return taskStore, nil
}
