package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replyflow/inbox/internal/seed"
	"github.com/replyflow/inbox/internal/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage store snapshots",
	}
	cmd.AddCommand(newSnapshotSeedCmd())
	cmd.AddCommand(newSnapshotShowCmd())
	return cmd
}

func snapshotFlags(cmd *cobra.Command, driver, dsn *string) {
	cmd.Flags().StringVar(driver, "driver", snapshot.DriverSQLite, "snapshot database driver (sqlite or mysql)")
	cmd.Flags().StringVar(dsn, "dsn", "", "snapshot database DSN")
	cmd.MarkFlagRequired("dsn")
}

func newSnapshotSeedCmd() *cobra.Command {
	var driver, dsn, conversationsFile, templatesFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace a snapshot with seed fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			conversations, err := seed.Conversations(conversationsFile)
			if err != nil {
				return err
			}
			templates, err := seed.Templates(templatesFile)
			if err != nil {
				return err
			}
			if problems := seed.Check(conversations, templates); len(problems) > 0 {
				return fmt.Errorf("seed has %d problem(s), first: %s", len(problems), problems[0])
			}

			store, err := snapshot.Open(driver, dsn)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(cmd.Context(), conversations, templates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d conversations, %d templates\n", len(conversations), len(templates))
			return nil
		},
	}

	snapshotFlags(cmd, &driver, &dsn)
	cmd.Flags().StringVar(&conversationsFile, "conversations", "", "conversation fixture file")
	cmd.Flags().StringVar(&templatesFile, "templates", "", "template fixture file")
	return cmd
}

func newSnapshotShowCmd() *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize a stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.Open(driver, dsn)
			if err != nil {
				return err
			}
			defer store.Close()

			conversations, templates, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range conversations {
				fmt.Fprintf(out, "conversation %d\t%s\t%s\t%s\tunread=%d\tmessages=%d\n",
					c.ID, c.CustomerName, c.Platform, c.Status, c.UnreadCount, len(c.Messages))
			}
			for _, t := range templates {
				fmt.Fprintf(out, "template %d\t%s\t%s\n", t.ID, t.Category, t.Title)
			}
			return nil
		},
	}

	snapshotFlags(cmd, &driver, &dsn)
	return cmd
}
