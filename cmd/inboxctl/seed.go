package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replyflow/inbox/internal/seed"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Inspect seed fixtures",
	}
	cmd.AddCommand(newSeedCheckCmd())
	return cmd
}

func newSeedCheckCmd() *cobra.Command {
	var conversationsFile, templatesFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate conversation and template fixtures",
		Long:  "Loads the fixtures (the built-in ones when no file is given) and reports records the stores would misbehave on.",
		RunE: func(cmd *cobra.Command, args []string) error {
			conversations, err := seed.Conversations(conversationsFile)
			if err != nil {
				return err
			}
			templates, err := seed.Templates(templatesFile)
			if err != nil {
				return err
			}

			problems := seed.Check(conversations, templates)
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p.String())
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) found", len(problems))
			}

			fmt.Fprintf(out, "ok: %d conversations, %d templates\n", len(conversations), len(templates))
			return nil
		},
	}

	cmd.Flags().StringVar(&conversationsFile, "conversations", "", "conversation fixture file (JSON or YAML)")
	cmd.Flags().StringVar(&templatesFile, "templates", "", "template fixture file (JSON or YAML)")
	return cmd
}
