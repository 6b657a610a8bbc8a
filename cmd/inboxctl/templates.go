package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replyflow/inbox/internal/seed"
	"github.com/replyflow/inbox/internal/service"
	"github.com/replyflow/inbox/pkg/logger"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Preview template placeholders and rendering",
	}
	cmd.AddCommand(newTemplatesVarsCmd())
	cmd.AddCommand(newTemplatesRenderCmd())
	return cmd
}

func newTemplatesVarsCmd() *cobra.Command {
	var unique bool

	cmd := &cobra.Command{
		Use:   "vars <content>",
		Short: "List the {{name}} placeholders in a template body",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			vars := service.ExtractVariables(args[0])
			if unique {
				vars = service.UniqueVariables(vars)
			}
			for _, v := range vars {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
		},
	}

	cmd.Flags().BoolVar(&unique, "unique", false, "drop repeated names")
	return cmd
}

func newTemplatesRenderCmd() *cobra.Command {
	var (
		file string
		id   int
		vars []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template from a fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseVars(vars)
			if err != nil {
				return err
			}

			templates, err := seed.Templates(file)
			if err != nil {
				return err
			}

			svc := service.NewTemplateService(templates, logger.Global())
			result, err := svc.Render(cmd.Context(), id, values)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "template fixture file (default: built-in templates)")
	cmd.Flags().IntVar(&id, "id", 0, "template ID")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "placeholder value as name=value (repeatable)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func parseVars(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}
