package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricofy/catalog-translator/internal/orchestrator"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		ids    []int64
		target string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Translate products synchronously and print the run summary",
		Example: `  translator run --ids 12,15,18 --target de
  translator run --ids 7 --settings ./settings.yaml --multilingual`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(ids) == 0 {
				return errors.New("--ids is required")
			}
			ctx := cmd.Context()

			c, err := opts.build()
			if err != nil {
				return err
			}
			defer c.Close()

			s, err := c.settings.Load(ctx)
			if err != nil {
				return fmt.Errorf("settings: %w", err)
			}

			summary, runErr := c.orch.Run(ctx, ids, target, s)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), orchestrator.String(summary))
			return runErr
		},
	}

	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "product ids to translate")
	cmd.Flags().StringVar(&target, "target", "", "target language (default: settings target_lang)")
	return cmd
}
