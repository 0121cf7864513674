package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gat-college/faqbot/internal/config"
	"github.com/gat-college/faqbot/internal/seed"
)

func newDedupCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Collapse FAQs with the same normalized question",
		Long: `Dedup fills missing q_norm values, backs up every FAQ that shares a
q_norm with another, keeps the oldest of each group and deletes the rest,
then creates the unique q_norm index. With R2 configured the backed-up
rows are also uploaded as a zstd-compressed JSON lines archive.

--dry-run backs up and reports the plan but deletes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), config.ToolOperation)
			defer cancel()

			env, err := openEnv(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			var archive seed.Uploader
			if env.r2 != nil {
				archive = env.r2
			}

			var report seed.DedupReport
			err = env.withLock(ctx, "dedup", func(ctx context.Context) error {
				report, err = seed.NewDeduper(env.store, archive, env.log).Run(ctx, seed.DedupOptions{DryRun: dryRun})
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report and back up without deleting or indexing")
	return cmd
}
