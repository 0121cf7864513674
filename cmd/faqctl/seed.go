package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gat-college/faqbot/internal/config"
	"github.com/gat-college/faqbot/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert FAQs, departments and contacts from a dataset",
		Long: `Seed upserts the embedded default dataset, or the YAML file given with
--file, into the configured store. Running it twice changes nothing.
FAQs are keyed by their normalized question, departments by dept_id and
contacts by role.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), config.ToolOperation)
			defer cancel()

			ds, err := loadDataset(file)
			if err != nil {
				return err
			}

			env, err := openEnv(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			var report seed.Report
			err = env.withLock(ctx, "seed", func(ctx context.Context) error {
				report, err = seed.NewSeeder(env.store, env.log).Seed(ctx, ds)
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML dataset to seed instead of the embedded default")
	return cmd
}

func loadDataset(file string) (*seed.Dataset, error) {
	if file == "" {
		return seed.Default()
	}
	return seed.LoadFile(file)
}
