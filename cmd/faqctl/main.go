// Package main is faqctl, the maintenance tool for the FAQ store.
//
//	faqctl seed [--file dataset.yaml]
//	faqctl dedup [--dry-run]
//	faqctl version
//
// seed and dedup need MONGO_URL or SQLITE_PATH; they refuse the
// in-memory store. When R2 is configured, both hold a lock object in the
// bucket for the duration of the run and dedup uploads its archive there.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "faqctl",
		Short:         "Seed and maintain the FAQ chatbot store",
		SilenceUsage:  true,
	}
	root.AddCommand(newSeedCmd(), newDedupCmd(), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
