package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func knowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the shared knowledge base",
	}
	cmd.AddCommand(knowledgeLoadCmd())
	return cmd
}

func knowledgeLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Bulk-load a JSON Q&A corpus into the knowledge tier",
		Long: `Reads a JSON array of {"question", "answer", "category"} objects,
embeds every question and upserts the pairs into the shared knowledge
collection. Per-user caches are not touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			logger := newLogger(p)
			slog.SetDefault(logger)

			svcs, err := buildServices(cmd.Context(), p, logger)
			if err != nil {
				return err
			}
			defer svcs.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "open corpus %s", args[0])
			}
			defer f.Close()

			loaded, err := svcs.Cache.LoadKnowledgeBase(cmd.Context(), f)
			if err != nil {
				return errors.Wrap(err, "load knowledge base")
			}
			fmt.Printf("loaded %d knowledge entries\n", loaded)
			return nil
		},
	}
}
