package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/annotok/pkg/annotok/store/sqlite"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		dbPath   string
		category string
		top      int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the most frequent stored terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return errors.New("--db required")
			}
			return a.stats(cmd.Context(), dbPath, category, top)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database written by analyze")
	cmd.Flags().StringVar(&category, "category", "", "Only count tokens with this tag")
	cmd.Flags().IntVar(&top, "top", 20, "Number of terms to print")
	return cmd
}

func (a *app) stats(ctx context.Context, dbPath, category string, top int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	terms, err := st.TopTerms(ctx, category, top)
	if err != nil {
		return err
	}
	for _, tc := range terms {
		if _, err := fmt.Fprintf(a.stdout, "%s\t%s\t%d\n", tc.Term, tc.Tag, tc.Count); err != nil {
			return err
		}
	}
	return nil
}
