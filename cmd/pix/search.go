package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/pixseek/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find images matching a description",
		Long: `Index a folder and rank its images against a text query in one go.
Nothing is persisted between runs.`,
		Args: cobra.ExactArgs(1),
		RunE: makeSearchRunner(a),
	}

	cmd.Flags().StringP("dir", "d", ".", "Folder to search")
	cmd.Flags().IntP("number", "n", internal.DefaultTopK, "Maximum results (0 for all)")
	cmd.Flags().Float32("threshold", internal.DefaultThreshold, "Minimum similarity score")
	return cmd
}

func makeSearchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		// Reject before indexing so a blank query never reaches the encoder.
		if strings.TrimSpace(args[0]) == "" {
			return fmt.Errorf("search: %w", internal.ErrEmptyQuery)
		}

		if err := a.open(cmd); err != nil {
			return err
		}

		uc := a.useCases(a.threshold(cmd))

		indexed, err := uc.Index.Execute(cmd.Context(), internal.IndexInput{Folder: dir})
		if err != nil {
			return fmt.Errorf("index: %w", err)
		}

		out, err := uc.Search.Execute(cmd.Context(), internal.SearchInput{
			Query: args[0],
			TopK:  a.topK(cmd),
			Index: indexed.Vector,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		return printResults(cmd.OutOrStdout(), out, asJSON(cmd))
	}
}
