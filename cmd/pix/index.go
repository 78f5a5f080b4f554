package main

import (
	"fmt"

	"github.com/4thel00z/pixseek/internal"
	"github.com/spf13/cobra"
)

func NewIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index <dir>",
		Short: "Index the images in a folder",
		Long: `Encode every supported image in a folder and report how many were
indexed. Files listed in the folder's .pixignore are left out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}

			uc := a.useCases(a.cfg.Search.Threshold)
			out, err := uc.Index.Execute(cmd.Context(), internal.IndexInput{Folder: args[0]})
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			return printIndexed(cmd.OutOrStdout(), out, asJSON(cmd))
		},
	}
}
