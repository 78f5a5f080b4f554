package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/4thel00z/pixseek/internal"
	"github.com/spf13/cobra"
)

type indexJSON struct {
	Folder  string `json:"folder"`
	Indexed int    `json:"indexed"`
	Skipped int    `json:"skipped"`
	Ignored int    `json:"ignored"`
}

type resultJSON struct {
	Path  string  `json:"path"`
	Score float32 `json:"score"`
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printIndexed(w io.Writer, out *internal.IndexOutput, jsonOut bool) error {
	if jsonOut {
		return writeJSON(w, indexJSON{
			Folder:  out.Folder,
			Indexed: out.Indexed,
			Skipped: out.Skipped,
			Ignored: out.Ignored,
		})
	}

	fmt.Fprintf(w, "Indexed %d images from %s", out.Indexed, out.Folder)
	if out.Skipped > 0 || out.Ignored > 0 {
		fmt.Fprintf(w, " (%d skipped, %d ignored)", out.Skipped, out.Ignored)
	}
	fmt.Fprintln(w)
	return nil
}

func printResults(w io.Writer, out *internal.SearchOutput, jsonOut bool) error {
	if jsonOut {
		results := make([]resultJSON, 0, len(out.Results))
		for _, r := range out.Results {
			results = append(results, resultJSON{Path: r.Path, Score: r.Score})
		}
		return writeJSON(w, results)
	}

	if len(out.Results) == 0 {
		fmt.Fprintf(w, "No images matched %q.\n", out.Query)
		return nil
	}

	for _, r := range out.Results {
		fmt.Fprintf(w, "%.4f  %s\n", r.Score, r.Path)
	}
	return nil
}
