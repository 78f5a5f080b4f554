package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/4thel00z/pixseek/internal"
	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  open <dir>   index a folder (replaces the current index)
  <query>      search the current index
  help         show this message
  quit         leave the shell`

func NewShellCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell [dir]",
		Short: "Interactive search session",
		Long: `Start an interactive session. Open a folder once, then type queries;
each line runs in the background and its results print when ready.`,
		Args: cobra.MaximumNArgs(1),
		RunE: makeShellRunner(a),
	}

	cmd.Flags().IntP("number", "n", internal.DefaultTopK, "Maximum results (0 for all)")
	cmd.Flags().Float32("threshold", internal.DefaultThreshold, "Minimum similarity score")
	return cmd
}

func makeShellRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd); err != nil {
			return err
		}

		sh := &shell{
			session: internal.NewSession(a.useCases(a.threshold(cmd)), internal.WithSessionLogger(a.log)),
			out:     cmd.OutOrStdout(),
			topK:    a.topK(cmd),
			json:    asJSON(cmd),
		}

		var initial []string
		if len(args) == 1 {
			initial = append(initial, "open "+args[0])
		}
		return sh.run(cmd.Context(), cmd.InOrStdin(), initial)
	}
}

type shell struct {
	session *internal.Session
	out     io.Writer
	topK    int
	json    bool
}

// run reads one line at a time. While a task is running no further input is
// taken, so lines typed meanwhile wait for its result.
func (sh *shell) run(ctx context.Context, in io.Reader, initial []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for _, line := range initial {
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	pending := false
	for {
		var input <-chan string
		if !pending {
			input = lines
		}

		select {
		case <-ctx.Done():
			return nil

		case ev := <-sh.session.Events():
			pending = false
			sh.report(ev)

		case line, ok := <-input:
			if !ok {
				return nil
			}

			started, quit := sh.dispatch(ctx, strings.TrimSpace(line))
			if quit {
				return nil
			}
			pending = started
		}
	}
}

func (sh *shell) dispatch(ctx context.Context, line string) (started, quit bool) {
	switch {
	case line == "":
		return false, false
	case line == "quit" || line == "exit":
		return false, true
	case line == "help":
		fmt.Fprintln(sh.out, shellHelp)
		return false, false
	case line == "open" || strings.HasPrefix(line, "open "):
		folder := strings.TrimSpace(strings.TrimPrefix(line, "open"))
		if _, err := sh.session.StartIndex(ctx, folder); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return false, false
		}
		fmt.Fprintf(sh.out, "Indexing %s...\n", folder)
		return true, false
	default:
		if _, err := sh.session.StartSearch(ctx, line, sh.topK); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return false, false
		}
		return true, false
	}
}

func (sh *shell) report(ev internal.Event) {
	if ev.Err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", ev.Err)
		return
	}

	switch ev.Kind {
	case internal.TaskIndex:
		_ = printIndexed(sh.out, ev.Index, sh.json)
	case internal.TaskSearch:
		_ = printResults(sh.out, ev.Search, sh.json)
	}
}
