package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	a := newApp()
	root := NewRootCmd(version, a)

	if p, ok := lookupPlugin(root, args); ok {
		if err := p.run(ctx, args[1:], version); err != nil {
			fmt.Fprintf(os.Stderr, "pix %s: %v\n", p.name, err)
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
				return exitErr.ExitCode()
			}
			return 1
		}
		return 0
	}

	err := executeApp(ctx, a, root, func(ctx context.Context, cmd *cobra.Command) error {
		return fang.Execute(ctx, cmd)
	})
	if err != nil {
		return 1
	}
	return 0
}

// executeApp runs root and releases the app's encoder whether or not the
// command succeeded.
func executeApp(ctx context.Context, a *app, root *cobra.Command, execute func(context.Context, *cobra.Command) error) (err error) {
	defer func() {
		err = errors.Join(err, a.close())
	}()
	return execute(ctx, root)
}
