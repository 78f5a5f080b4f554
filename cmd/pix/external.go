package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/4thel00z/pixseek/internal"
	"github.com/spf13/cobra"
)

const pluginPrefix = "pix-"

// plugin is an executable named pix-<name> somewhere on PATH. Running
// "pix <name> args..." hands the arguments to it.
type plugin struct {
	name string
	path string
}

// lookupPlugin resolves args[0] to a plugin unless it is a flag or one of
// the built-in subcommands, which always win.
func lookupPlugin(root *cobra.Command, args []string) (plugin, bool) {
	if len(args) == 0 || args[0] == "" || strings.HasPrefix(args[0], "-") {
		return plugin{}, false
	}

	name := args[0]
	if isBuiltin(root, name) {
		return plugin{}, false
	}

	path, err := exec.LookPath(pluginPrefix + name)
	if err != nil {
		return plugin{}, false
	}
	return plugin{name: name, path: path}, true
}

func isBuiltin(root *cobra.Command, name string) bool {
	// cobra only adds these while executing.
	if name == "help" || name == "completion" {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func (p plugin) run(ctx context.Context, args []string, version string) error {
	cmd := exec.CommandContext(ctx, p.path, args...)
	cmd.Env = pluginEnv(version)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// pluginEnv passes the version, the pix binary and the resolved config path
// so a plugin can call back into pix or read the same config.
func pluginEnv(version string) []string {
	env := append(os.Environ(), "PIX_VERSION="+version)

	if bin, err := os.Executable(); err == nil {
		env = append(env, "PIX_BIN="+bin)
	}
	if os.Getenv(internal.ConfigEnvVar) == "" {
		if path, err := internal.ConfigPath(""); err == nil {
			env = append(env, internal.ConfigEnvVar+"="+path)
		}
	}
	return env
}

// discoverPlugins lists executable pix-* files on PATH. The first match of
// a name wins, like exec.LookPath.
func discoverPlugins() []plugin {
	seen := make(map[string]bool)
	var plugins []plugin

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			name, ok := strings.CutPrefix(entry.Name(), pluginPrefix)
			if !ok || name == "" || entry.IsDir() || seen[name] {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			info, err := os.Stat(path)
			if err != nil || info.Mode()&0111 == 0 {
				continue
			}

			seen[name] = true
			plugins = append(plugins, plugin{name: name, path: path})
		}
	}

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].name < plugins[j].name })
	return plugins
}

func NewPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List pix-* plugins found on PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plugins := discoverPlugins()
			out := cmd.OutOrStdout()

			if len(plugins) == 0 {
				fmt.Fprintln(out, "No pix-* plugins found on PATH.")
				return nil
			}
			for _, p := range plugins {
				fmt.Fprintf(out, "%s\t%s\n", p.name, p.path)
			}
			return nil
		},
	}
}
