package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pix",
		Short: "Semantic image search for local folders",
		Long: `Index a folder of images with a vision-language model and find them
again with plain-language queries like "a dog on a beach".`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default $PIX_CONFIG or the user config dir)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewIndexCmd(a),
		NewSearchCmd(a),
		NewShellCmd(a),
		NewWatchCmd(a),
		NewConfigCmd(a),
		NewPluginsCmd(),
	)
}
