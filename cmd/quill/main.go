package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Set at build time with ldflags.
var gitCommit = "unknown"

func main() {
	root := &cobra.Command{
		Use:           "quill",
		Short:         "quill scripting language toolchain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildCommand(), runCommand(), versionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the toolchain version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quill %s (%s)\n", version, gitCommit)
		},
	}
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
