package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quill"
	"quill/internal/diag"
)

func buildCommand() *cobra.Command {
	var (
		debug bool
		out   string
		refs  []string
	)
	cmd := &cobra.Command{
		Use:   "build <file.ql>",
		Short: "Compile a quill file to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := compileFile(args[0], debug, refs)
			if err != nil {
				return err
			}
			printDiagnostics(c.Diagnostics())
			if c.HasErrors() {
				return fmt.Errorf("%d error(s)", len(c.Errors()))
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".qlc"
			}
			data, err := c.Image().Encode()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "compile with debug tables, no optimization")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output image path")
	cmd.Flags().StringSliceVar(&refs, "ref", nil, "additional module references")
	return cmd
}

// compileFile builds a facade over the source file with the std package plus
// any extra references, and compiles it.
func compileFile(path string, debug bool, refs []string) (*quill.Compiler, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c := quill.New(name)
	if err := c.AddPackageReference("std"); err != nil {
		return nil, err
	}
	if err := c.AddReferenceNames(refs...); err != nil {
		return nil, err
	}
	c.SetSource(string(src))
	if err := c.Compile(debug); err != nil {
		return nil, err
	}
	return c, nil
}

func printDiagnostics(diags []diag.Diagnostic) {
	if !stdoutIsTerminal() {
		color.NoColor = true
	}
	errC := color.New(color.FgRed)
	warnC := color.New(color.FgYellow)
	for _, d := range diags {
		switch d.Severity {
		case diag.SevError:
			errC.Printf("error: %s\n", d)
		case diag.SevWarning:
			warnC.Printf("warning: %s\n", d)
		default:
			fmt.Printf("info: %s\n", d)
		}
	}
}
