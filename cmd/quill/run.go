package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/vm"
)

func runCommand() *cobra.Command {
	var (
		debug    bool
		refs     []string
		typeName string
		method   string
	)
	cmd := &cobra.Command{
		Use:   "run <file.ql>",
		Short: "Compile a quill file, instantiate a type, and invoke a method",
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
			asm := c.Assembly()
			var typ *vm.Type
			if typeName != "" {
				if typ = asm.Type(typeName); typ == nil {
					return fmt.Errorf("assembly exports no type %s", typeName)
				}
			} else {
				types := asm.ExportedTypes()
				if len(types) == 0 {
					return fmt.Errorf("assembly exports no types")
				}
				typ = types[0]
			}
			result, err := typ.New().Invoke(method)
			if err != nil {
				return err
			}
			fmt.Println(vm.ToString(result))
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "compile with debug tables, no optimization")
	cmd.Flags().StringSliceVar(&refs, "ref", nil, "additional module references")
	cmd.Flags().StringVar(&typeName, "type", "", "qualified type to instantiate (default: first exported)")
	cmd.Flags().StringVar(&method, "call", "Main", "method to invoke")
	return cmd
}
