package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auditdoc/auditdoc/pkg/syntax"
)

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate template syntax",
	}
	cmd.AddCommand(a.generateVariableCmd(), a.generateLoopCmd(), a.generateConditionalCmd())
	return cmd
}

func formatNames() string {
	names := make([]string, 0, len(syntax.Formats()))
	for _, f := range syntax.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func (a *app) generateVariableCmd() *cobra.Command {
	var opts syntax.Options
	var format string
	cmd := &cobra.Command{
		Use:   "variable <schemaKey> <fieldPath>",
		Short: "Generate a variable reference",
		Example: `  auditdoc generate variable audit date --format date
  auditdoc generate variable findings title --loop --loop-var f`,
		Args: cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&format, "format", "", "formatting helper: "+formatNames())
	cmd.Flags().BoolVar(&opts.IsLoop, "loop", false, "reference the field from inside a loop")
	cmd.Flags().StringVar(&opts.LoopVar, "loop-var", "", "loop item variable (with --loop)")
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		opts.Format = syntax.Format(format)
		if format != "" && !opts.Format.Known() {
			a.logger.Warn("generate: unknown format, emitting a plain reference", "format", format)
		}
		out := syntax.Variable(args[0], args[1], opts)
		if f != formatTable {
			return writeData(a.out, f, map[string]string{"syntax": out})
		}
		fmt.Fprintln(a.out, out)
		return nil
	}
	return cmd
}

func (a *app) generateLoopCmd() *cobra.Command {
	var itemVar string
	cmd := &cobra.Command{
		Use:     "loop <schemaKey>",
		Short:   "Generate a loop block over an array",
		Example: `  auditdoc generate loop findings --item-var f`,
		Args:    cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&itemVar, "item-var", "", "item variable name (default \"item\")")
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		block := syntax.Loop(args[0], itemVar)
		if f != formatTable {
			return writeData(a.out, f, block)
		}
		fmt.Fprintln(a.out, block.Start)
		fmt.Fprintln(a.out, block.End)
		return nil
	}
	return cmd
}

func (a *app) generateConditionalCmd() *cobra.Command {
	var operator, value string
	cmd := &cobra.Command{
		Use:   "conditional <variable>",
		Short: "Generate a conditional block",
		Example: `  auditdoc generate conditional audit.isRetest
  auditdoc generate conditional f.severity --operator eq --value critical`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&operator, "operator", syntax.OpIf, "block helper: if, eq, or any other helper name")
	cmd.Flags().StringVar(&value, "value", "", "comparison value (with --operator eq)")
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(c *cobra.Command, args []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		var v any
		if c.Flags().Changed("value") {
			v = value
		}
		block := syntax.Conditional(args[0], operator, v)
		if f != formatTable {
			return writeData(a.out, f, block)
		}
		fmt.Fprintln(a.out, block.Start)
		fmt.Fprintln(a.out, block.Else)
		fmt.Fprintln(a.out, block.End)
		return nil
	}
	return cmd
}
