package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/auditdoc/auditdoc/pkg/templatevalidator"
	"github.com/auditdoc/auditdoc/pkg/ui"
)

func (a *app) previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <template>",
		Short: "Render a template against the sample dataset",
		Long: `Render a template against the sample dataset and print the result.

<template> is a bundled or configured template name, a file path, or "-"
to read the template from standard input. Warnings about unresolved
variables and unknown helpers go to standard error.`,
		Example: `  auditdoc preview findings
  auditdoc preview ./my-report.hbs
  echo '{{uppercase audit.name}}' | auditdoc preview -`,
		Args: cobra.ExactArgs(1),
	}
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(c *cobra.Command, args []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		src, source, err := a.readTemplate(c.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		render, err := a.renderer()
		if err != nil {
			return err
		}
		res, err := templatevalidator.RenderSample(render, src)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		a.logger.Debug("preview: rendered", "source", source, "warnings", len(res.Warnings))

		if f != formatTable {
			return writeData(a.out, f, res)
		}
		fmt.Fprint(a.out, res.Output)
		for _, w := range res.Warnings {
			ui.Check(a.errOut, ui.OutcomeWarn, source, w)
		}
		return nil
	}
	return cmd
}

// readTemplate reads "-" from in, anything else through the resolver.
func (a *app) readTemplate(in io.Reader, ref string) (src, source string, err error) {
	if ref == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	return a.resolver().Read(ref)
}
