package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/templatevalidator"
	"github.com/auditdoc/auditdoc/pkg/templatewatch"
	"github.com/auditdoc/auditdoc/pkg/ui"
)

func (a *app) templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "List and check report templates",
		Long: `List and check report templates.

Templates are looked up in the configured directory (--templates-dir or
templates.dir), then in $` + defaults.TemplateDirEnv + `, then among the bundled templates.`,
	}
	cmd.AddCommand(a.templatesListCmd(), a.templatesCheckCmd())
	return cmd
}

func (a *app) templatesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(*cobra.Command, []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		infos, err := a.resolver().List()
		if err != nil {
			return err
		}
		if f != formatTable {
			return writeData(a.out, f, infos)
		}
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, []string{info.Name, info.Title, strings.Join(info.Tags, ", "), info.Source})
		}
		ui.Table(a.out, []string{"name", "title", "tags", "source"}, rows)
		return nil
	}
	return cmd
}

func (a *app) templatesCheckCmd() *cobra.Command {
	var strict, watch bool
	cmd := &cobra.Command{
		Use:   "check [template]...",
		Short: "Validate templates against the data catalog",
		Long: `Validate templates: syntax, front matter, variable paths and helpers.
Without arguments every listed template is checked. Unresolved variables
are warnings, or errors with --strict. Exits 1 when any template is invalid.

With --watch, the template directories are watched after the first pass
and every changed template is checked again until interrupted.`,
		Example: `  auditdoc templates check
  auditdoc templates check findings ./custom.hbs --strict
  auditdoc templates check --watch --templates-dir ./templates/report`,
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat unresolved variables as errors")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-check templates as they change")
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(c *cobra.Command, args []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		if watch && f != formatTable {
			return errors.New("--watch only supports table output")
		}
		v := &templatevalidator.Validator{StrictMode: strict, Catalog: a.reg}

		summary, err := a.checkTemplates(v, args)
		if err != nil {
			return err
		}
		if f != formatTable {
			if err := writeData(a.out, f, summary); err != nil {
				return err
			}
		} else {
			printSummary(a.out, summary)
		}

		if watch {
			ctx, cancel := signalContext(c.Context())
			defer cancel()
			return a.watchTemplates(ctx, v)
		}
		if summary.InvalidFiles > 0 {
			return errChecksFailed
		}
		return nil
	}
	return cmd
}

// checkTemplates validates refs, or every listed template when refs is empty.
func (a *app) checkTemplates(v *templatevalidator.Validator, refs []string) (*templatevalidator.ValidationSummary, error) {
	r := a.resolver()
	if len(refs) == 0 {
		infos, err := r.List()
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			refs = append(refs, info.Name)
		}
	}

	summary := &templatevalidator.ValidationSummary{}
	for _, ref := range refs {
		src, source, err := r.Read(ref)
		if err != nil {
			summary.Add(&templatevalidator.ValidationResult{File: ref, Errors: []string{err.Error()}})
			continue
		}
		summary.Add(v.ValidateSource(source, src))
	}
	return summary, nil
}

// watchTemplates re-validates changed template files until ctx is done.
func (a *app) watchTemplates(ctx context.Context, v *templatevalidator.Validator) error {
	var dirs []string
	for _, d := range []string{a.cfg.Templates.Dir, os.Getenv(defaults.TemplateDirEnv)} {
		if info, err := os.Stat(d); d != "" && err == nil && info.IsDir() {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return fmt.Errorf("--watch: template directory %q does not exist", a.cfg.Templates.Dir)
	}

	w, err := templatewatch.New(templatewatch.Config{Dirs: dirs, Logger: a.logger})
	if err != nil {
		return err
	}
	defer w.Stop()
	changes, err := w.Start()
	if err != nil {
		return err
	}
	ui.KeyValue(a.out, "watching", strings.Join(dirs, ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case files := <-changes:
			for _, p := range files {
				if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
					continue
				}
				printResult(a.out, v.ValidateFile(p))
			}
		}
	}
}

func printSummary(w io.Writer, s *templatevalidator.ValidationSummary) {
	for _, r := range s.Results {
		printResult(w, r)
	}
	fmt.Fprintln(w)
	ui.KeyValue(w, "templates", s.TotalFiles)
	ui.KeyValue(w, "invalid", s.InvalidFiles)
	ui.KeyValue(w, "warnings", s.TotalWarnings)
}

func printResult(w io.Writer, r *templatevalidator.ValidationResult) {
	outcome := ui.OutcomePass
	switch {
	case !r.Valid:
		outcome = ui.OutcomeFail
	case len(r.Warnings) > 0:
		outcome = ui.OutcomeWarn
	}
	ui.Check(w, outcome, r.File, strconv.Itoa(r.References)+" references")
	for _, e := range r.Errors {
		fmt.Fprintln(w, "    "+ui.FailStyle.Render(e))
	}
	for _, warn := range r.Warnings {
		fmt.Fprintln(w, "    "+ui.WarnStyle.Render(warn))
	}
}
