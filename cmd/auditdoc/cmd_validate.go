package main

import (
	"github.com/spf13/cobra"

	"github.com/auditdoc/auditdoc/pkg/ui"
	"github.com/auditdoc/auditdoc/pkg/varpath"
)

type pathResult struct {
	Path string `json:"path"`
	varpath.Result `json:",inline"`
}

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Check variable paths against the data catalog",
		Long: `Check dotted variable paths such as "findings.0.title" against the data
catalog. Numeric segments are array indices. Exits 1 when any path is invalid.`,
		Example: `  auditdoc validate audit.name client.company.name
  auditdoc validate findings.0.cvssScore -o json`,
		Args: cobra.MinimumNArgs(1),
	}
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		results := make([]pathResult, 0, len(args))
		failed := false
		for _, p := range args {
			res := varpath.Validate(a.reg, p)
			failed = failed || !res.Valid
			results = append(results, pathResult{Path: p, Result: res})
		}

		if f != formatTable {
			if err := writeData(a.out, f, results); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				if r.Valid {
					ui.Check(a.out, ui.OutcomePass, r.Path, "")
				} else {
					ui.Check(a.out, ui.OutcomeFail, r.Path, r.Error)
				}
			}
		}
		if failed {
			return errChecksFailed
		}
		return nil
	}
	return cmd
}
