package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/auditdoc/auditdoc/pkg/jsonutil"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/ui"
)

func (a *app) schemasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schemas",
		Aliases: []string{"schema"},
		Short:   "Inspect the report data catalog",
	}
	cmd.AddCommand(a.schemasListCmd(), a.schemasShowCmd(), a.schemasAllCmd(), a.schemasSampleCmd())
	return cmd
}

func (a *app) schemasListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List data domains with their field counts",
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(*cobra.Command, []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		summaries := a.reg.List()
		if f != formatTable {
			return writeData(a.out, f, summaries)
		}
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{
				s.Key, s.Label, strconv.Itoa(s.FieldCount), yesNo(s.IsArray), yesNo(s.IsComputed), s.Description,
			})
		}
		ui.Table(a.out, []string{"key", "label", "fields", "isArray", "isComputed", "description"}, rows)
		return nil
	}
	return cmd
}

func (a *app) schemasShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Show one domain and its fields",
		Example: `  auditdoc schemas show findings
  auditdoc schemas show audit -o json`,
		Args: cobra.ExactArgs(1),
	}
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		d, ok := a.reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("schema %q not found", args[0])
		}
		if f != formatTable {
			return writeData(a.out, f, schema.Keyed{Domain: d})
		}
		printDomain(a.out, d)
		return nil
	}
	return cmd
}

func (a *app) schemasAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Show every domain and its fields",
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(*cobra.Command, []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		if f != formatTable {
			return writeData(a.out, f, a.reg)
		}
		for i, d := range a.reg.Domains() {
			if i > 0 {
				fmt.Fprintln(a.out)
			}
			printDomain(a.out, d)
		}
		return nil
	}
	return cmd
}

func (a *app) schemasSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print the sample dataset used for previews",
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatJSON)
	cmd.RunE = func(*cobra.Command, []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		// The dataset is nested too deeply for a table.
		if f == formatTable {
			f = formatJSON
		}
		return writeData(a.out, f, schema.SampleData())
	}
	return cmd
}

// printDomain writes a domain header and a table of its fields, nested
// fields flattened to dotted paths.
func printDomain(w io.Writer, d *schema.Domain) {
	title := d.Label()
	if icon := ui.SanitizeString(d.Icon()); icon != "" {
		title = icon + " " + title
	}
	ui.Heading(w, title)
	ui.KeyValue(w, "key", d.Key())
	ui.KeyValue(w, "description", d.Description())
	if d.IsArray() {
		ui.KeyValue(w, "kind", "array")
	} else if d.IsComputed() {
		ui.KeyValue(w, "kind", "computed")
	}

	var rows [][]string
	flattenFields(d.Key(), d.Fields(), &rows)
	ui.Table(w, []string{"path", "type", "label", "example"}, rows)
}

func flattenFields(prefix string, fields *schema.Fields, rows *[][]string) {
	for name, f := range fields.All() {
		path := prefix + "." + name
		*rows = append(*rows, []string{path, string(f.Type()), f.Label(), exampleText(f)})
		if nested, ok := f.Nested(); ok {
			flattenFields(path, nested, rows)
		}
	}
}

const maxExample = 40

func exampleText(f *schema.Field) string {
	if from, ok := f.Computed(); ok {
		return "= " + from
	}
	var s string
	switch v := f.Example().(type) {
	case nil:
		return ""
	case string:
		s = v
	default:
		data, err := jsonutil.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		s = string(data)
	}
	if r := []rune(s); len(r) > maxExample {
		s = string(r[:maxExample-1]) + "…"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
