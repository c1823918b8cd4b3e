package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/auditdoc/auditdoc/pkg/jsonutil"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

// addOutputFlag registers --output/-o on cmd.
func addOutputFlag(cmd *cobra.Command, def outputFormat) *string {
	return cmd.Flags().StringP("output", "o", string(def), "output format: table, json or yaml")
}

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// writeData writes v as indented JSON or as YAML.
func writeData(w io.Writer, f outputFormat, v any) error {
	if f != formatYAML {
		if err := jsonutil.NewEncoder(w, "  ").Encode(v); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		return nil
	}
	data, err := toYAML(v)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// toYAML goes through the JSON encoding so that custom MarshalJSON methods
// and their key order carry over. JSON parses as YAML; the flow styles it
// produces are reset to block style.
func toYAML(v any) ([]byte, error) {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
