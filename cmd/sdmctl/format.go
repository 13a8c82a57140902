package main

import (
	"encoding/json"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v2"
)

const (
	outputFormatTab  = "tab"
	outputFormatYAML = "yaml"
	outputFormatJSON = "json"
)

func newTabwriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
}

func checkOutputFormat(format string) error {
	switch format {
	case outputFormatTab, outputFormatYAML, outputFormatJSON:
		return nil
	}
	return errorInvalidOutputFormat
}

// printOutput writes v as YAML or JSON, or, for the tab format, hands
// over to the table printer given.
func printOutput(out io.Writer, format string, v interface{}, table func(*tabwriter.Writer)) error {
	switch format {
	case outputFormatYAML:
		bytes, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = out.Write(bytes)
		return err
	case outputFormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputFormatTab:
		w := newTabwriter(out)
		table(w)
		return w.Flush()
	}
	return errorInvalidOutputFormat
}
