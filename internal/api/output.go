package api

import (
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format selects how snipd api commands print their responses.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// outputFormat is set by the root command's --output flag.
var outputFormat = FormatYAML

// SetOutputFormat applies the root --output flag. Unknown values fall back
// to YAML.
func SetOutputFormat(format string) {
	if Format(format) == FormatJSON {
		outputFormat = FormatJSON
	} else {
		outputFormat = FormatYAML
	}
}

// Output prints data to stdout in the selected format. Every api subcommand
// prints its response through here so --output applies uniformly.
func Output(data any) error {
	return OutputTo(os.Stdout, outputFormat, data)
}

// OutputTo encodes data to w. Both formats are two-space indented.
func OutputTo(w io.Writer, format Format, data any) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}
