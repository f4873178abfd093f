// Package cmdutil provides shared utilities for fibctl commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/routingfib/corefib/internal/cli/output"
	"github.com/routingfib/corefib/internal/fibclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values bound by the root command.
type GlobalFlags struct {
	ServerURL string
	Output    string
}

// GetClient returns a fibclient bound to the configured server URL.
func GetClient() *fibclient.Client {
	return fibclient.New(Flags.ServerURL)
}

// GetOutputFormat parses the configured --output flag value.
func GetOutputFormat() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput renders data as JSON, YAML, or a table depending on the
// configured --output flag.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormat()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, printErr := io.WriteString(w, emptyMsg+"\n")
			return printErr
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message to stdout when the output format is
// table; JSON/YAML callers already get a structured response and don't need
// a second human-readable line.
func PrintSuccess(msg string) {
	format, err := GetOutputFormat()
	if err != nil || format != output.FormatTable {
		return
	}
	fmt.Fprintln(os.Stdout, msg)
}
