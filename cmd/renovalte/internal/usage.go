package internal

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.3.1"

// PrintUsage writes the top-level usage text to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `renovalte - Retrieval for Renovation Planning Documents

Version: %s

USAGE:
    renovalte [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.renovalte/config/renovalte.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    index
        Chunk, embed and index the document corpus

    retrieve
        Retrieve the most relevant passages for a query

    stats
        Show collection statistics

    drop
        Drop the vector collection

EXAMPLES:
    # Build the index from the configured corpus
    renovalte index

    # Index a different document tree
    renovalte index -docs ./my-docs

    # Ask within one category
    renovalte retrieve -category permits "do I need a permit for exterior insulation"

    # Fan out across all categories, one passage each
    renovalte retrieve -categories regulations,permits,incentives,processes "heritage facade renovation"

    # Show collection statistics as JSON
    renovalte stats -json

For detailed help on each command, use:
    renovalte <command> -help
`, Version)
}

// StringList is a flag.Value that collects repeated string flags.
type StringList []string

func (s *StringList) String() string {
	return strings.Join(*s, ",")
}

func (s *StringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
