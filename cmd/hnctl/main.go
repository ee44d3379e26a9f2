// Command hnctl is the debug CLI for hnfeed: it runs the same gateway the
// TUI uses and reads the event log the TUI writes.
//
// Usage:
//
//	hnctl                     Show help
//	hnctl ids <feed>          Upstream ID list for a feed
//	hnctl page <feed> [n]     One normalized page, as the TUI would load it
//	hnctl item <id>           One normalized item
//	hnctl comments <id>       Normalized comments of a post
//	hnctl events              JSONL event log viewer
//	hnctl config [-write]     Effective config, optionally saved
package main

import (
	"fmt"
	"os"
)

const usage = `hnctl: hnfeed debug CLI

Usage:
  hnctl <command> [flags] [args]

Commands:
  ids       Upstream ID list for a feed (new, job, poll)
  page      One normalized page of a feed
  item      One normalized item by ID
  comments  Normalized comments of a post
  events    JSONL event log viewer
  config    Effective config; -write saves it

Environment:
  HNFEED_HOME         Data directory (default: ~/.hnfeed)
  HNFEED_API_BASE     Item API base URL
  HNFEED_SEARCH_BASE  Search API base URL
  HNFEED_PAGE_SIZE    Items per page

Run 'hnctl <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "ids":
		runIDs()
	case "page":
		runPage()
	case "item":
		runItem()
	case "comments":
		runComments()
	case "events":
		runEvents()
	case "config":
		runConfig()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "hnctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
