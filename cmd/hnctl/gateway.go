package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/abelbrown/hnfeed/internal/model"
)

func runIDs() {
	fs := flag.NewFlagSet("ids", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print gateway events to stderr")
	limit := fs.Int("n", 0, "Show at most n IDs (0 = all)")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		usageError("ids takes exactly one feed argument", fs.Usage)
	}
	ft, err := model.ParseFeedType(fs.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	ids := newClient(loadConfig(), *verbose).FetchItemIDs(ctx, ft)
	if *limit > 0 && len(ids) > *limit {
		ids = ids[:*limit]
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func runPage() {
	fs := flag.NewFlagSet("page", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print gateway events to stderr")
	asJSON := fs.Bool("json", false, "Output JSON instead of a table")
	fs.Parse(os.Args[1:])

	if fs.NArg() < 1 || fs.NArg() > 2 {
		usageError("usage: hnctl page <feed> [page]", fs.Usage)
	}
	ft, err := model.ParseFeedType(fs.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}
	page := 1
	if fs.NArg() == 2 {
		page, err = strconv.Atoi(fs.Arg(1))
		if err != nil {
			log.Fatalf("invalid page %q: %v", fs.Arg(1), err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	items, err := newClient(loadConfig(), *verbose).LoadItems(ctx, ft, page)
	if err != nil {
		log.Fatalf("load %s page %d: %v", ft, page, err)
	}

	if *asJSON {
		printJSON(items)
		return
	}
	writeItemTable(os.Stdout, items)
	fmt.Fprintf(os.Stderr, "%s page %d: %d items in %s\n", ft.Label(), page, len(items), time.Since(start).Round(time.Millisecond))
}

func runItem() {
	fs := flag.NewFlagSet("item", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print gateway events to stderr")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		usageError("item takes exactly one ID", fs.Usage)
	}

	ctx, cancel := signalContext()
	defer cancel()

	item, ok := newClient(loadConfig(), *verbose).FetchItemDetails(ctx, fs.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "item %s not found\n", fs.Arg(0))
		os.Exit(1)
	}
	printJSON(item)
}

func runComments() {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print gateway events to stderr")
	asJSON := fs.Bool("json", false, "Output JSON instead of text")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		usageError("comments takes exactly one post ID", fs.Usage)
	}

	ctx, cancel := signalContext()
	defer cancel()

	comments, err := newClient(loadConfig(), *verbose).FetchComments(ctx, fs.Arg(0))
	if err != nil {
		log.Fatalf("comments %s: %v", fs.Arg(0), err)
	}
	if *asJSON {
		printJSON(comments)
		return
	}
	if len(comments) == 0 {
		fmt.Println("No comments yet.")
		return
	}
	for _, c := range comments {
		fmt.Printf("%s  %s  (%s)\n", c.ID, c.By, time.Unix(c.Time, 0).Format(time.DateTime))
		fmt.Printf("    %s\n\n", truncate(strings.ReplaceAll(c.Text, "\n", " "), 200))
	}
}

// writeItemTable prints items as an aligned table.
func writeItemTable(w io.Writer, items []model.Item) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSCORE\tBY\tKIDS\tTITLE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
			it.ID, it.Type, it.Score, it.By, len(it.Kids), truncate(it.Title, 60))
	}
	tw.Flush()
}
