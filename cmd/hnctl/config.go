package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/abelbrown/hnfeed/internal/config"
)

// runConfig prints the effective config (file, defaults and HNFEED_*
// overrides merged). With -write it also saves it to the config path so
// the user has a file to edit.
func runConfig() {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	write := fs.Bool("write", false, "Save the effective config to "+config.ConfigPath())
	fs.Parse(os.Args[1:])

	if fs.NArg() != 0 {
		usageError("config takes no arguments", fs.Usage)
	}

	cfg := loadConfig()
	if *write {
		if err := cfg.Save(); err != nil {
			log.Fatalf("save config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", config.ConfigPath())
	}
	printJSON(cfg)
}
