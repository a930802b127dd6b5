package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"tapInfinity/src/config"
	"tapInfinity/src/util"
)

var (
	operation  = flag.String("op", "sync", "sync/schema/show/delete, default is sync")
	cfgPath    = flag.String("cfg", "", "config path, toml or json")
	progress   = flag.Bool("progress", false, "render a progress bar on stderr")
	forceEvery = flag.Int("force-every", 0, "force a new chunk every N rows, 0 disables it")
)

func main() {
	flag.Parse()

	if *cfgPath == "" {
		fmt.Fprintln(os.Stderr, "Config path (-cfg) must be specified")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := util.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	switch strings.ToLower(*operation) {
	case "sync":
		err = Sync(cfg, *progress, *forceEvery)
	case "schema":
		err = ShowSchema(cfg, os.Stdout)
	case "show":
		err = ShowFiles(cfg)
	case "delete":
		err = DeleteAllFiles(cfg)
	default:
		err = fmt.Errorf("unknown operation: %s", *operation)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Operation %s failed: %v\n", *operation, err)
		os.Exit(1)
	}
}
