package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/agromesh/cottonwatch/internal/app"
	"github.com/agromesh/cottonwatch/internal/log"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to config file (default: ./config.yaml)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend: yaml or sqlite")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	err := app.Run(app.Options{
		ConfigPath:    *cfgFile,
		ConfigBackend: *cfgBackend,
		Debug:         *debug,
	})
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
