package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/TeamStorm/storm"
	"github.com/TeamStorm/storm/config"
	"github.com/TeamStorm/storm/db"
)

var cmdline struct {
	config string
	db     string
	urls   string
}

func main() {
	flag.StringVar(&cmdline.config, "config", "", "Path to a configuration file containing API keys and provider options.")
	flag.StringVar(&cmdline.db, "db", "", "Path to a SQLite DB file to persist data.")
	flag.StringVar(&cmdline.urls, "urls", "", "Path to the stream urls file, overriding the configured one.")
	flag.Parse()

	if err := db.Init(cmdline.db); err != nil {
		log.Fatalf("ERROR: failed to initialise DB: %s", err)
	}

	config, err := config.Parse(cmdline.config)
	if err != nil {
		log.Fatalf("ERROR: failed to parse config file: %s", err)
	}

	if cmdline.urls != "" {
		config.URLsFile = cmdline.urls
	}

	c := db.NewContext(context.Background())
	c = withSignalCancel(c)

	if err := storm.Run(c, config); err != nil {
		log.Fatalf("ERROR: %s", err)
	}
}

func withSignalCancel(c context.Context) context.Context {
	c, cancel := context.WithCancel(c)

	go func() {
		sc := make(chan os.Signal, 1)
		signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt, os.Kill)

		<-sc

		cancel()
	}()

	return c
}
