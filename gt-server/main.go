package main

import (
	"context"
	flag "github.com/spf13/pflag"
	"log"
	"os"
	"os/signal"
	"photo-geotag/api"
	"photo-geotag/appenv"
	"photo-geotag/coordtrans"
	"photo-geotag/geotag"
	"syscall"
)

var exact = flag.BoolP("exact", "e", false, "Invert GCJ-02 iteratively instead of in a single step")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := appenv.Init()
	flag.Parse()

	services, err := appenv.Connect(ctx, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer services.Close()

	opts := api.Options{Exact: *exact, Logger: logger}
	if services.Repo != nil {
		opts.Journal = services.Repo
	}
	if services.AMap != nil {
		opts.Searcher = services.AMap
	}
	if services.Archive != nil {
		opts.Archiver = services.Archive
	}

	tagger := geotag.New(geotag.ExifGateway, coordtrans.Transform{Exact: *exact}, logger)
	addr := appenv.GetEnv("GEOTAG_ADDR", "localhost:5050")
	if err := api.New(tagger, opts).Serve(ctx, addr); err != nil {
		log.Fatal(err)
	}
}
