package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/gofrs/uuid"
	"github.com/paulmach/orb"
	flag "github.com/spf13/pflag"
	"log"
	"os"
	"photo-geotag/appenv"
	"photo-geotag/archive"
	"photo-geotag/coordtrans"
	"photo-geotag/geotag"
	"photo-geotag/imagepaths"
	"photo-geotag/repos"
)

var lon = flag.Float64("lon", 0, "Target longitude (GCJ-02)")
var lat = flag.Float64("lat", 0, "Target latitude (GCJ-02)")
var exact = flag.BoolP("exact", "e", false, "Invert GCJ-02 iteratively instead of in a single step")
var retryBatch = flag.String("retry", "", "Retry the failed files of a journalled batch")
var archiveFlag = flag.BoolP("archive", "a", false, "Upload tagged files to the object store")

func main() {
	ctx := context.Background()
	logger := appenv.Init()

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		_, _ = fmt.Fprintln(w, "gt-write: Write a GCJ-02 position into the GPS tags of images")
		_, _ = fmt.Fprintln(w, "usage: gt-write --lon LON --lat LAT PATH...")
		_, _ = fmt.Fprintln(w, "       gt-write --retry BATCH_ID")
		flag.PrintDefaults()
	}
	flag.Parse()

	services, err := appenv.Connect(ctx, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer services.Close()

	if *archiveFlag && services.Archive == nil {
		log.Fatal("--archive needs MINIO_ENDPOINT")
	}

	var target orb.Point
	var paths []string
	var retryOf *uuid.UUID
	useExact := *exact

	if *retryBatch != "" {
		if services.Repo == nil {
			log.Fatal("--retry needs DATABASE_URL")
		}
		id, err := uuid.FromString(*retryBatch)
		if err != nil {
			log.Fatalf("invalid batch id %q: %s", *retryBatch, err)
		}
		prev, err := services.Repo.GetBatch(ctx, id)
		if errors.Is(err, repos.ErrNotFound) {
			log.Fatalf("batch %s not found", id)
		} else if err != nil {
			log.Fatal(err)
		}
		paths = geotag.FailedPaths(prev.Results)
		target = prev.Target
		if !flag.CommandLine.Changed("exact") {
			useExact = prev.Exact
		}
		retryOf = &id
		if len(paths) == 0 {
			fmt.Printf("batch %s has no failed files\n", id)
			return
		}
	} else {
		if !flag.CommandLine.Changed("lon") || !flag.CommandLine.Changed("lat") {
			flag.Usage()
			os.Exit(2)
		}
		target = orb.Point{*lon, *lat}
		paths, err = imagepaths.ExpandImages(flag.Args())
		if err != nil {
			log.Fatal(err)
		}
		if len(paths) == 0 {
			flag.Usage()
			os.Exit(2)
		}
	}

	tagger := geotag.New(geotag.ExifGateway, coordtrans.Transform{Exact: useExact}, logger)
	tags := tagger.EncodeTarget(target)
	results := tagger.WriteTags(paths, tags)

	for _, r := range results {
		if r.Success {
			fmt.Printf("ok    %s\n", r.FilePath)
		} else {
			fmt.Printf("FAIL  %s\n", r.FilePath)
		}
	}
	fmt.Println(geotag.Summarize(results))

	batch, err := repos.NewBatch(target, tags.Point(), useExact, results)
	if err != nil {
		log.Fatal(err)
	}
	batch.RetryOf = retryOf

	if *archiveFlag {
		uploads := services.Archive.Upload(ctx, batch.ID, results)
		batch.ArchiveKeys = archive.Keys(uploads)
		fmt.Printf("archived %d of %d files\n", len(batch.ArchiveKeys), len(uploads))
	}

	if services.Repo != nil {
		if err := services.Repo.SaveBatch(ctx, batch); err != nil {
			logger.Error("error saving batch", "batch_id", batch.ID, "err", err)
		} else {
			fmt.Printf("batch %s\n", batch.ID)
		}
	}
}
