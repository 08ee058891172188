package main

import (
	"context"
	"fmt"
	flag "github.com/spf13/pflag"
	"log"
	"os"
	"photo-geotag/appenv"
	"strings"
)

var city = flag.StringP("city", "c", "", "Restrict results to a city (name or adcode)")

func main() {
	ctx := context.Background()
	logger := appenv.Init()

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		_, _ = fmt.Fprintln(w, "gt-search: Look up GCJ-02 positions of places with AMap")
		_, _ = fmt.Fprintln(w, "usage: gt-search [--city CITY] KEYWORDS...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	services, err := appenv.Connect(ctx, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer services.Close()
	if services.AMap == nil {
		log.Fatal("AMAP_API_KEY not set")
	}

	places, err := services.AMap.Search(ctx, strings.Join(flag.Args(), " "), *city)
	if err != nil {
		log.Fatal(err)
	}
	if len(places) == 0 {
		fmt.Println("no places found")
		return
	}

	for _, p := range places {
		fmt.Printf("%.6f,%.6f\t%s\t%s%s%s\n", p.Location.Lon(), p.Location.Lat(), p.Name, p.City, p.District, p.Address)
	}
}
