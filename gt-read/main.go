package main

import (
	"fmt"
	flag "github.com/spf13/pflag"
	"os"
	"photo-geotag/appenv"
	"photo-geotag/coordtrans"
	"photo-geotag/geotag"
)

func main() {
	logger := appenv.Init()

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		_, _ = fmt.Fprintln(w, "gt-read: Print the GCJ-02 position stored in an image")
		_, _ = fmt.Fprintln(w, "usage: gt-read PATH...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	tagger := geotag.New(geotag.ExifGateway, coordtrans.Transform{}, logger)
	for _, path := range flag.Args() {
		p, ok := tagger.ReadCoordinate(path)
		var line string
		if ok {
			p = coordtrans.Round(p, 6)
			line = fmt.Sprintf("%v,%v", p.Lon(), p.Lat())
		} else {
			line = "no coordinates"
		}
		if flag.NArg() > 1 {
			fmt.Printf("%s: %s\n", path, line)
		} else {
			fmt.Println(line)
		}
	}
}
