package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/audiobookroom/audiobookroom/pkg/importer"
	"github.com/audiobookroom/audiobookroom/pkg/mp4"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

func main() {
	log := logger.New()

	var opts struct {
		Dir bool `short:"d" long:"dir" description:"Treat the argument as a book directory and probe every numbered file in import order"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/probe-audio [--dir] <path>")
		os.Exit(1)
	}

	files := []string{args[0]}
	if opts.Dir {
		files, err = importer.CollectFiles(args[0])
		if err != nil {
			log.Err(err).Fatal("collect files error")
		}
	}

	var total float64
	for i, path := range files {
		info, err := mp4.Probe(path)
		if err != nil {
			fmt.Printf("%4d  %s: %v\n", i+1, filepath.Base(path), err)
			continue
		}
		total += info.Seconds()
		fmt.Printf("%4d  %s: %.2fs codec=%s bitrate=%d timescale=%d\n",
			i+1, filepath.Base(path), info.Seconds(), info.Codec, info.Bitrate, info.Timescale)
	}
	if len(files) > 1 {
		fmt.Printf("total: %.2fs\n", total)
	}
}
