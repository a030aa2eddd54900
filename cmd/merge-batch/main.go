package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/smallholder-irrigation/survey-merge/internal/config"
	"github.com/smallholder-irrigation/survey-merge/internal/merge"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		dir        = flag.String("dir", "", "folder holding survey CSVs, directly or under processed/ (required)")
		out        = flag.String("out", "", "optional path for the combined merged table")
		configPath = flag.String("config", "config.yaml", "optional YAML config file")
	)
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(2)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	b, err := merge.RunBatch(context.Background(), merge.NewConfig(settings, "", ""), *dir)
	if err != nil {
		log.Fatal(err)
	}

	for _, res := range b.Results {
		fmt.Printf("%s: %d rows, %d issues -> %s\n", res.SourceFile, len(res.Rows), len(res.Issues), res.MergedPath)
	}
	for _, fe := range b.Failures {
		fmt.Printf("FAILED %v\n", fe)
	}

	if *out != "" {
		header, records := b.Combined()
		if err := merge.WriteMerged(*out, header, records); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Saved combined dataset (%d rows) at %s\n", len(records), *out)
	}

	if len(b.Failures) > 0 {
		os.Exit(1)
	}
}
