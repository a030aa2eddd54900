package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/smallholder-irrigation/survey-merge/internal/config"
	"github.com/smallholder-irrigation/survey-merge/internal/db"
	"github.com/smallholder-irrigation/survey-merge/internal/merge"
	"github.com/smallholder-irrigation/survey-merge/internal/store"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		surveyPath   = flag.String("survey", "", "path to the survey CSV (required)")
		polygonsPath = flag.String("polygons", "", "path to the polygon GeoJSON (default: survey path with .geojson)")
		cutoff       = flag.Int("cutoff", 0, "lowest certainty counted as high-certainty (default from config)")
		configPath   = flag.String("config", "config.yaml", "optional YAML config file")
		save         = flag.Bool("save", false, "store the run in DATABASE_URL")
	)
	flag.Parse()

	if *surveyPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg := merge.NewConfig(settings, *surveyPath, *polygonsPath)
	if *cutoff != 0 {
		cfg.CertaintyCutoff = *cutoff
	}

	ctx := context.Background()
	res, err := merge.Run(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("----- CHECK REPORT -----")
	for _, line := range res.Report() {
		fmt.Println(line)
	}
	fmt.Printf("Saved report at %s\n", res.ReportPath)
	fmt.Printf("Saved merged dataset at %s\n", res.MergedPath)

	if *save {
		gdb, err := db.Open(settings.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		if err := store.Migrate(gdb); err != nil {
			log.Fatal(err)
		}
		if err := store.Save(ctx, gdb, res); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Stored run %s\n", res.RunID)
	}
}
