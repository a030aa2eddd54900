package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/smallholder-irrigation/survey-merge/internal/db"
	"github.com/smallholder-irrigation/survey-merge/internal/store"
)

func main() {
	godotenv.Load(".env.local")

	runFlag := flag.String("run", "", "run id to inspect (required)")
	flag.Parse()

	id, err := uuid.Parse(*runFlag)
	if err != nil {
		flag.Usage()
		os.Exit(2)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	gdb, err := db.Open(dbURL)
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}

	ctx := context.Background()
	run, err := store.GetRun(ctx, gdb, id)
	if err != nil {
		log.Fatalf("Query error: %v", err)
	}
	issues, err := store.Issues(ctx, gdb, id)
	if err != nil {
		log.Fatalf("Query error: %v", err)
	}

	// Group by kind
	byKind := make(map[string][]store.RunIssue)
	for _, is := range issues {
		byKind[is.Kind] = append(byKind[is.Kind], is)
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Printf("Run %s (%s): %d rows, %d polygons, %d unmatched, %d issues\n\n",
		run.ID, run.SourceFile, run.RowCount, run.PolygonCount, run.UnmatchedCount, run.IssueCount)

	for _, kind := range kinds {
		list := byKind[kind]
		fmt.Printf("=== %s (%d) ===\n", kind, len(list))
		for _, is := range list {
			fmt.Printf("  - %s\n", is.Message)
		}
		fmt.Println()
	}
}
