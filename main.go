package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/smallholder-irrigation/survey-merge/internal/config"
	"github.com/smallholder-irrigation/survey-merge/internal/db"
	"github.com/smallholder-irrigation/survey-merge/internal/middleware"
	"github.com/smallholder-irrigation/survey-merge/internal/runs"
	"github.com/smallholder-irrigation/survey-merge/internal/store"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	h := &runs.Handler{Settings: cfg}
	if cfg.DatabaseURL != "" {
		db.Connect(cfg.DatabaseURL)
		if err := store.Migrate(db.DB); err != nil {
			log.Fatal(err)
		}
		h.DB = db.DB
	} else {
		log.Println("[api] DATABASE_URL not set; runs will not be persisted")
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		middleware.AllowOrigins(strings.Split(origins, ",")...)
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/runs", runs.SetupRoutes(h))

	log.Printf("[api] listening on port :%s", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
