package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"geoattend/internal/attendance"
	"geoattend/internal/config"
	"geoattend/internal/store"
)

// Roster imports students from a nim,name CSV file into Postgres.
func main() {
	file := flag.String("file", "", "path to roster CSV (nim,name)")
	flag.Parse()
	if *file == "" {
		log.Fatal("usage: roster -file roster.csv")
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open roster: %v", err)
	}
	defer f.Close()

	students, err := attendance.ParseRoster(f)
	if err != nil {
		log.Fatalf("parse roster: %v", err)
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	svc := attendance.NewService(attendance.NewRepository(db.Client))
	res, err := svc.ImportRoster(ctx, students)
	if err != nil {
		log.Fatalf("import roster: %v", err)
	}
	log.Printf("roster imported: %d inserted, %d updated", res.Inserted, res.Updated)
}
