// chassis-audit queries the audit_records table of a chassis deployment.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/chassis-framework/chassis/pkg/audit"
	"github.com/chassis-framework/chassis/pkg/config"
)

func main() {
	entity := flag.String("entity", "", "Filter by entity name")
	entityID := flag.Int64("id", 0, "Filter by entity id (requires -entity)")
	requestID := flag.String("request-id", "", "Filter by request id")
	source := flag.String("source", "", "Filter by source (api, cron, seed)")
	since := flag.Duration("since", 24*time.Hour, "How far back to search")
	limit := flag.Int("limit", 50, "Maximum records to return")
	stats := flag.Bool("stats", false, "Print aggregate statistics instead of records")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("CHASSIS_DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	recorder, err := audit.NewRecorder(db)
	if err != nil {
		log.Fatalf("Failed to create audit recorder: %v", err)
	}

	ctx := context.Background()
	start := time.Now().Add(-*since)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if *stats {
		result, err := recorder.GetStats(ctx, &start, nil)
		if err != nil {
			log.Fatalf("Failed to compute stats: %v", err)
		}
		if err := encoder.Encode(result); err != nil {
			log.Fatalf("Failed to encode stats: %v", err)
		}
		return
	}

	filter := audit.SearchFilter{
		StartTime: &start,
		Entity:    *entity,
		RequestID: *requestID,
		Source:    *source,
		Limit:     *limit,
	}
	if *entityID > 0 {
		filter.EntityID = entityID
	}

	records, err := recorder.Search(ctx, filter)
	if err != nil {
		log.Fatalf("Failed to search audit records: %v", err)
	}

	log.Printf("Found %d audit records", len(records))
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			log.Fatalf("Failed to encode record: %v", err)
		}
	}
}
