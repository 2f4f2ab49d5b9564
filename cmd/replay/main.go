package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"partcounter/internal/app"
	"partcounter/internal/config"
	"partcounter/internal/logger"
	"partcounter/internal/model"
	"partcounter/internal/repository/sqlite"
	"partcounter/internal/service/bom"
	"partcounter/internal/service/counting"
	"partcounter/internal/service/metrics"
)

// replay feeds a recorded tracker session (one JSON frame per line) through the
// counter and records every crossing, as the live service would.
func main() {
	cfg := config.Load()

	input := flag.String("input", "", "JSON lines file with one tracker frame per line")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "Database path")
	flag.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "XLSX report path, empty to disable")
	flag.StringVar(&cfg.BOMPath, "bom", cfg.BOMPath, "BOM workbook path")
	flag.Float64Var(&cfg.LinePosition, "line", cfg.LinePosition, "Counting line position")
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()

	lg := logger.New(cfg.LogDirectory)
	defer lg.Close()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	rec := app.NewRecorder(cfg, bom.NewReader(cfg.BOMPath, lg), lg, metrics.New(), sqlite.NewCrossingRepository(db))
	counter := counting.NewCounter(counting.NewDetector(cfg.LinePosition), rec, app.Markers(cfg))

	fmt.Printf("Replaying %s with line at %v\n", *input, cfg.LinePosition)

	frames, skipped, dropped, crossings := 0, 0, 0, 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame model.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			log.Printf("Skipping frame %d: %v", frames+skipped+1, err)
			skipped++
			continue
		}
		frames++
		dropped += frame.Dropped
		crossings += len(counter.UpdateCounts(frame.Detections))
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	fmt.Printf("Processed %d frames (%d skipped, %d malformed detections dropped), %d crossings counted\n", frames, skipped, dropped, crossings)

	counts := counter.GetCounts()
	lines := make([]string, 0, len(counts))
	for line := range counts {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Printf("  %s: %d\n", line, counts[line])
	}
}
