package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LineMarker maps a class name substring to a logical counting line.
type LineMarker struct {
	Marker string
	Line   string
}

type Config struct {
	Port           int
	CamerasPort    int               // UDP port for camera JPEG frames
	CameraNames    map[string]string // camera IP -> display name
	Password       string
	LinePosition   float64      // counting line x; fraction of width when <= 1
	LineMarkers    []LineMarker // checked in order, first match wins
	DatabasePath   string
	ReportPath     string // XLSX crossing report, empty disables it
	BOMPath        string // XLSX bill of materials used for part lookup
	LogDirectory   string
	FrameQueueSize int
}

// Load reads configuration from the environment, after applying an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		CamerasPort:    getEnvAsInt("CAMERAS_PORT", 9000),
		CameraNames:    parseCameraNames(getEnv("CAMERA_NAMES", "")),
		Password:       getEnv("PASSWORD", "changeme"),
		LinePosition:   getEnvAsFloat("LINE_POSITION", 0.5),
		LineMarkers:    parseLineMarkers(getEnv("LINE_MARKERS", "Line1=line1,Line2=line2")),
		DatabasePath:   getEnv("DB_PATH", filepath.Join(".", "data", "crossings.db")),
		ReportPath:     getEnv("REPORT_PATH", "flock_report.xlsx"),
		BOMPath:        getEnv("BOM_PATH", "bom.xlsx"),
		LogDirectory:   getEnv("LOG_DIR", filepath.Join(".", "logs")),
		FrameQueueSize: getEnvAsInt("FRAME_QUEUE_SIZE", 100),
	}
}

// Validate checks the values the counting pipeline cannot run without.
func (c *Config) Validate() error {
	if c.LinePosition <= 0 {
		return fmt.Errorf("LINE_POSITION must be positive, got %v", c.LinePosition)
	}
	if len(c.LineMarkers) == 0 {
		return fmt.Errorf("LINE_MARKERS must define at least one marker")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.FrameQueueSize <= 0 {
		return fmt.Errorf("FRAME_QUEUE_SIZE must be positive, got %d", c.FrameQueueSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// parseCameraNames parses "10.0.0.5=entry,10.0.0.6=exit".
func parseCameraNames(value string) map[string]string {
	names := make(map[string]string)
	for _, pair := range splitPairs(value) {
		names[pair[0]] = pair[1]
	}
	return names
}

// parseLineMarkers parses "Line1=line1,Line2=line2", keeping order.
func parseLineMarkers(value string) []LineMarker {
	var markers []LineMarker
	for _, pair := range splitPairs(value) {
		markers = append(markers, LineMarker{Marker: pair[0], Line: pair[1]})
	}
	return markers
}

func splitPairs(value string) [][2]string {
	var pairs [][2]string
	for _, item := range strings.Split(value, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(item), "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		pairs = append(pairs, [2]string{key, val})
	}
	return pairs
}
