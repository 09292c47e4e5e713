package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"oceanguard/internal/repository/sqlite"
)

func main() {
	boatsFile := flag.String("boats", "boats.yaml", "YAML file listing registered boats")
	dbPath := flag.String("db", "data/oceanguard.db", "Database path")
	qrDir := flag.String("qr", "", "Write a QR code PNG per boat into this directory")
	qrSize := flag.Int("qr-size", 400, "QR code PNG size in pixels")
	flag.Parse()

	fmt.Printf("Registering boats from %s into database %s\n", *boatsFile, *dbPath)

	boats, err := loadBoats(*boatsFile)
	if err != nil {
		log.Fatalf("Failed to load boats: %v", err)
	}
	if len(boats) == 0 {
		fmt.Println("No boats found to register")
		return
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	result := register(sqlite.NewBoatRepository(db), boats, *qrDir, *qrSize)

	fmt.Printf("Registered %d boats\n", result.Registered)
	if result.QRCodes > 0 {
		fmt.Printf("Wrote %d QR codes to %s\n", result.QRCodes, *qrDir)
	}
	for _, err := range result.Errors {
		fmt.Printf("Skipped: %v\n", err)
	}
}
