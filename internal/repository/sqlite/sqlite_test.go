package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"oceanguard/internal/dto"
	"oceanguard/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func insertTestBoat(t *testing.T, repo *BoatRepository, boatID, qr string) *model.RegisteredBoat {
	t.Helper()

	boat := &model.RegisteredBoat{
		BoatID:    boatID,
		BoatName:  "Sea King",
		OwnerName: "Ravi",
		QRCode:    qr,
	}
	id, err := repo.Insert(boat)
	if err != nil {
		t.Fatalf("Failed to insert boat: %v", err)
	}
	boat.ID = id
	return boat
}

func floatp(v float64) *float64 { return &v }

// ========================================
// Database Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrationIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("Second migration failed: %v", err)
	}
}

// ========================================
// Boat Repository Tests
// ========================================

func TestBoatRepository_GetByQRCode(t *testing.T) {
	repo := NewBoatRepository(setupTestDB(t))
	insertTestBoat(t, repo, "OCEAN-BOAT-001", "OCEAN-BOAT-001")

	boat, err := repo.GetByQRCode("OCEAN-BOAT-001")
	if err != nil {
		t.Fatalf("GetByQRCode failed: %v", err)
	}
	if boat == nil {
		t.Fatal("Expected boat, got nil")
	}
	if boat.BoatName != "Sea King" || boat.TotalEntries != 0 || boat.IsBlacklisted {
		t.Errorf("Unexpected boat: %+v", boat)
	}
	if boat.LastPosition() != nil {
		t.Error("Expected no last position for a new boat")
	}

	missing, err := repo.GetByQRCode("ocean-boat-001")
	if err != nil {
		t.Fatalf("GetByQRCode failed: %v", err)
	}
	if missing != nil {
		t.Error("QR lookup must be an exact match")
	}
}

func TestBoatRepository_UniqueQRCode(t *testing.T) {
	repo := NewBoatRepository(setupTestDB(t))
	insertTestBoat(t, repo, "OCEAN-BOAT-001", "QR-1")

	_, err := repo.Insert(&model.RegisteredBoat{BoatID: "OCEAN-BOAT-002", BoatName: "x", OwnerName: "y", QRCode: "QR-1"})
	if err == nil {
		t.Error("Expected error inserting duplicate qr_code")
	}
}

func TestBoatRepository_RecordScan(t *testing.T) {
	repo := NewBoatRepository(setupTestDB(t))
	boat := insertTestBoat(t, repo, "OCEAN-BOAT-001", "QR-1")
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.RecordScan(boat.ID, at, &model.Coordinate{Latitude: 18.9, Longitude: 72.8}, false); err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}
	if err := repo.RecordScan(boat.ID, at.Add(time.Hour), nil, true); err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}

	got, err := repo.GetByID(boat.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TotalEntries != 2 {
		t.Errorf("Expected 2 entries, got %d", got.TotalEntries)
	}
	if got.SuspiciousActivityCount != 1 {
		t.Errorf("Expected 1 suspicious scan, got %d", got.SuspiciousActivityCount)
	}
	pos := got.LastPosition()
	if pos == nil || pos.Latitude != 18.9 || pos.Longitude != 72.8 {
		t.Errorf("Expected last position kept, got %+v", pos)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(at.Add(time.Hour)) {
		t.Errorf("Expected last seen %v, got %v", at.Add(time.Hour), got.LastSeenAt)
	}

	if err := repo.RecordScan(9999, at, nil, false); err == nil {
		t.Error("Expected error for unknown boat")
	}
}

func TestBoatRepository_UpsertAndBlacklist(t *testing.T) {
	repo := NewBoatRepository(setupTestDB(t))

	boat := &model.RegisteredBoat{BoatID: "B-1", BoatName: "Wave Rider", OwnerName: "Anu", QRCode: "QR-B-1"}
	id1, err := repo.Upsert(boat)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := repo.RecordScan(id1, time.Now(), nil, false); err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}

	boat.BoatName = "Wave Rider II"
	id2, err := repo.Upsert(boat)
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Expected same id on upsert, got %d and %d", id1, id2)
	}

	if err := repo.SetBlacklisted("B-1", true); err != nil {
		t.Fatalf("SetBlacklisted failed: %v", err)
	}
	if err := repo.SetBlacklisted("missing", true); err == nil {
		t.Error("Expected error blacklisting unknown boat")
	}

	got, _ := repo.GetByBoatID("B-1")
	if got.BoatName != "Wave Rider II" || !got.IsBlacklisted || got.TotalEntries != 1 {
		t.Errorf("Unexpected boat after upsert/blacklist: %+v", got)
	}

	all, err := repo.GetAll()
	if err != nil || len(all) != 1 {
		t.Errorf("Expected 1 boat, got %d (err=%v)", len(all), err)
	}
}

// ========================================
// Scan Log Repository Tests
// ========================================

func TestScanLogRepository_MostRecent(t *testing.T) {
	db := setupTestDB(t)
	boats := NewBoatRepository(db)
	logs := NewScanLogRepository(db)
	boat := insertTestBoat(t, boats, "B-1", "QR-1")

	none, err := logs.GetMostRecent(boat.ID)
	if err != nil {
		t.Fatalf("GetMostRecent failed: %v", err)
	}
	if none != nil {
		t.Fatal("Expected no scan for a new boat")
	}

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{0, 20 * time.Minute, 10 * time.Minute} {
		_, err := logs.Insert(&model.ScanLogEntry{
			BoatID:          boat.ID,
			ScannedAt:       base.Add(offset),
			Position:        &model.Coordinate{Latitude: float64(i), Longitude: 1},
			SpeedKmh:        floatp(12.5),
			IsSuspicious:    i == 1,
			SuspicionReason: "",
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	latest, err := logs.GetMostRecent(boat.ID)
	if err != nil {
		t.Fatalf("GetMostRecent failed: %v", err)
	}
	if !latest.ScannedAt.Equal(base.Add(20 * time.Minute)) {
		t.Errorf("Expected latest scan at +20m, got %v", latest.ScannedAt)
	}
	if latest.Position == nil || latest.Position.Latitude != 1 {
		t.Errorf("Unexpected position: %+v", latest.Position)
	}
	if latest.SpeedKmh == nil || *latest.SpeedKmh != 12.5 {
		t.Errorf("Unexpected speed: %v", latest.SpeedKmh)
	}
	if latest.DistanceFromPreviousKm != nil {
		t.Errorf("Expected nil distance, got %v", *latest.DistanceFromPreviousKm)
	}

	history, err := logs.GetByBoat(boat.ID, 2)
	if err != nil {
		t.Fatalf("GetByBoat failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(history))
	}
	if history[0].ScannedAt.Before(history[1].ScannedAt) {
		t.Error("Expected newest first")
	}
}

func TestScanLogRepository_MostRecentWithPosition(t *testing.T) {
	db := setupTestDB(t)
	boats := NewBoatRepository(db)
	logs := NewScanLogRepository(db)
	boat := insertTestBoat(t, boats, "B-1", "QR-1")

	if none, err := logs.GetMostRecentWithPosition(boat.ID); err != nil || none != nil {
		t.Fatalf("Expected no located scan, got %+v, %v", none, err)
	}

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	logs.Insert(&model.ScanLogEntry{BoatID: boat.ID, ScannedAt: base, Position: &model.Coordinate{Latitude: 10, Longitude: 76}})
	logs.Insert(&model.ScanLogEntry{BoatID: boat.ID, ScannedAt: base.Add(10 * time.Minute)})

	latest, _ := logs.GetMostRecent(boat.ID)
	if latest == nil || latest.Position != nil {
		t.Fatalf("Expected latest scan without position, got %+v", latest)
	}

	located, err := logs.GetMostRecentWithPosition(boat.ID)
	if err != nil {
		t.Fatalf("GetMostRecentWithPosition failed: %v", err)
	}
	if located == nil || !located.ScannedAt.Equal(base) || located.Position.Latitude != 10 {
		t.Errorf("Expected the located scan at %v, got %+v", base, located)
	}
}

// ========================================
// Capture Repository Tests
// ========================================

func TestCaptureRepository_InsertAndFilter(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	records := []model.CaptureRecord{
		{ImagePath: "captures/a.jpg", Camera: "north", CapturedAt: base, QRDetected: true, QRData: "QR-1", QRValid: true, Status: model.StatusPending},
		{ImagePath: "captures/b.jpg", Camera: "north", CapturedAt: base.Add(time.Minute), QRDetected: true, QRData: "QR-X", Status: model.StatusWarning, Notes: "unregistered"},
		{ImagePath: "captures/c.jpg", Camera: "south", CapturedAt: base.Add(2 * time.Minute), Status: model.StatusWarning},
	}
	for i := range records {
		id, err := repo.Insert(&records[i])
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if id <= 0 {
			t.Errorf("Expected positive ID, got %d", id)
		}
	}

	warnings, err := repo.GetAll(&dto.CaptureFilters{Status: model.StatusWarning})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %d", len(warnings))
	}
	if warnings[0].ImagePath != "captures/c.jpg" {
		t.Errorf("Expected newest first, got %s", warnings[0].ImagePath)
	}

	north, _ := repo.GetTotalCount(&dto.CaptureFilters{Camera: "north"})
	if north != 2 {
		t.Errorf("Expected 2 north captures, got %d", north)
	}

	page, _ := repo.GetAll(&dto.CaptureFilters{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ImagePath != "captures/b.jpg" {
		t.Errorf("Unexpected page: %+v", page)
	}

	after, _ := repo.GetTotalCount(&dto.CaptureFilters{DateAfter: base.Add(30 * time.Second)})
	if after != 2 {
		t.Errorf("Expected 2 captures after +30s, got %d", after)
	}

	counts, err := repo.GetStatusCounts()
	if err != nil {
		t.Fatalf("GetStatusCounts failed: %v", err)
	}
	if counts["total"] != 3 || counts[model.StatusWarning] != 2 || counts[model.StatusPending] != 1 || counts[model.StatusApproved] != 0 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestCaptureRepository_Review(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))

	id, err := repo.Insert(&model.CaptureRecord{ImagePath: "a.jpg", CapturedAt: time.Now(), Notes: "QR verified"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	reviewedAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if err := repo.UpdateReview(id, model.StatusApproved, "Coast Guard", "", reviewedAt); err != nil {
		t.Fatalf("UpdateReview failed: %v", err)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != model.StatusApproved || got.ReviewedBy != "Coast Guard" {
		t.Errorf("Unexpected review: %+v", got)
	}
	if got.Notes != "QR verified" {
		t.Errorf("Expected notes to be kept, got %q", got.Notes)
	}
	if got.ReviewedAt == nil || !got.ReviewedAt.Equal(reviewedAt) {
		t.Errorf("Expected reviewed at %v, got %v", reviewedAt, got.ReviewedAt)
	}

	if err := repo.UpdateReview(id, "rejected", "x", "", reviewedAt); err == nil {
		t.Error("Expected error for invalid status")
	}
	if err := repo.UpdateReview(9999, model.StatusWarning, "x", "", reviewedAt); err == nil {
		t.Error("Expected error for missing capture")
	}
}

func TestCaptureRepository_DeleteKeepsScanLog(t *testing.T) {
	db := setupTestDB(t)
	captures := NewCaptureRepository(db)
	boats := NewBoatRepository(db)
	logs := NewScanLogRepository(db)

	boat := insertTestBoat(t, boats, "B-1", "QR-1")
	captureID, _ := captures.Insert(&model.CaptureRecord{ImagePath: "a.jpg", CapturedAt: time.Now()})
	if _, err := logs.Insert(&model.ScanLogEntry{BoatID: boat.ID, CaptureID: &captureID, ScannedAt: time.Now()}); err != nil {
		t.Fatalf("Insert scan log failed: %v", err)
	}

	if err := captures.Delete(captureID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, _ := captures.GetByID(captureID)
	if got != nil {
		t.Error("Capture should be deleted")
	}

	entry, _ := logs.GetMostRecent(boat.ID)
	if entry == nil {
		t.Fatal("Scan log entry must survive capture deletion")
	}
	if entry.CaptureID != nil {
		t.Errorf("Expected unlinked capture, got %d", *entry.CaptureID)
	}
}

func TestOutcomeRepository_Record(t *testing.T) {
	db := setupTestDB(t)
	outcomes := NewOutcomeRepository(db)
	captures := NewCaptureRepository(db)
	boats := NewBoatRepository(db)
	logs := NewScanLogRepository(db)

	boat := insertTestBoat(t, boats, "B-1", "QR-1")
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	capture := &model.CaptureRecord{ImagePath: "a.jpg", CapturedAt: at, Status: model.StatusPending}
	entry := &model.ScanLogEntry{BoatID: boat.ID, ScannedAt: at, Position: &model.Coordinate{Latitude: 10, Longitude: 76}}

	id, err := outcomes.Record(capture, entry)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if capture.ID != id || entry.ID == 0 {
		t.Errorf("Expected IDs to be set, got capture %d entry %d", capture.ID, entry.ID)
	}

	recent, _ := logs.GetMostRecent(boat.ID)
	if recent == nil || recent.CaptureID == nil || *recent.CaptureID != id {
		t.Errorf("Expected scan log linked to capture %d, got %+v", id, recent)
	}

	reloaded, _ := boats.GetByBoatID("B-1")
	if reloaded.TotalEntries != 1 || reloaded.LastLatitude == nil {
		t.Errorf("Expected counters and position updated, got %+v", reloaded)
	}

	// Without a scan only the capture is written.
	if _, err := outcomes.Record(&model.CaptureRecord{ImagePath: "b.jpg", CapturedAt: at}, nil); err != nil {
		t.Fatalf("Record without scan failed: %v", err)
	}
	if n, _ := captures.GetTotalCount(&dto.CaptureFilters{}); n != 2 {
		t.Errorf("Expected 2 captures, got %d", n)
	}
}

func TestOutcomeRepository_RecordRollsBack(t *testing.T) {
	db := setupTestDB(t)
	outcomes := NewOutcomeRepository(db)
	captures := NewCaptureRepository(db)

	// Unknown boat: the scan half fails after the capture was inserted.
	entry := &model.ScanLogEntry{BoatID: 999, ScannedAt: time.Now()}
	if _, err := outcomes.Record(&model.CaptureRecord{ImagePath: "a.jpg", CapturedAt: time.Now()}, entry); err == nil {
		t.Fatal("Expected error for unknown boat")
	}

	if n, _ := captures.GetTotalCount(&dto.CaptureFilters{}); n != 0 {
		t.Errorf("Expected capture insert to be rolled back, got %d captures", n)
	}

	// The connection is usable again after the rollback.
	if _, err := captures.Insert(&model.CaptureRecord{ImagePath: "b.jpg", CapturedAt: time.Now()}); err != nil {
		t.Errorf("Insert after rollback failed: %v", err)
	}
}

func TestDatabase_ConcurrentAccess(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			_, err := repo.Insert(&model.CaptureRecord{
				ImagePath:  "concurrent_" + string(rune('a'+idx)) + ".jpg",
				Camera:     "cam1",
				CapturedAt: time.Now(),
			})
			if err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	count, _ := repo.GetTotalCount(&dto.CaptureFilters{})
	if count != 10 {
		t.Errorf("Expected 10 captures, got %d", count)
	}
}
