package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_auramatch.sqlite3")
	t.Setenv("AURA_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestRegisterTrack(t *testing.T) {
	client, _ := setupTestDB(t)

	peaks := []float64{0.1, 0.5, 1.0, 0.25}
	trackID, err := client.RegisterTrack("Lobby Morning", "Aura Studio", 180000, peaks)
	if err != nil {
		t.Fatalf("Failed to register track: %v", err)
	}
	if trackID == "" {
		t.Fatal("Expected non-empty track ID")
	}

	track, err := client.GetTrackByID(trackID)
	if err != nil {
		t.Fatalf("Failed to retrieve registered track: %v", err)
	}

	if track.Title != "Lobby Morning" {
		t.Errorf("Expected title 'Lobby Morning', got '%s'", track.Title)
	}
	if track.Artist != "Aura Studio" {
		t.Errorf("Expected artist 'Aura Studio', got '%s'", track.Artist)
	}
	if track.DurationMs != 180000 {
		t.Errorf("Expected duration 180000, got %d", track.DurationMs)
	}
	if len(track.PeakData) != len(peaks) {
		t.Fatalf("Expected %d peaks, got %d", len(peaks), len(track.PeakData))
	}
	for i := range peaks {
		if track.PeakData[i] != peaks[i] {
			t.Errorf("Peak %d: expected %f, got %f", i, peaks[i], track.PeakData[i])
		}
	}
}

func TestRegisterTrackIdempotent(t *testing.T) {
	client, _ := setupTestDB(t)

	id1, err := client.RegisterTrack("Same Track", "Same Artist", 120000, []float64{0.1, 0.2})
	if err != nil {
		t.Fatalf("Failed to register track first time: %v", err)
	}

	id2, err := client.RegisterTrack("Same Track", "Same Artist", 121000, []float64{0.3, 0.4, 0.5})
	if err != nil {
		t.Fatalf("Failed to register track second time: %v", err)
	}

	if id1 != id2 {
		t.Errorf("Expected same track ID for duplicate registration, got %s and %s", id1, id2)
	}

	count, err := client.TrackCount()
	if err != nil {
		t.Fatalf("TrackCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 track in database, found %d", count)
	}

	track, err := client.GetTrackByID(id1)
	if err != nil {
		t.Fatalf("GetTrackByID failed: %v", err)
	}
	if len(track.PeakData) != 3 || track.DurationMs != 121000 {
		t.Errorf("Expected refreshed peaks and duration, got %d points and %dms", len(track.PeakData), track.DurationMs)
	}
}

func TestRegisterTrackConcurrentInsert(t *testing.T) {
	client, _ := setupTestDB(t)

	// Another writer inserts the same title and artist between the lookup
	// and the insert.
	var winnerID string
	fired := false
	err := client.DB.Callback().Query().After("gorm:query").Register("test:concurrent_insert", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "tracks" {
			return
		}
		fired = true

		winner := Track{ID: uuid.NewString(), Title: "Raced", Artist: "Writer", DurationMs: 1000}
		if err := winner.SetPeaks([]float64{0.9}); err != nil {
			t.Errorf("SetPeaks failed: %v", err)
			return
		}
		if err := client.DB.Create(&winner).Error; err != nil {
			t.Errorf("Concurrent insert failed: %v", err)
			return
		}
		winnerID = winner.ID
	})
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}

	id, err := client.RegisterTrack("Raced", "Writer", 64000, []float64{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("RegisterTrack failed: %v", err)
	}
	if id != winnerID {
		t.Errorf("Expected existing ID %s, got %s", winnerID, id)
	}

	track, err := client.GetTrackByID(id)
	if err != nil {
		t.Fatalf("GetTrackByID failed: %v", err)
	}
	if len(track.PeakData) != 3 || track.DurationMs != 64000 {
		t.Errorf("Expected refreshed peaks and duration, got %d points and %dms", len(track.PeakData), track.DurationMs)
	}
}

func TestGetTrackByIDNotFound(t *testing.T) {
	client, _ := setupTestDB(t)

	_, err := client.GetTrackByID("00000000-0000-4000-8000-000000000000")
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Expected ErrTrackNotFound, got %v", err)
	}
}

func TestListTracks(t *testing.T) {
	client, _ := setupTestDB(t)

	if _, err := client.RegisterTrack("Zebra", "B", 1000, []float64{1}); err != nil {
		t.Fatalf("RegisterTrack failed: %v", err)
	}
	if _, err := client.RegisterTrack("Alpha", "A", 2000, nil); err != nil {
		t.Fatalf("RegisterTrack failed: %v", err)
	}

	tracks, err := client.ListTracks()
	if err != nil {
		t.Fatalf("ListTracks failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Title != "Alpha" || tracks[1].Title != "Zebra" {
		t.Errorf("Expected tracks ordered by title, got %s, %s", tracks[0].Title, tracks[1].Title)
	}
	if len(tracks[1].PeakData) != 0 {
		t.Error("Expected ListTracks to omit peak data")
	}

	analyzed, err := client.ListTracksWithPeaks()
	if err != nil {
		t.Fatalf("ListTracksWithPeaks failed: %v", err)
	}
	if len(analyzed) != 1 || analyzed[0].Title != "Zebra" {
		t.Fatalf("Expected only the analyzed track, got %+v", analyzed)
	}
	if len(analyzed[0].PeakData) != 1 {
		t.Errorf("Expected peak data to be loaded, got %d points", len(analyzed[0].PeakData))
	}
}

func TestUpdatePeakData(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.RegisterTrack("Pending", "Artist", 0, nil)
	if err != nil {
		t.Fatalf("RegisterTrack failed: %v", err)
	}

	if err := client.UpdatePeakData(id, []float64{0.2, 0.8}, 4000); err != nil {
		t.Fatalf("UpdatePeakData failed: %v", err)
	}

	track, err := client.GetTrackByID(id)
	if err != nil {
		t.Fatalf("GetTrackByID failed: %v", err)
	}
	if !track.HasPeaks() || track.DurationMs != 4000 {
		t.Errorf("Expected analyzed track with 4000ms, got %d points and %dms", len(track.PeakData), track.DurationMs)
	}

	if err := client.UpdatePeakData("missing", []float64{1}, 1); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Expected ErrTrackNotFound for missing track, got %v", err)
	}
}

func TestDeleteTrackByID(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.RegisterTrack("To Delete", "Delete Artist", 100000, []float64{0.5})
	if err != nil {
		t.Fatalf("Failed to register track: %v", err)
	}

	if err := client.DeleteTrackByID(id); err != nil {
		t.Fatalf("Failed to delete track: %v", err)
	}

	if _, err := client.GetTrackByID(id); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Expected track to be deleted, got %v", err)
	}

	if err := client.DeleteTrackByID(id); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Expected ErrTrackNotFound on second delete, got %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *DBClient

	if err := client.Close(); err != nil {
		t.Errorf("Expected nil error closing nil client, got %v", err)
	}
	if _, err := client.RegisterTrack("a", "b", 1, nil); err == nil {
		t.Error("Expected error from nil client")
	}
	if _, err := client.ListTracks(); err == nil {
		t.Error("Expected error from nil client")
	}
}
