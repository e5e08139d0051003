package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aurastream/auramatch/pkg/models"
)

const DefaultDBFile = "auramatch.sqlite3"
const errDBClientNil = "db client is nil"

// ErrTrackNotFound is returned when no track has the requested ID.
var ErrTrackNotFound = errors.New("track not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Track struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Title      string `gorm:"uniqueIndex:idx_track_unique,priority:1;index:idx_track_meta,priority:1" json:"title"`
	Artist     string `gorm:"uniqueIndex:idx_track_unique,priority:2;index:idx_track_meta,priority:2" json:"artist"`
	DurationMs int    `json:"duration_ms"`
	PeaksData  []byte `gorm:"type:blob" json:"-"` // JSON-encoded []float64
	Points     int    `gorm:"index:idx_points" json:"points"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Peaks returns the decoded peak series.
func (t *Track) Peaks() ([]float64, error) {
	if len(t.PeaksData) == 0 {
		return nil, nil
	}
	var peaks []float64
	if err := json.Unmarshal(t.PeaksData, &peaks); err != nil {
		return nil, fmt.Errorf("decoding peaks for %s: %w", t.ID, err)
	}
	return peaks, nil
}

// SetPeaks encodes peaks into the blob column.
func (t *Track) SetPeaks(peaks []float64) error {
	if len(peaks) == 0 {
		t.PeaksData = nil
		t.Points = 0
		return nil
	}
	data, err := json.Marshal(peaks)
	if err != nil {
		return err
	}
	t.PeaksData = data
	t.Points = len(peaks)
	return nil
}

func (t *Track) toModel() (*models.Track, error) {
	peaks, err := t.Peaks()
	if err != nil {
		return nil, err
	}
	return &models.Track{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		DurationMs: t.DurationMs,
		PeakData:   peaks,
		CreatedAt:  t.CreatedAt,
	}, nil
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("AURA_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Track{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterTrack stores a track and returns its ID. A track with the same title
// and artist keeps its ID; its duration and peak data are refreshed.
func (c *DBClient) RegisterTrack(title, artist string, durationMs int, peaks []float64) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	var track Track

	err := c.DB.Where("title = ? AND artist = ?", title, artist).First(&track).Error
	if err == nil {
		if err := c.UpdatePeakData(track.ID, peaks, durationMs); err != nil {
			return "", err
		}
		return track.ID, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing track: %w", err)
	}

	track = Track{ID: uuid.NewString(), Title: title, Artist: artist, DurationMs: durationMs}
	if err := track.SetPeaks(peaks); err != nil {
		return "", fmt.Errorf("encoding peaks: %w", err)
	}

	err = c.DB.Create(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if fetchErr := c.DB.Where("title = ? AND artist = ?", title, artist).First(&track).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching track after constraint violation: %w", fetchErr)
			}
			if err := c.UpdatePeakData(track.ID, peaks, durationMs); err != nil {
				return "", err
			}
			return track.ID, nil
		}
		return "", fmt.Errorf("creating track: %w", err)
	}

	return track.ID, nil
}

// UpdatePeakData replaces the peak series and duration of an existing track.
func (c *DBClient) UpdatePeakData(trackID string, peaks []float64, durationMs int) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	var t Track
	if err := t.SetPeaks(peaks); err != nil {
		return fmt.Errorf("encoding peaks: %w", err)
	}

	res := c.DB.Model(&Track{}).Where("id = ?", trackID).Updates(map[string]any{
		"peaks_data":  t.PeaksData,
		"points":      t.Points,
		"duration_ms": durationMs,
	})
	if res.Error != nil {
		return fmt.Errorf("updating peaks: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTrackNotFound
	}
	return nil
}

func (c *DBClient) GetTrackByID(trackID string) (*models.Track, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var track Track
	if err := c.DB.Where("id = ?", trackID).First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("querying track: %w", err)
	}
	return track.toModel()
}

// ListTracks returns every track ordered by title, without peak data.
func (c *DBClient) ListTracks() ([]models.Track, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []Track
	if err := c.DB.Omit("peaks_data").Order("title, artist").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}

	tracks := make([]models.Track, 0, len(rows))
	for _, r := range rows {
		tracks = append(tracks, models.Track{
			ID:         r.ID,
			Title:      r.Title,
			Artist:     r.Artist,
			DurationMs: r.DurationMs,
			CreatedAt:  r.CreatedAt,
		})
	}
	return tracks, nil
}

// ListTracksWithPeaks returns every analyzed track with its decoded peak series.
func (c *DBClient) ListTracksWithPeaks() ([]models.Track, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []Track
	if err := c.DB.Where("points > 0").Order("title, artist").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing analyzed tracks: %w", err)
	}

	tracks := make([]models.Track, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *t)
	}
	return tracks, nil
}

func (c *DBClient) TrackCount() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Track{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return count, nil
}

func (c *DBClient) DeleteTrackByID(trackID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", trackID).Delete(&Track{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTrackNotFound
		}
		return nil
	})
}
