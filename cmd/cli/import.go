package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/aurastream/auramatch/pkg/utils"
)

// importEntry is one track in an import file. Catalog exports carry the
// series under metadata.waveform, sometimes as a JSON-encoded string.
type importEntry struct {
	Title      string          `json:"title"`
	Artist     string          `json:"artist"`
	Duration   json.RawMessage `json:"duration"`
	DurationMS int             `json:"duration_ms"`
	Peaks      flexPeaks       `json:"peaks"`
	Metadata   struct {
		Waveform flexPeaks `json:"waveform"`
	} `json:"metadata"`
}

// DurationMs resolves the entry's duration, accepting "m:ss", seconds or ms.
func (e importEntry) DurationMs() int {
	if e.DurationMS > 0 {
		return e.DurationMS
	}
	raw := bytes.TrimSpace(e.Duration)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return utils.DefaultDurationMs
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return utils.ParseDurationMs(s)
	}
	if n, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return utils.ParseDurationMs(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return utils.DefaultDurationMs
}

func (e importEntry) PeakSeries() []float64 {
	if len(e.Peaks) > 0 {
		return e.Peaks
	}
	return e.Metadata.Waveform
}

// flexPeaks decodes either a JSON array or a string holding a JSON array.
type flexPeaks []float64

func (p *flexPeaks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*p = nil
			return nil
		}
		data = []byte(s)
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("peaks: %w", err)
	}
	*p = values
	return nil
}

// loadImportFile reads a JSON array of tracks, or an object with a "tracks" array.
func loadImportFile(path string) ([]importEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseImport(data)
}

func parseImport(data []byte) ([]importEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty import file")
	}

	var entries []importEntry
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decoding track list: %w", err)
		}
		return entries, nil
	}

	var wrapped struct {
		Tracks []importEntry `json:"tracks"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding track list: %w", err)
	}
	return wrapped.Tracks, nil
}
