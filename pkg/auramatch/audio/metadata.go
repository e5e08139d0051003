package audio

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const probeTimeout = 5 * time.Second

// ErrNoAudioStream is returned for containers without an audio track.
var ErrNoAudioStream = errors.New("no audio stream found")

// Metadata is what ingestion needs from a source file: its tags and enough
// stream detail to log what was converted.
type Metadata struct {
	Filename   string
	Title      string
	Artist     string
	Album      string
	DurationMs int
	SampleRate int
	Channels   int
	Format     string
}

type probeReport struct {
	Format struct {
		Duration string            `json:"duration"`
		Name     string            `json:"format_name"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string            `json:"codec_type"`
		SampleRate string            `json:"sample_rate"`
		Channels   int               `json:"channels"`
		Duration   string            `json:"duration"`
		Tags       map[string]string `json:"tags"`
	} `json:"streams"`
}

// tag looks key up case-insensitively, container tags before stream tags.
func tag(key string, sets ...map[string]string) string {
	for _, set := range sets {
		for k, v := range set {
			if strings.EqualFold(k, key) {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

func secondsToMs(s string) int {
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil || sec <= 0 || math.IsInf(sec, 0) {
		return 0
	}
	return int(math.Round(sec * 1000))
}

// ParseFFprobeJSON builds Metadata from `ffprobe -print_format json` output.
// The container duration wins; the audio stream's is used when it is absent.
func ParseFFprobeJSON(path string, out []byte) (*Metadata, error) {
	var report probeReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, err
	}

	for _, s := range report.Streams {
		if s.CodecType != "audio" {
			continue
		}

		rate, _ := strconv.Atoi(s.SampleRate)
		durationMs := secondsToMs(report.Format.Duration)
		if durationMs == 0 {
			durationMs = secondsToMs(s.Duration)
		}

		return &Metadata{
			Filename:   filepath.Base(path),
			Title:      tag("title", report.Format.Tags, s.Tags),
			Artist:     tag("artist", report.Format.Tags, s.Tags),
			Album:      tag("album", report.Format.Tags, s.Tags),
			DurationMs: durationMs,
			SampleRate: rate,
			Channels:   s.Channels,
			Format:     report.Format.Name,
		}, nil
	}
	return nil, ErrNoAudioStream
}

// ReadMetadataFFmpeg probes path with ffprobe.
func ReadMetadataFFmpeg(ctx context.Context, path string) (*Metadata, error) {
	out, err := runTool(ctx, probeTimeout, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, err
	}
	return ParseFFprobeJSON(path, out)
}
