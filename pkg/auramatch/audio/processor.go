package audio

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aurastream/auramatch/pkg/auramatch/tuning"
	"github.com/aurastream/auramatch/pkg/utils"
)

// DefaultSampleRate is the analysis rate for envelope extraction.
const DefaultSampleRate = 11025

// StreamSampleRate is the rate of the AAC renditions served to venues.
const StreamSampleRate = 44100

const (
	transcodeTimeout = 2 * time.Minute
	streamBitrate    = "256k"
	// EBU R128, streaming target
	loudnessFilter = "loudnorm=I=-14:LRA=11:TP=-1.5"
)

// Format selects the container and codec of a rendition.
type Format string

const (
	FormatWAV Format = "wav" // 16-bit PCM
	FormatAAC Format = "m4a" // AAC in MP4, faststart
)

// TranscodeConfig describes one ffmpeg rendition. Channels 0 keeps the
// source layout; PitchRatio 0 or 1 keeps the source pitch.
type TranscodeConfig struct {
	Format     Format
	SampleRate int
	Channels   int
	PitchRatio float64
	Normalize  bool
}

func (c TranscodeConfig) withDefaults() TranscodeConfig {
	if c.Format == "" {
		c.Format = FormatWAV
	}
	if c.SampleRate <= 0 {
		if c.Format == FormatAAC {
			c.SampleRate = StreamSampleRate
		} else {
			c.SampleRate = DefaultSampleRate
		}
	}
	return c
}

// filters returns the -af chain. A pitch shift resamples at rate*ratio, which
// also speeds the audio up, then atempo restores the original duration.
func (c TranscodeConfig) filters() []string {
	var chain []string
	if r := c.PitchRatio; r > 0 && r != 1 {
		shifted := int(math.Round(float64(c.SampleRate) * r))
		chain = append(chain,
			"aresample="+strconv.Itoa(c.SampleRate),
			"asetrate="+strconv.Itoa(shifted),
			"aresample="+strconv.Itoa(c.SampleRate),
			"atempo="+strconv.FormatFloat(1/r, 'f', 6, 64),
		)
	}
	if c.Normalize {
		chain = append(chain, loudnessFilter)
	}
	return chain
}

func (c TranscodeConfig) args(inputPath, outputPath string) []string {
	args := []string{"-y", "-v", "error", "-i", inputPath, "-vn"}
	if c.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(c.Channels))
	}
	args = append(args, "-ar", strconv.Itoa(c.SampleRate))
	if chain := c.filters(); len(chain) > 0 {
		args = append(args, "-af", strings.Join(chain, ","))
	}

	switch c.Format {
	case FormatAAC:
		args = append(args, "-c:a", "aac", "-b:a", streamBitrate, "-movflags", "+faststart", "-f", "mp4")
	default:
		args = append(args, "-c:a", "pcm_s16le", "-f", "wav")
	}
	return append(args, outputPath)
}

// Transcode renders inputPath into outputPath. The file is written under a
// temporary name and moved into place only when ffmpeg succeeds.
func Transcode(ctx context.Context, inputPath, outputPath string, cfg TranscodeConfig) error {
	cfg = cfg.withDefaults()

	if err := utils.MakeDir(filepath.Dir(outputPath)); err != nil {
		return err
	}

	partPath := outputPath + ".part"
	defer utils.RemoveIfExists(partPath)

	if _, err := runTool(ctx, transcodeTimeout, "ffmpeg", cfg.args(inputPath, partPath)...); err != nil {
		return fmt.Errorf("transcoding %s: %w", filepath.Base(inputPath), err)
	}
	return utils.MoveFile(partPath, outputPath)
}

// IsWAV reports whether path already looks like a WAV file.
func IsWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// ConvertToMonoWAV writes the mono analysis copy of inputPath into outputDir
// and returns its path. Format and Channels in cfg are overridden.
func ConvertToMonoWAV(ctx context.Context, inputPath, outputDir string, cfg TranscodeConfig) (string, error) {
	cfg.Format = FormatWAV
	cfg.Channels = 1

	outputPath := filepath.Join(outputDir, baseName(inputPath)+".mono.wav")
	if err := Transcode(ctx, inputPath, outputPath, cfg); err != nil {
		return "", err
	}
	return outputPath, nil
}

// RenderTuning writes the loudness-normalized AAC stream of inputPath shifted
// to t, named <base>.<tuning>.m4a inside outputDir.
func RenderTuning(ctx context.Context, inputPath, outputDir string, t tuning.Tuning) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("unknown tuning %q", t)
	}

	outputPath := filepath.Join(outputDir, baseName(inputPath)+"."+string(t)+".m4a")
	err := Transcode(ctx, inputPath, outputPath, TranscodeConfig{
		Format:     FormatAAC,
		PitchRatio: tuning.PitchRatio(t),
		Normalize:  true,
	})
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
