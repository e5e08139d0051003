package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/aurastream/auramatch/pkg/auramatch/tuning"
)

func TestIsWAV(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"song.wav", true},
		{"/tmp/SONG.WAV", true},
		{"song.mp3", false},
		{"wav", false},
		{"song.wav.flac", false},
	}

	for _, tt := range tests {
		if got := IsWAV(tt.path); got != tt.expected {
			t.Errorf("IsWAV(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestTranscodeFilters(t *testing.T) {
	tests := []struct {
		name     string
		cfg      TranscodeConfig
		expected string
	}{
		{"plain", TranscodeConfig{SampleRate: 44100}, ""},
		{"reference pitch", TranscodeConfig{SampleRate: 44100, PitchRatio: 1}, ""},
		{"normalize only", TranscodeConfig{SampleRate: 44100, Normalize: true}, loudnessFilter},
		{
			"432hz",
			TranscodeConfig{SampleRate: 44100, PitchRatio: tuning.PitchRatio(tuning.Relaxation)},
			"aresample=44100,asetrate=43298,aresample=44100,atempo=1.018519",
		},
		{
			"528hz normalized",
			TranscodeConfig{SampleRate: 44100, PitchRatio: tuning.PitchRatio(tuning.Awakening), Normalize: true},
			"aresample=44100,asetrate=52920,aresample=44100,atempo=0.833333," + loudnessFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(tt.cfg.filters(), ","); got != tt.expected {
				t.Errorf("filters = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestTranscodeArgs(t *testing.T) {
	wav := TranscodeConfig{Channels: 1}.withDefaults()
	args := wav.args("in.mp3", "out.wav")

	if args[len(args)-1] != "out.wav" {
		t.Errorf("Expected output path last, got %v", args)
	}
	for _, want := range [][]string{{"-ac", "1"}, {"-ar", "11025"}, {"-c:a", "pcm_s16le"}} {
		if !containsPair(args, want[0], want[1]) {
			t.Errorf("WAV args missing %s %s: %v", want[0], want[1], args)
		}
	}
	if slices.Contains(args, "-af") {
		t.Errorf("Expected no filter chain, got %v", args)
	}

	aac := TranscodeConfig{Format: FormatAAC, PitchRatio: 528.0 / 440.0}.withDefaults()
	args = aac.args("in.flac", "out.m4a")
	for _, want := range [][]string{{"-ar", "44100"}, {"-c:a", "aac"}, {"-b:a", "256k"}, {"-movflags", "+faststart"}} {
		if !containsPair(args, want[0], want[1]) {
			t.Errorf("AAC args missing %s %s: %v", want[0], want[1], args)
		}
	}
	if slices.Contains(args, "-ac") {
		t.Errorf("Expected source channel layout kept, got %v", args)
	}
	if !slices.Contains(args, "-af") {
		t.Errorf("Expected pitch filter chain, got %v", args)
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestRenderTuningUnknown(t *testing.T) {
	outDir := t.TempDir()

	if _, err := RenderTuning(context.Background(), "in.wav", outDir, tuning.Tuning("415hz")); err == nil {
		t.Fatal("Expected error for unknown tuning")
	}
	if entries, _ := os.ReadDir(outDir); len(entries) != 0 {
		t.Errorf("Expected no files written, found %d", len(entries))
	}
}

func TestConvertToMonoWAVMissingInput(t *testing.T) {
	outDir := t.TempDir()

	_, err := ConvertToMonoWAV(context.Background(), filepath.Join(outDir, "missing.mp3"), outDir, TranscodeConfig{})
	if err == nil {
		t.Fatal("Expected error for missing input")
	}

	for _, name := range []string{"missing.mono.wav", "missing.mono.wav.part"} {
		if _, statErr := os.Stat(filepath.Join(outDir, name)); !os.IsNotExist(statErr) {
			t.Errorf("Expected no %s, stat returned %v", name, statErr)
		}
	}
}

func TestConvertToMonoWAVCancelled(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outDir := t.TempDir()
	if _, err := ConvertToMonoWAV(ctx, filepath.Join(outDir, "in.mp3"), outDir, TranscodeConfig{SampleRate: 8000}); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestRunToolMissingBinary(t *testing.T) {
	_, err := runTool(context.Background(), probeTimeout, "auramatch-no-such-tool")
	if !errors.Is(err, ErrToolMissing) {
		t.Errorf("Expected ErrToolMissing, got %v", err)
	}
}
