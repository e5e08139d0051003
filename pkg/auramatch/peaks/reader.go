package peaks

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWavAsFloat64 decodes a PCM WAV file into mono samples in [-1, 1].
// Multi-channel input is mixed down by averaging the channels of each frame.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, errors.New("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading pcm data: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	channels := int(decoder.NumChans)
	if channels <= 0 {
		channels = 1
	}

	scale := float64(int64(1) << uint(bitDepth-1))
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	return samples, int(decoder.SampleRate), nil
}

// DurationMs returns the playback length of samples at sampleRate.
func DurationMs(samples []float64, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	return int(float64(len(samples)) * 1000.0 / float64(sampleRate))
}
