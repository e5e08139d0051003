package auramatch

import (
	"github.com/aurastream/auramatch/pkg/auramatch/audio"
	"github.com/aurastream/auramatch/pkg/auramatch/peaks"
	"github.com/aurastream/auramatch/pkg/auramatch/similarity"
	"github.com/aurastream/auramatch/pkg/auramatch/storage"
)

// DefaultResultLimit caps the matches returned by FindSimilar.
const DefaultResultLimit = 10

// DefaultTempDir holds intermediate WAV files during ingestion.
const DefaultTempDir = "/tmp/auramatch"

type Config struct {
	DBPath      string
	TempDir     string
	SampleRate  int
	PeakPoints  int
	StepSize    int
	ResultLimit int
	Logger      Logger
	Storage     Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithPeakPoints sets the length of the peak series extracted from audio.
func WithPeakPoints(points int) Option {
	return func(c *Config) {
		c.PeakPoints = points
	}
}

func WithStepSize(step int) Option {
	return func(c *Config) {
		c.StepSize = step
	}
}

func WithResultLimit(limit int) Option {
	return func(c *Config) {
		c.ResultLimit = limit
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:      storage.DefaultDBFile,
		TempDir:     DefaultTempDir,
		SampleRate:  audio.DefaultSampleRate,
		PeakPoints:  peaks.DefaultPoints,
		StepSize:    similarity.DefaultStepSize,
		ResultLimit: DefaultResultLimit,
		Logger:      nil,
	}
}

// normalize replaces non-positive numeric settings with their defaults.
func (c *Config) normalize() {
	def := defaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.PeakPoints <= 0 {
		c.PeakPoints = def.PeakPoints
	}
	if c.StepSize <= 0 {
		c.StepSize = def.StepSize
	}
	if c.ResultLimit <= 0 {
		c.ResultLimit = def.ResultLimit
	}
	if c.TempDir == "" {
		c.TempDir = def.TempDir
	}
}
