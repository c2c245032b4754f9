package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix for environment variables, e.g. MUSICIFY_FFMPEG_BIN.
const Prefix = "musicify"

// Settings holds tool locations and analysis parameters shared by all jobs.
type Settings struct {
	FFmpegBin    string `envconfig:"FFMPEG_BIN" default:"ffmpeg"`
	AubioBin     string `envconfig:"AUBIO_BIN" default:"aubio"`
	MuseScoreBin string `envconfig:"MUSESCORE_BIN"`

	SampleRate int     `envconfig:"SAMPLE_RATE" default:"22050"`
	HopLength  int     `envconfig:"HOP_LENGTH" default:"512"`
	WindowSize int     `envconfig:"WINDOW_SIZE" default:"2048"`
	MinFreq    float64 `envconfig:"MIN_FREQ" default:"50"`
	MaxFreq    float64 `envconfig:"MAX_FREQ" default:"2000"`
	Tracker    string  `envconfig:"TRACKER" default:"aubio"`
	Velocity   int     `envconfig:"VELOCITY" default:"100"`

	DecodeTimeout time.Duration `envconfig:"DECODE_TIMEOUT" default:"2m"`
	TrackTimeout  time.Duration `envconfig:"TRACK_TIMEOUT" default:"5m"`
	RenderTimeout time.Duration `envconfig:"RENDER_TIMEOUT" default:"2m"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	MaxFileSize int64  `envconfig:"MAX_FILE_SIZE" default:"104857600"`
}

// Load reads Settings from the environment and validates them.
func Load() (Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// HopDuration is the time between analysis frames in seconds.
func (s Settings) HopDuration() float64 {
	return float64(s.HopLength) / float64(s.SampleRate)
}

// Validate checks that the analysis parameters are usable.
func (s Settings) Validate() error {
	switch {
	case s.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", s.SampleRate)
	case s.HopLength <= 0:
		return fmt.Errorf("hop length must be positive, got %d", s.HopLength)
	case s.WindowSize < s.HopLength:
		return fmt.Errorf("window size %d is smaller than hop length %d", s.WindowSize, s.HopLength)
	case s.MinFreq <= 0 || s.MaxFreq <= s.MinFreq:
		return fmt.Errorf("invalid frequency range %.1f-%.1f Hz", s.MinFreq, s.MaxFreq)
	case s.Velocity < 1 || s.Velocity > 127:
		return fmt.Errorf("velocity must be within 1-127, got %d", s.Velocity)
	case s.Tracker != "aubio" && s.Tracker != "fft":
		return fmt.Errorf("unknown tracker %q (must be aubio or fft)", s.Tracker)
	}
	return nil
}
