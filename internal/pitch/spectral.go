package pitch

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/yoswag75/Musicify/internal/audio"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
)

// SpectralConfig controls the in-process FFT tracker.
type SpectralConfig struct {
	WindowSize int     // FFT size in samples
	HopLength  int     // samples between frames
	MinFreq    float64 // lowest fundamental considered, Hz
	MaxFreq    float64 // highest fundamental considered, Hz
	MinRMS     float64 // frames quieter than this are unvoiced
	PeakRatio  float64 // peak magnitude over mean in-band magnitude needed to call a frame voiced
}

// DefaultSpectralConfig returns parameters suited to solo voice and melody instruments.
func DefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{
		WindowSize: 2048,
		HopLength:  512,
		MinFreq:    50,
		MaxFreq:    2000,
		MinRMS:     0.01,
		PeakRatio:  6,
	}
}

// SpectralSource estimates one fundamental per hop by picking the strongest
// Hann-windowed FFT bin in range, refined by parabolic interpolation.
// It needs no external tools and works on clean monophonic material.
type SpectralSource struct {
	cfg SpectralConfig
}

// NewSpectralSource creates the in-process tracker
func NewSpectralSource(cfg SpectralConfig) *SpectralSource {
	return &SpectralSource{cfg: cfg}
}

func (s *SpectralSource) Name() string { return "fft" }

// Track loads the WAV and analyzes it.
func (s *SpectralSource) Track(ctx context.Context, wavPath string) (Track, error) {
	pcm, err := audio.LoadPCM(wavPath)
	if err != nil {
		return Track{}, apperrors.NewProcessError("fft", apperrors.StageTrack, 0, "", err)
	}
	return s.Analyze(ctx, pcm.Samples, pcm.SampleRate)
}

// Analyze produces len(samples)/HopLength frames, so the track never extends past the audio.
func (s *SpectralSource) Analyze(ctx context.Context, samples []float64, sampleRate int) (Track, error) {
	n, hop := s.cfg.WindowSize, s.cfg.HopLength
	numFrames := len(samples) / hop
	hz := make([]float64, numFrames)

	frame := make([]float64, n)
	for i := 0; i < numFrames; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return Track{}, err
			}
		}

		start := i * hop
		for j := range frame {
			if start+j < len(samples) {
				frame[j] = samples[start+j]
			} else {
				frame[j] = 0
			}
		}
		hz[i] = s.estimate(frame, sampleRate)
	}

	return NewTrack(float64(hop)/float64(sampleRate), hz), nil
}

// estimate returns the fundamental of one frame, or 0 when unvoiced. frame is modified.
func (s *SpectralSource) estimate(frame []float64, sampleRate int) float64 {
	if rms(frame) < s.cfg.MinRMS {
		return 0
	}

	window.Apply(frame, window.Hann)
	spectrum := fft.FFTReal(frame)

	n := len(frame)
	binHz := float64(sampleRate) / float64(n)
	lo := int(math.Ceil(s.cfg.MinFreq / binHz))
	hi := int(math.Floor(s.cfg.MaxFreq / binHz))
	if lo < 1 {
		lo = 1
	}
	if hi > n/2-2 {
		hi = n/2 - 2
	}
	if lo >= hi {
		return 0
	}

	mags := make([]float64, n/2)
	for k := range mags {
		mags[k] = cmplx.Abs(spectrum[k])
	}

	peak, sum := lo, 0.0
	for k := lo; k <= hi; k++ {
		sum += mags[k]
		if mags[k] > mags[peak] {
			peak = k
		}
	}
	mean := sum / float64(hi-lo+1)
	if mean == 0 || mags[peak]/mean < s.cfg.PeakRatio {
		return 0
	}

	return (float64(peak) + parabolicOffset(mags[peak-1], mags[peak], mags[peak+1])) * binHz
}

// parabolicOffset fits a parabola through three log magnitudes and returns the
// vertex offset from the centre bin, in [-0.5, 0.5].
func parabolicOffset(left, centre, right float64) float64 {
	const floor = 1e-12
	a := math.Log(left + floor)
	b := math.Log(centre + floor)
	c := math.Log(right + floor)
	denom := a - 2*b + c
	if denom == 0 {
		return 0
	}
	off := 0.5 * (a - c) / denom
	return math.Max(-0.5, math.Min(0.5, off))
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}
