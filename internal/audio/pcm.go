package audio

import (
	"fmt"
	"time"

	"github.com/unixpickle/wav"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
)

// PCM is decoded mono audio.
type PCM struct {
	Samples    []float64
	SampleRate int
}

// Duration of the audio
func (p *PCM) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(p.Samples)) / float64(p.SampleRate) * float64(time.Second))
}

// LoadPCM reads a WAV file, mixing multiple channels down to mono.
func LoadPCM(path string) (*PCM, error) {
	s, err := wav.ReadSoundFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}

	channels := s.Channels()
	if channels < 1 {
		return nil, fmt.Errorf("%w: no channels in %s", apperrors.ErrCorruptedFile, path)
	}

	raw := s.Samples()
	mono := make([]float64, len(raw)/channels)
	for i := range mono {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(raw[i*channels+c])
		}
		mono[i] = sum / float64(channels)
	}

	if len(mono) == 0 {
		return nil, fmt.Errorf("%w: %s has no samples", apperrors.ErrCorruptedFile, path)
	}

	return &PCM{Samples: mono, SampleRate: s.SampleRate()}, nil
}
