package tui

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/wricardo/gridpath/game/search"
)

const (
	toneSampleRate = beep.SampleRate(44100)
	toneDuration   = 80 * time.Millisecond
)

// Tone plays a short cue when a run ends. A nil or uninitialized Tone is
// silent.
type Tone struct {
	enabled bool
}

// NewTone initializes the speaker. On error the returned Tone is silent and
// still safe to use.
func NewTone() (*Tone, error) {
	if err := speaker.Init(toneSampleRate, toneSampleRate.N(time.Second/10)); err != nil {
		return &Tone{}, err
	}
	return &Tone{enabled: true}, nil
}

// Play sounds the cue for the outcome of a run
func (t *Tone) Play(outcome search.Outcome) {
	if t == nil || !t.enabled {
		return
	}
	freq := toneFrequency(outcome)
	if freq == 0 {
		return
	}

	sine, err := generators.SineTone(toneSampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(toneSampleRate.N(toneDuration), sine))
}

// toneFrequency is high for a found path and low for no path. Cancelled
// runs are silent.
func toneFrequency(outcome search.Outcome) float64 {
	switch outcome {
	case search.OutcomeFound:
		return 880
	case search.OutcomeNoPath:
		return 220
	}
	return 0
}
