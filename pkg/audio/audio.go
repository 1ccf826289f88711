// Package audio plays short clicks for collisions.
package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/event"
)

// MaxVoices caps the number of clicks mixed at once. Gas scenarios produce
// far more collisions than can be heard.
const MaxVoices = 16

const (
	pairFrequency = 880.0
	wallFrequency = 220.0
	clickDuration = 40 * time.Millisecond
)

// Sounds turns collision events into clicks on a shared mixer.
type Sounds struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	mixer       *beep.Mixer
	volume      float64
	initialized bool

	lock   func()
	unlock func()
}

// NewSounds creates a player with the given sample rate and volume in
// [0, 1]. Nothing is audible until Initialize.
func NewSounds(sampleRate int, volume float64) (*Sounds, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if volume < 0 || volume > 1 {
		return nil, fmt.Errorf("invalid volume: %v", volume)
	}
	return &Sounds{
		rate:   beep.SampleRate(sampleRate),
		mixer:  &beep.Mixer{},
		volume: volume,
		lock:   func() {},
		unlock: func() {},
	}, nil
}

// FromConfig creates a player from the audio configuration.
func FromConfig(cfg config.AudioConfig) (*Sounds, error) {
	return NewSounds(cfg.SampleRate, cfg.Volume)
}

// Initialize opens the speaker and starts playing the mixer.
func (s *Sounds) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := speaker.Init(s.rate, s.rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to open speaker: %w", err)
	}
	s.lock = speaker.Lock
	s.unlock = speaker.Unlock
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// Close stops playback and releases the speaker.
func (s *Sounds) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.lock = func() {}
	s.unlock = func() {}
	s.initialized = false
}

// Attach subscribes the player to collision events and returns a function
// that removes the subscriptions.
func (s *Sounds) Attach(bus *event.Bus) func() {
	return bus.SubscribeAll(s.Notify, event.PairCollision, event.WallCollision)
}

// Notify queues a click for collision events and ignores the rest.
func (s *Sounds) Notify(e event.Event) {
	switch ev := e.(type) {
	case *event.PairCollisionEvent:
		// louder for harder hits
		s.play(pairFrequency, math.Min(1, 0.3+math.Abs(ev.Impulse)/10))
	case *event.WallCollisionEvent:
		s.play(wallFrequency, math.Min(1, 0.3+ev.Speed/10))
	}
}

// Voices returns the number of clicks still playing.
func (s *Sounds) Voices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lock()
	defer s.unlock()
	return s.mixer.Len()
}

// Mixer exposes the mixer so callers can stream it without a speaker.
func (s *Sounds) Mixer() beep.Streamer {
	return s.mixer
}

func (s *Sounds) play(freq, strength float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume == 0 {
		return
	}

	s.lock()
	defer s.unlock()

	if s.mixer.Len() >= MaxVoices {
		return
	}
	click := beep.Take(s.rate.N(clickDuration), newClick(s.rate, freq))
	s.mixer.Add(&effects.Gain{Streamer: click, Gain: s.volume*strength - 1})
}

// click is a sine tone with an exponential decay.
type click struct {
	rate beep.SampleRate
	freq float64
	pos  int
}

func newClick(rate beep.SampleRate, freq float64) *click {
	return &click{rate: rate, freq: freq}
}

func (c *click) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(c.pos) / float64(c.rate)
		v := math.Exp(-t*60) * math.Sin(2*math.Pi*c.freq*t)
		samples[i][0] = v
		samples[i][1] = v
		c.pos++
	}
	return len(samples), true
}

func (c *click) Err() error {
	return nil
}
