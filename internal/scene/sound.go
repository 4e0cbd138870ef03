package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zeusync/pong3d/internal/core/observability/log"
)

// Sound is one loaded sound effect.
type Sound interface {
	Name() string
	Play() error
	Close() error
}

type SoundSpec struct {
	Name   string  `json:"name" yaml:"name"`
	URL    string  `json:"url" yaml:"url"`
	Volume float64 `json:"volume" yaml:"volume"`
}

// SoundLoader is the audio backend. Load failures are not fatal.
type SoundLoader interface {
	Load(spec SoundSpec) (Sound, error)
}

var DefaultHitSounds = []SoundSpec{
	{Name: "hit1", URL: "/sounds/pong-1.mp3", Volume: 0.5},
}

// SoundBank holds the collision sounds. A sound that fails to load or play
// is dropped; an empty bank is silent.
type SoundBank struct {
	mu     sync.Mutex
	sounds []Sound
	logger log.Log
}

func LoadSoundBank(loader SoundLoader, specs []SoundSpec, logger log.Log) *SoundBank {
	bank := &SoundBank{logger: logger}
	if loader == nil {
		return bank
	}
	for _, spec := range specs {
		s, err := loader.Load(spec)
		if err != nil {
			logger.Warn("Sound unavailable, continuing without it",
				log.String("sound", spec.Name),
				log.String("url", spec.URL),
				log.Error(err))
			continue
		}
		bank.sounds = append(bank.sounds, s)
	}
	return bank
}

func (b *SoundBank) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sounds)
}

// Play plays the sound at index. A failing sound is removed from the bank.
func (b *SoundBank) Play(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.sounds) {
		return fmt.Errorf("sound index %d out of range [0,%d)", index, len(b.sounds))
	}
	s := b.sounds[index]
	if err := s.Play(); err != nil {
		b.sounds = append(b.sounds[:index:index], b.sounds[index+1:]...)
		b.logger.Warn("Sound failed, muting it",
			log.String("sound", s.Name()),
			log.Error(err))
		return err
	}
	return nil
}

func (b *SoundBank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for _, s := range b.sounds {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	b.sounds = nil
	return errors.Join(errs...)
}

// Cue is a request for the host to play a sound.
type Cue struct {
	Sound  string  `json:"sound"`
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
}

// CueQueue collects cues for a remote renderer. When full the oldest cue
// is discarded.
type CueQueue struct {
	mu   sync.Mutex
	cues []Cue
	max  int
}

func NewCueQueue(max int) *CueQueue {
	if max <= 0 {
		max = 32
	}
	return &CueQueue{max: max}
}

func (q *CueQueue) push(c Cue) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cues) == q.max {
		q.cues = q.cues[1:]
	}
	q.cues = append(q.cues, c)
}

// Drain returns and clears the pending cues.
func (q *CueQueue) Drain() []Cue {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.cues
	q.cues = nil
	return out
}

// Load makes CueQueue a SoundLoader whose sounds enqueue cues.
func (q *CueQueue) Load(spec SoundSpec) (Sound, error) {
	if spec.URL == "" {
		return nil, fmt.Errorf("sound %q has no url", spec.Name)
	}
	return &cueSound{spec: spec, queue: q}, nil
}

type cueSound struct {
	mu     sync.Mutex
	spec   SoundSpec
	queue  *CueQueue
	closed bool
}

func (s *cueSound) Name() string { return s.spec.Name }

func (s *cueSound) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSoundClosed
	}
	s.queue.push(Cue{Sound: s.spec.Name, URL: s.spec.URL, Volume: s.spec.Volume})
	return nil
}

func (s *cueSound) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
