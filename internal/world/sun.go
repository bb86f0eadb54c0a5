package world

import "time"

// Sun tracks the day/night cycle as a [0,1) phase.
type Sun struct {
	phase     float64
	dayLength time.Duration
}

func NewSun(dayLength time.Duration) *Sun {
	if dayLength <= 0 {
		dayLength = 20 * time.Minute
	}
	return &Sun{dayLength: dayLength}
}

func (s *Sun) Advance(dt time.Duration) {
	s.phase += dt.Seconds() / s.dayLength.Seconds()
	for s.phase >= 1 {
		s.phase -= 1
	}
}

func (s *Sun) Phase() float32 {
	return float32(s.phase)
}

// SetPhase restores a persisted phase at boot.
func (s *Sun) SetPhase(p float64) {
	if p >= 0 && p < 1 {
		s.phase = p
	}
}
