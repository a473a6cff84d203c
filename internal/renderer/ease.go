package renderer

// scroll eases the vertical offset of the text block from one active line to
// the next over a fixed number of frames.
type scroll struct {
	from, to float64
	step     int
	steps    int
	started  bool
}

// target retargets the scroll to y, starting from wherever it currently is.
func (s *scroll) target(y float64) {
	if !s.started {
		s.from, s.to, s.step, s.started = y, y, s.steps, true
		return
	}
	if y == s.to {
		return
	}
	s.from = s.current()
	s.to = y
	s.step = 0
}

// advance returns the offset for this frame and moves one step forward.
func (s *scroll) advance() float64 {
	y := s.current()
	if s.step < s.steps {
		s.step++
	}
	return y
}

func (s *scroll) current() float64 {
	if s.steps <= 0 || s.step >= s.steps {
		return s.to
	}
	return lerp(s.from, s.to, easeInOutCubic(float64(s.step)/float64(s.steps)))
}

func (s *scroll) moving() bool {
	return s.started && s.step < s.steps
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
