package shortener

import "time"

// SetClock replaces the service clock in tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// NewULIDGeneratorWithClock exposes the clock-injectable constructor to tests.
func NewULIDGeneratorWithClock(now func() time.Time) *ULIDGenerator {
	return newULIDGenerator(now)
}
