package playback

import (
	"time"
)

// SleepCheck is the outcome of SleepTimer.Check.
type SleepCheck int

const (
	Continue SleepCheck = iota
	Expired
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// SleepTimer holds an optional deadline after which playback pauses. It is
// owned by a single controller and isn't safe for concurrent use.
type SleepTimer struct {
	now      Clock
	deadline *time.Time
}

func NewSleepTimer(now Clock) *SleepTimer {
	if now == nil {
		now = time.Now
	}
	return &SleepTimer{now: now}
}

// Arm replaces any previous deadline with now+d. A non-positive d expires on
// the next check.
func (s *SleepTimer) Arm(d time.Duration) {
	deadline := s.now().Add(d)
	s.deadline = &deadline
}

func (s *SleepTimer) Cancel() {
	s.deadline = nil
}

// Check reports Expired once when now has reached the deadline, and clears it.
func (s *SleepTimer) Check(now time.Time) SleepCheck {
	if s.deadline == nil || now.Before(*s.deadline) {
		return Continue
	}
	s.deadline = nil
	return Expired
}

func (s *SleepTimer) Deadline() (time.Time, bool) {
	if s.deadline == nil {
		return time.Time{}, false
	}
	return *s.deadline, true
}
