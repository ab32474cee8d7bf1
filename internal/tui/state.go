package tui

import "time"

type Snapshot struct {
	Timestamp    time.Time
	State        string // starting|polling|sleeping|stopping|stopped
	Mode         string
	Courses      []CourseState
	Passes       int
	Alerts       int
	FetchErrors  int
	NotifyErrors int
	LastPass     time.Time
	NextPoll     time.Time
}

type CourseState struct {
	Key       string // "CSE 572"
	Term      string
	Sections  []SectionState
	LastError string
}

type SectionState struct {
	ID         string
	Title      string
	Enrolled   int
	Capacity   int
	Observed   bool
	ObservedAt time.Time
}

// Status is open|full|unknown.
func (s SectionState) Status() string {
	switch {
	case !s.Observed:
		return "unknown"
	case s.Enrolled < s.Capacity:
		return "open"
	default:
		return "full"
	}
}
