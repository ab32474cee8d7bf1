package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/marcin-skalski/seat-monitor/internal/catalog"
	"github.com/marcin-skalski/seat-monitor/internal/config"
	"github.com/marcin-skalski/seat-monitor/internal/schedule"
	"github.com/marcin-skalski/seat-monitor/internal/tui"
)

var ErrEmptyWatchlist = errors.New("watchlist is empty")

type Catalog interface {
	Fetch(ctx context.Context, subject, catalogNumber, term string) ([]catalog.SectionSnapshot, error)
}

type Notifier interface {
	Send(ctx context.Context, text string) error
	Configured() bool
}

type Mode int

const (
	ModeContinuous Mode = iota
	ModeSingleRun
	ModeBounded
)

func (m Mode) String() string {
	switch m {
	case ModeSingleRun:
		return "single-run"
	case ModeBounded:
		return "bounded"
	default:
		return "continuous"
	}
}

type State int

const (
	StateStarting State = iota
	StatePolling
	StateSleeping
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StatePolling:
		return "polling"
	case StateSleeping:
		return "sleeping"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

type Options struct {
	Watchlist       []config.WatchTarget
	Schedule        schedule.Schedule
	PolitenessDelay time.Duration
	AlertMode       string
	SingleRun       bool
	Duration        time.Duration
}

func (o Options) Mode() Mode {
	switch {
	case o.SingleRun:
		return ModeSingleRun
	case o.Duration > 0:
		return ModeBounded
	default:
		return ModeContinuous
	}
}

// OptionsFromConfig copies the loop settings out of cfg; run-mode flags are
// supplied separately by the CLI.
func OptionsFromConfig(cfg *config.Config, singleRun bool, duration time.Duration) Options {
	return Options{
		Watchlist:       cfg.Watchlist,
		Schedule:        cfg.PollSchedule,
		PolitenessDelay: cfg.PolitenessDelay,
		AlertMode:       cfg.AlertMode,
		SingleRun:       singleRun,
		Duration:        duration,
	}
}

type courseStatus struct {
	sections map[string]catalog.SectionSnapshot
	lastErr  string
}

type Monitor struct {
	opts     Options
	catalog  Catalog
	notifier Notifier
	clock    Clock
	logger   *slog.Logger

	// last known availability per target section, transition mode only
	lastOpen map[string]bool

	mu           sync.Mutex
	state        State
	board        map[string]*courseStatus // key: courseKey(target)
	passes       int
	alerts       int
	fetchErrors  int
	notifyErrors int
	lastPass     time.Time
	nextPoll     time.Time
}

func New(opts Options, cat Catalog, n Notifier, clock Clock, logger *slog.Logger) *Monitor {
	if opts.Schedule == nil {
		opts.Schedule = schedule.Interval(120 * time.Second)
	}
	if opts.AlertMode == "" {
		opts.AlertMode = config.AlertEvery
	}
	board := make(map[string]*courseStatus, len(opts.Watchlist))
	for _, t := range opts.Watchlist {
		board[courseKey(t)] = &courseStatus{sections: make(map[string]catalog.SectionSnapshot)}
	}
	return &Monitor{
		opts:     opts,
		catalog:  cat,
		notifier: n,
		clock:    clock,
		logger:   logger,
		lastOpen: make(map[string]bool),
		board:    board,
	}
}

// Run polls until the run mode says stop or ctx is cancelled. Per-course
// failures are logged and never returned.
func (m *Monitor) Run(ctx context.Context) error {
	m.setState(StateStarting)
	defer m.setState(StateStopped)

	if len(m.opts.Watchlist) == 0 {
		return ErrEmptyWatchlist
	}

	mode := m.opts.Mode()
	start := m.clock.Now()
	m.logger.Info("monitor started",
		"mode", mode,
		"courses", len(m.opts.Watchlist),
		"alert_mode", m.opts.AlertMode,
		"politeness_delay", m.opts.PolitenessDelay)

	if !m.notifier.Configured() {
		m.logger.Error("telegram bot token not configured, alerts will not be delivered")
	}

	// Bounded and single runs are diagnostic; only a long-running monitor
	// announces itself.
	if mode == ModeContinuous {
		m.alert(ctx, startupMessage(m.opts.Watchlist), "course", "all")
	}

	for {
		m.setState(StatePolling)
		if err := m.pass(ctx); err != nil {
			m.setState(StateStopping)
			m.logger.Info("shutting down", "reason", err)
			return nil
		}

		if mode == ModeSingleRun {
			m.setState(StateStopping)
			m.logger.Info("single run completed, exiting")
			return nil
		}

		now := m.clock.Now()
		if mode == ModeBounded && now.Sub(start) >= m.opts.Duration {
			m.setState(StateStopping)
			m.logger.Info("duration completed, exiting", "duration", m.opts.Duration)
			return nil
		}

		delay, err := schedule.Delay(m.opts.Schedule, now)
		if err != nil {
			m.setState(StateStopping)
			m.logger.Error("no next poll, stopping", "err", err)
			return fmt.Errorf("next poll: %w", err)
		}
		m.mu.Lock()
		m.state = StateSleeping
		m.nextPoll = now.Add(delay)
		m.mu.Unlock()

		m.logger.Info("sleeping", "for", delay)
		if err := m.clock.Sleep(ctx, delay); err != nil {
			m.setState(StateStopping)
			m.logger.Info("shutting down", "reason", err)
			return nil
		}
	}
}

// pass checks every target once, in watchlist order. It only fails when ctx
// is done.
func (m *Monitor) pass(ctx context.Context) error {
	for i, target := range m.opts.Watchlist {
		if i > 0 && m.opts.PolitenessDelay > 0 {
			if err := m.clock.Sleep(ctx, m.opts.PolitenessDelay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.checkTarget(ctx, target); err != nil {
			m.logger.Error("check course failed", "course", target.Key(), "term", target.Term, "err", err)
		}
	}

	m.mu.Lock()
	m.passes++
	m.lastPass = m.clock.Now()
	m.mu.Unlock()
	return nil
}

func (m *Monitor) checkTarget(ctx context.Context, target config.WatchTarget) error {
	key := target.Key()
	bk := courseKey(target)
	m.logger.Info("checking course", "course", key, "term", target.Term)

	sections, err := m.catalog.Fetch(ctx, target.Subject, target.CatalogNumber, target.Term)
	if err != nil {
		m.mu.Lock()
		m.fetchErrors++
		m.board[bk].lastErr = err.Error()
		m.mu.Unlock()
		return fmt.Errorf("fetch sections: %w", err)
	}

	m.mu.Lock()
	m.board[bk].lastErr = ""
	m.mu.Unlock()

	for _, s := range sections {
		if !target.Watches(s.SectionID) {
			m.logger.Info("skipping section not in watchlist", "course", key, "section", s.SectionID, "title", s.Title)
			continue
		}

		m.logger.Info("section seats",
			"course", key,
			"section", s.SectionID,
			"title", s.Title,
			"enrolled", s.Enrolled,
			"capacity", s.Capacity)
		m.record(bk, s)

		if !m.shouldAlert(target, s) {
			continue
		}
		if m.alert(ctx, alertMessage(target, s), "course", key, "section", s.SectionID) {
			m.logger.Info("seat available, notification sent", "course", key, "section", s.SectionID)
		} else if m.opts.AlertMode == config.AlertTransition {
			// undelivered edge: fire again next poll
			m.lastOpen[sectionKey(target, s.SectionID)] = false
		}
	}
	return nil
}

func (m *Monitor) shouldAlert(target config.WatchTarget, s catalog.SectionSnapshot) bool {
	open := s.Available()
	if m.opts.AlertMode != config.AlertTransition {
		return open
	}
	k := sectionKey(target, s.SectionID)
	wasOpen := m.lastOpen[k]
	m.lastOpen[k] = open
	return open && !wasOpen
}

// alert sends text and swallows any failure after logging it.
func (m *Monitor) alert(ctx context.Context, text string, attrs ...any) bool {
	if err := m.notifier.Send(ctx, text); err != nil {
		m.mu.Lock()
		m.notifyErrors++
		m.mu.Unlock()
		m.logger.Error("alert delivery failed", append(attrs, "err", err)...)
		return false
	}
	m.mu.Lock()
	m.alerts++
	m.mu.Unlock()
	return true
}

func (m *Monitor) record(boardKey string, s catalog.SectionSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board[boardKey].sections[s.SectionID] = s
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func courseKey(t config.WatchTarget) string {
	return t.Term + "/" + t.Key()
}

func sectionKey(t config.WatchTarget, sectionID string) string {
	return courseKey(t) + "#" + sectionID
}

func alertMessage(t config.WatchTarget, s catalog.SectionSnapshot) string {
	return fmt.Sprintf("🚨 SEAT AVAILABLE! 🚨\n\nCourse: %s\nTitle: %s\nClass #: %s\nSeats: %d/%d\n\nRegister now!",
		t.Key(), s.Title, s.SectionID, s.Enrolled, s.Capacity)
}

// startupMessage lists the watched courses, naming each subject once per run
// of consecutive courses: "CSE 572, 573, MAT 243".
func startupMessage(targets []config.WatchTarget) string {
	parts := make([]string, 0, len(targets))
	prev := ""
	for _, t := range targets {
		if t.Subject == prev {
			parts = append(parts, t.CatalogNumber)
		} else {
			parts = append(parts, t.Key())
		}
		prev = t.Subject
	}
	return fmt.Sprintf("🚀 ASU Course Monitor Started! Checking %s...", strings.Join(parts, ", "))
}

func (m *Monitor) GetSnapshot() tui.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	courses := make([]tui.CourseState, 0, len(m.opts.Watchlist))
	for _, t := range m.opts.Watchlist {
		status := m.board[courseKey(t)]
		sections := make([]tui.SectionState, 0, len(t.Sections))
		for _, id := range t.Sections {
			st := tui.SectionState{ID: id}
			if s, ok := status.sections[id]; ok {
				st.Title = s.Title
				st.Enrolled = s.Enrolled
				st.Capacity = s.Capacity
				st.ObservedAt = s.ObservedAt
				st.Observed = true
			}
			sections = append(sections, st)
		}
		courses = append(courses, tui.CourseState{
			Key:       t.Key(),
			Term:      t.Term,
			Sections:  sections,
			LastError: status.lastErr,
		})
	}

	return tui.Snapshot{
		Timestamp:    m.clock.Now(),
		State:        m.state.String(),
		Mode:         m.opts.Mode().String(),
		Courses:      courses,
		Passes:       m.passes,
		Alerts:       m.alerts,
		FetchErrors:  m.fetchErrors,
		NotifyErrors: m.notifyErrors,
		LastPass:     m.lastPass,
		NextPoll:     m.nextPoll,
	}
}
