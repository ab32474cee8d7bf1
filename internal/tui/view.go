package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

func renderView(snap Snapshot, showErrors bool) string {
	var b strings.Builder

	// Header
	sectionCount := 0
	openCount := 0
	for _, c := range snap.Courses {
		sectionCount += len(c.Sections)
		for _, s := range c.Sections {
			if s.Status() == "open" {
				openCount++
			}
		}
	}
	header := fmt.Sprintf("seat-monitor │ %s │ %d courses │ %d sections │ %d open",
		snap.State, len(snap.Courses), sectionCount, openCount)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("🎓 Watched Sections"))
	b.WriteString("\n")
	b.WriteString(renderTree(snap.Courses, showErrors))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("📊 Counters"))
	b.WriteString("\n")
	counters := fmt.Sprintf("  passes %d │ alerts %d │ fetch errors %d │ notify errors %d",
		snap.Passes, snap.Alerts, snap.FetchErrors, snap.NotifyErrors)
	b.WriteString(counterStyle.Render(counters))
	b.WriteString("\n")

	// Footer
	b.WriteString("\n")
	footer := fmt.Sprintf("Last poll: %s │ Next poll: %s │ q:quit r:refresh e:errors",
		formatClock(snap.LastPass), formatClock(snap.NextPoll))
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

func renderTree(courses []CourseState, showErrors bool) string {
	if len(courses) == 0 {
		return emptyStyle.Render("  (no courses configured)")
	}

	var b strings.Builder
	for i, course := range courses {
		isLast := i == len(courses)-1
		prefix := "├─"
		childPrefix := "│  "
		if isLast {
			prefix = "└─"
			childPrefix = "   "
		}

		courseLine := fmt.Sprintf("%s 📘 %s [term %s │ %d sections]",
			prefix, course.Key, course.Term, len(course.Sections))
		b.WriteString(treeCourseStyle.Render(courseLine))
		b.WriteString("\n")

		if showErrors && course.LastError != "" {
			msg := course.LastError
			if runewidth.StringWidth(msg) > 70 {
				msg = runewidth.Truncate(msg, 67, "...")
			}
			b.WriteString(errorStyle.Render(childPrefix + "  ⚠️ " + msg))
			b.WriteString("\n")
		}

		for j, s := range course.Sections {
			secPrefix := "├─"
			if j == len(course.Sections)-1 {
				secPrefix = "└─"
			}

			status := s.Status()
			line := fmt.Sprintf("%s%s %s #%s %s", childPrefix, secPrefix, statusIcon(status), s.ID, seatsLabel(s))
			if s.Title != "" {
				title := s.Title
				if runewidth.StringWidth(title) > 50 {
					title = runewidth.Truncate(title, 47, "...")
				}
				line += " " + title
			}
			b.WriteString(lipgloss.NewStyle().Foreground(statusColor(status)).Render(line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func seatsLabel(s SectionState) string {
	if !s.Observed {
		return "-/-"
	}
	return fmt.Sprintf("%d/%d", s.Enrolled, s.Capacity)
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("15:04:05")
}
