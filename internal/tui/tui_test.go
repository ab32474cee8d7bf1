package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls int
	snap  Snapshot
}

func (p *stubProvider) GetSnapshot() Snapshot {
	p.calls++
	return p.snap
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		Timestamp: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		State:     "sleeping",
		Mode:      "continuous",
		Courses: []CourseState{
			{
				Key:  "CSE 572",
				Term: "2261",
				Sections: []SectionState{
					{ID: "22907", Title: "Data Mining", Enrolled: 29, Capacity: 30, Observed: true},
				},
			},
			{
				Key:       "CSE 573",
				Term:      "2261",
				Sections:  []SectionState{{ID: "37582"}},
				LastError: "fetch CSE 573 (term 2261): unexpected status 503",
			},
		},
		Passes:   3,
		Alerts:   1,
		LastPass: time.Date(2026, 1, 5, 9, 58, 0, 0, time.UTC),
		NextPoll: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestSectionStatus(t *testing.T) {
	assert.Equal(t, "unknown", SectionState{}.Status())
	assert.Equal(t, "open", SectionState{Observed: true, Enrolled: 29, Capacity: 30}.Status())
	assert.Equal(t, "full", SectionState{Observed: true, Enrolled: 30, Capacity: 30}.Status())
	assert.Equal(t, "full", SectionState{Observed: true, Enrolled: 31, Capacity: 30}.Status())
}

func TestRenderView(t *testing.T) {
	out := renderView(sampleSnapshot(), true)

	assert.Contains(t, out, "2 courses")
	assert.Contains(t, out, "1 open")
	assert.Contains(t, out, "CSE 572")
	assert.Contains(t, out, "#22907 29/30")
	assert.Contains(t, out, "#37582 -/-")
	assert.Contains(t, out, "unexpected status 503")
	assert.Contains(t, out, "passes 3")
	assert.Contains(t, out, "Next poll: 10:00:00")

	assert.NotContains(t, renderView(sampleSnapshot(), false), "unexpected status 503")
}

func TestRenderViewEmpty(t *testing.T) {
	out := renderView(Snapshot{State: "starting"}, true)
	assert.Contains(t, out, "(no courses configured)")
	assert.Contains(t, out, "Last poll: -")
}

func TestModelRefreshesOnTick(t *testing.T) {
	p := &stubProvider{snap: Snapshot{State: "starting"}}
	m := NewModel(p, time.Second)
	require.Equal(t, 1, p.calls)

	p.snap = sampleSnapshot()
	next, cmd := m.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, "sleeping", next.(Model).snapshot.State)
}

func TestModelKeys(t *testing.T) {
	p := &stubProvider{snap: sampleSnapshot()}
	m := NewModel(p, time.Second)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
	assert.Equal(t, 2, p.calls)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.False(t, next.(Model).showErrors)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
