package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchChoice(t *testing.T) {
	key, ok := MatchChoice("Upload imaging data", Subcommands)
	require.True(t, ok)
	assert.Equal(t, "imaging", key)

	key, ok = MatchChoice(" host ", Subcommands)
	require.True(t, ok)
	assert.Equal(t, "host", key)

	_, ok = MatchChoice("Upload", Subcommands)
	assert.False(t, ok)
	assert.Len(t, Labels(Subcommands), 4)
}

func TestValidateSubject(t *testing.T) {
	subjects := []string{"R1111M", "R2222J"}
	_, ok := ValidateSubject("R1111M", subjects, false)
	assert.True(t, ok)
	_, ok = ValidateSubject("R0000X", subjects, false)
	assert.False(t, ok)
	got, ok := ValidateSubject(" R0000X ", subjects, true)
	assert.True(t, ok)
	assert.Equal(t, "R0000X", got)
	_, ok = ValidateSubject("", subjects, true)
	assert.False(t, ok)
}

func TestValidateExperiment(t *testing.T) {
	_, ok := ValidateExperiment("FR1", []string{"FR1", "catFR1"})
	assert.True(t, ok)
	_, ok = ValidateExperiment("FR5", []string{"FR1"})
	assert.False(t, ok)
}

func TestValidateSession(t *testing.T) {
	n, ok := ValidateSession("2", []int{0, 2}, false)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = ValidateSession("1", []int{0, 2}, false)
	assert.False(t, ok)
	n, ok = ValidateSession("7", nil, true)
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = ValidateSession("seven", nil, true)
	assert.False(t, ok)
	_, ok = ValidateSession("-1", nil, true)
	assert.False(t, ok)
}

func typeText(t *testing.T, m tea.Model, s string) tea.Model {
	t.Helper()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(m tea.Model, k tea.KeyType) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: k})
}

func TestModelRejectsThenAccepts(t *testing.T) {
	subjects := []string{"R1111M"}
	var m tea.Model = NewModel("Subject: ", subjects, "subject", func(s string) bool {
		_, ok := ValidateSubject(s, subjects, false)
		return ok
	})
	assert.Contains(t, m.View(), "Press tab to see options")

	m = typeText(t, m, "R9")
	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd, "invalid answer keeps the prompt open")
	assert.Contains(t, m.View(), "Invalid subject")
	assert.Empty(t, m.(Model).Value())

	m = typeText(t, m, "R1111M")
	m, cmd = press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "R1111M", m.(Model).Value())
	assert.False(t, m.(Model).Aborted())
}

func TestModelTabCompletes(t *testing.T) {
	var m tea.Model = NewModel("Experiment: ", []string{"catFR1"}, "experiment", func(s string) bool {
		return s == "catFR1"
	})
	m = typeText(t, m, "cat")
	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, "catFR1", m.(Model).Value())
}

func TestModelAbort(t *testing.T) {
	var m tea.Model = NewModel("Session: ", nil, "session", func(string) bool { return true })
	m, cmd := press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.True(t, m.(Model).Aborted())
}
