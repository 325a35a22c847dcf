package prompt

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

var (
	labelStyle   = lipgloss.NewStyle().Bold(true)
	toolbarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is a single free-text question with tab completion. Enter submits;
// rejected answers clear the input and switch the toolbar to invalidKey.
type Model struct {
	label      string
	input      textinput.Model
	accept     func(string) bool
	toolbarKey string
	invalidKey string

	value   string
	done    bool
	aborted bool
}

// NewModel builds a question. accept decides whether an answer is final.
func NewModel(label string, suggestions []string, invalidKey string, accept func(string) bool) Model {
	ti := textinput.New()
	ti.Prompt = label
	ti.PromptStyle = labelStyle
	ti.ShowSuggestions = len(suggestions) > 0
	ti.SetSuggestions(suggestions)
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()
	return Model{
		label:      label,
		input:      ti,
		accept:     accept,
		toolbarKey: "default",
		invalidKey: invalidKey,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			answer := strings.TrimSpace(m.input.Value())
			if m.accept(answer) {
				m.value = answer
				m.done = true
				return m, tea.Quit
			}
			m.toolbarKey = m.invalidKey
			m.input.Reset()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.done {
		return m.label + m.value + "\n"
	}
	toolbar := toolbarTexts[m.toolbarKey]
	style := toolbarStyle
	if m.toolbarKey != "default" {
		style = invalidStyle
	}
	return m.input.View() + "\n" + style.Render(toolbar) + "\n"
}

// Value is the accepted answer.
func (m Model) Value() string { return m.value }

// Aborted reports whether the operator cancelled.
func (m Model) Aborted() bool { return m.aborted }

// Prompter asks the questions the upload command needs.
type Prompter interface {
	Subcommand() (string, error)
	Subject(subjects []string, allowAny bool) (string, error)
	Experiment(experiments []string) (string, error)
	Session(sessions []int, allowAny bool) (int, error)
}

// TeaPrompter runs each question as a bubbletea program.
type TeaPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TeaPrompter) ask(m Model) (string, error) {
	var opts []tea.ProgramOption
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return "", err
	}
	fm, ok := final.(Model)
	if !ok || fm.Aborted() || !fm.done {
		return "", ErrAborted
	}
	return fm.Value(), nil
}

// Subcommand asks which action to run and returns its key.
func (p TeaPrompter) Subcommand() (string, error) {
	m := NewModel("Action: ", Labels(Subcommands), "action", func(s string) bool {
		_, ok := MatchChoice(s, Subcommands)
		return ok
	})
	answer, err := p.ask(m)
	if err != nil {
		return "", err
	}
	key, _ := MatchChoice(answer, Subcommands)
	return key, nil
}

// Subject asks for a subject code.
func (p TeaPrompter) Subject(subjects []string, allowAny bool) (string, error) {
	return p.ask(NewModel("Subject: ", subjects, "subject", func(s string) bool {
		_, ok := ValidateSubject(s, subjects, allowAny)
		return ok
	}))
}

// Experiment asks for one of experiments.
func (p TeaPrompter) Experiment(experiments []string) (string, error) {
	return p.ask(NewModel("Experiment: ", experiments, "experiment", func(s string) bool {
		_, ok := ValidateExperiment(s, experiments)
		return ok
	}))
}

// Session asks for a session number.
func (p TeaPrompter) Session(sessions []int, allowAny bool) (int, error) {
	suggestions := make([]string, len(sessions))
	for i, s := range sessions {
		suggestions[i] = strconv.Itoa(s)
	}
	answer, err := p.ask(NewModel("Session: ", suggestions, "session", func(s string) bool {
		_, ok := ValidateSession(s, sessions, allowAny)
		return ok
	}))
	if err != nil {
		return -1, err
	}
	n, _ := ValidateSession(answer, sessions, allowAny)
	return n, nil
}
