package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gmsas95/medremind/internal/app"
	"github.com/gmsas95/medremind/internal/engine"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func tuiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive reminder cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("tui needs an interactive terminal")
			}
			return withApp(cmd, flags, func(a *app.App) error {
				m := newReminderModel(a.Engine)
				defer m.close()
				_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
				return err
			})
		},
	}
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Take    key.Binding
	Snooze  key.Binding
	Miss    key.Binding
	All     key.Binding
	Dismiss key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Take:    key.NewBinding(key.WithKeys("t", "enter"), key.WithHelp("t", "taken")),
	Snooze:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "snooze")),
	Miss:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "missed")),
	All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "show all")),
	Dismiss: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss alert")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// reasonKeys maps the digit shown next to each reason in the miss prompt
var reasonKeys = []medication.MissReason{
	medication.ReasonForgot,
	medication.ReasonAsleep,
	medication.ReasonOutside,
	medication.ReasonLater,
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(56)
	focusedStyle = cardStyle.BorderForeground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)

type eventMsg engine.Event

type reminderModel struct {
	eng         *engine.Engine
	events      <-chan engine.Event
	unsubscribe func()

	entries  []medication.LogEntry
	alert    medication.CaregiverAlert
	cursor   int
	showAll  bool
	choosing bool
	status   string
}

func newReminderModel(eng *engine.Engine) *reminderModel {
	events, unsubscribe := eng.Events().Subscribe(16)
	m := &reminderModel{eng: eng, events: events, unsubscribe: unsubscribe}
	m.reload()
	return m
}

func (m *reminderModel) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *reminderModel) reload() {
	if m.showAll {
		m.entries = m.eng.ListToday()
	} else {
		m.entries = m.eng.ListPendingToday()
	}
	m.alert = m.eng.CaregiverAlert()
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
}

func waitForEvent(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m *reminderModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *reminderModel) selected() (medication.LogEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return medication.LogEntry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *reminderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.reload()
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		if m.choosing {
			return m.chooseReason(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.All):
			m.showAll = !m.showAll
			m.reload()
		case key.Matches(msg, keys.Dismiss):
			m.eng.DismissCaregiverAlert()
			m.reload()
		case key.Matches(msg, keys.Take):
			if e, ok := m.selected(); ok {
				m.apply(m.eng.Take(e.ID))
			}
		case key.Matches(msg, keys.Snooze):
			if e, ok := m.selected(); ok {
				m.apply(m.eng.Snooze(e.ID))
			}
		case key.Matches(msg, keys.Miss):
			if _, ok := m.selected(); ok {
				m.choosing = true
				m.status = ""
			}
		}
	}
	return m, nil
}

func (m *reminderModel) chooseReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Cancel) {
		m.choosing = false
		return m, nil
	}
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || int(s[0]-'1') >= len(reasonKeys) {
		return m, nil
	}
	m.choosing = false
	if e, ok := m.selected(); ok {
		m.apply(m.eng.Miss(e.ID, reasonKeys[s[0]-'1']))
	}
	return m, nil
}

func (m *reminderModel) apply(e medication.LogEntry, err error) {
	if err != nil {
		m.status = "Error: " + err.Error()
	} else {
		m.status = fmt.Sprintf("%s %s: %s", statusIcon(e.Status), e.MedicineName, e.Status)
	}
	m.reload()
}

func (m *reminderModel) View() string {
	var b strings.Builder

	title := "Today's reminders"
	if m.showAll {
		title = "All of today's doses"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	if m.alert.Visible {
		b.WriteString(alertStyle.Render("⚠️  Caregiver alert: "+m.alert.MedicineName+" has been missed repeatedly") + "\n\n")
	}

	if len(m.entries) == 0 {
		b.WriteString(mutedStyle.Render("All done for today.") + "\n")
	}
	for i, e := range m.entries {
		style := cardStyle
		if i == m.cursor {
			style = focusedStyle
		}
		body := fmt.Sprintf("%s %s\n%s", statusIcon(e.Status), e.Message, mutedStyle.Render(string(e.Status)))
		if e.Status == medication.StatusSnoozed && e.SnoozeUntil != nil {
			body += mutedStyle.Render(" until " + e.SnoozeUntil.In(m.eng.Location()).Format("15:04"))
		}
		b.WriteString(style.Render(body) + "\n")
	}

	if m.choosing {
		b.WriteString("\nWhy was it missed?\n")
		for i, r := range reasonKeys {
			fmt.Fprintf(&b, "  %d) %s\n", i+1, r.Label())
		}
		b.WriteString(mutedStyle.Render("  esc to cancel") + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	help := []key.Binding{keys.Up, keys.Down, keys.Take, keys.Snooze, keys.Miss, keys.All, keys.Dismiss, keys.Quit}
	parts := make([]string, 0, len(help))
	for _, k := range help {
		parts = append(parts, k.Help().Key+" "+k.Help().Desc)
	}
	b.WriteString("\n" + mutedStyle.Render(strings.Join(parts, " • ")))
	return b.String()
}
