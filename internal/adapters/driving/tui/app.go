// Package tui provides an interactive terminal view over the retrieval
// pipeline: type a query, see the augmented prompt the engine would hand
// to a language model.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driving"
)

// Colour palette.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6C7086")
	colorBorder  = lipgloss.Color("#45475A")
)

// Styles used by the app.
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

// retrievalDone carries the assembled prompt back into the update loop.
type retrievalDone struct {
	prompt string
}

// App is the bubbletea model for the query view.
type App struct {
	engine driving.Engine
	ctx    context.Context

	input     textinput.Model
	prompt    string
	searching bool
	width     int
	height    int
}

// NewApp creates the query view backed by the engine.
func NewApp(engine driving.Engine) *App {
	ti := textinput.New()
	ti.Placeholder = "Ask something about your documents..."
	ti.Focus()
	ti.CharLimit = 512

	return &App{
		engine: engine,
		ctx:    context.Background(),
		input:  ti,
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used for retrieval calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init starts the cursor blink.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			query := strings.TrimSpace(a.input.Value())
			if query == "" || a.searching {
				return a, nil
			}
			a.searching = true
			return a, a.retrieve(query)
		default:
		}

	case retrievalDone:
		a.searching = false
		a.prompt = msg.prompt
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View renders the query view.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pocketrag"))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	switch {
	case a.searching:
		b.WriteString(statusStyle.Render("Retrieving context..."))
	case a.prompt != "":
		width := a.width - 4
		if width < 20 {
			width = 20
		}
		b.WriteString(promptStyle.Width(width).Render(a.prompt))
	default:
		stats := a.engine.Stats(a.ctx)
		b.WriteString(statusStyle.Render(
			statusLine(stats)))
	}

	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render("enter: retrieve • esc: quit"))

	return b.String()
}

// retrieve runs context retrieval off the update loop.
func (a *App) retrieve(query string) tea.Cmd {
	return func() tea.Msg {
		return retrievalDone{prompt: a.engine.RetrieveContext(a.ctx, query, domain.RetrieveOptions{})}
	}
}

// statusLine summarizes the index for the idle screen.
func statusLine(stats domain.IndexStats) string {
	var b strings.Builder
	b.WriteString("Index: ")
	if stats.TotalVectors == 0 {
		b.WriteString("empty")
	} else {
		fmt.Fprintf(&b, "%d vectors", stats.TotalVectors)
	}
	if !stats.IsReady {
		b.WriteString(" (no embedder, queries pass through)")
	}
	return b.String()
}
