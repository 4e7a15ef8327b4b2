// Package tui provides a Bubble Tea terminal user interface for songferry.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aquilora/songferry/internal/catalog"
	"github.com/aquilora/songferry/internal/config"
	"github.com/aquilora/songferry/internal/download"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	songStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateResolving
	StateDelivering
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Deps bundles the wired-up application pieces the TUI drives.
type Deps struct {
	Settings *config.Settings
	Catalog  *catalog.Client
	Manager  *download.Manager

	// Events receives the manager's progress callbacks.
	Events <-chan download.ProgressEvent
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	deps      Deps
	logs      []LogEntry
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	// Resolved song shown while delivering
	songID  uint64
	title   string
	artists string

	lyric string

	// Options
	verbose bool
	lyrics  bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "song URL, id, or search keywords"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		deps:      deps,
		logs:      make([]LogEntry, 0),
		lyrics:    deps.Settings.FetchLyrics,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listenForEvents())
}

// Message types
type (
	// ProgressMsg carries one delivery progress event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// ResolveDoneMsg is sent when the input has been resolved to a song.
	ResolveDoneMsg struct {
		SongID  uint64
		Title   string
		Artists string
		Err     error
	}

	// DeliverDoneMsg is sent when the delivery finishes.
	DeliverDoneMsg struct {
		Lyric string
		Err   error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateResolving || m.state == StateDelivering {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				m.state = StateResolving
				return m, tea.Batch(m.resolveSong(), m.spinner.Tick)
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "l":
			if m.state == StateInput {
				m.lyrics = !m.lyrics
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for the next song
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.songID = 0
				m.title = ""
				m.artists = ""
				m.lyric = ""
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level != download.LevelVerbose || m.verbose {
			m.logs = append(m.logs, LogEntry{
				Message: msg.Event.Message,
				Level:   msg.Event.Level,
			})
			// Keep only last 10 logs
			if len(m.logs) > 10 {
				m.logs = m.logs[len(m.logs)-10:]
			}
		}
		cmds = append(cmds, m.listenForEvents())

	case ResolveDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.songID = msg.SongID
			m.title = msg.Title
			m.artists = msg.Artists
			m.state = StateDelivering
			cmds = append(cmds, m.deliverSong())
		}

	case DeliverDoneMsg:
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.lyric = msg.Lyric
			m.state = StateComplete
		}
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// listenForEvents waits for the next manager progress event.
func (m Model) listenForEvents() tea.Cmd {
	if m.deps.Events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-m.deps.Events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♪ Songferry"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Fetch, tag and deliver songs"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateResolving:
		b.WriteString(m.viewResolving())
	case StateDelivering:
		b.WriteString(m.viewDelivering())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter a song:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	lyricsCheck := "[ ]"
	if m.lyrics {
		lyricsCheck = "[x]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[x]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Fetch lyrics (l)\n", lyricsCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Cache dir: %s", m.deps.Settings.CacheDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewResolving() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Looking up song..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDelivering() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(songStyle.Render(fmt.Sprintf("♪ %s - %s", m.artists, m.title)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"Delivered!\n\n%s - %s",
		m.artists,
		m.title,
	))
	b.WriteString(box)

	if m.lyric != "" {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(m.lyric))
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: deliver • l: lyrics • v: verbose • esc: quit"
	case StateResolving, StateDelivering:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: another song • q: quit"
	}
	return ""
}

// resolveSong turns the raw input into a song id, searching the catalog
// when the input is not a recognizable id or link.
func (m *Model) resolveSong() tea.Cmd {
	text := m.textInput.Value()
	ctx := m.ctx

	return func() tea.Msg {
		if songID, ok := catalog.ParseSongID(text); ok {
			song, err := m.deps.Catalog.SongDetail(ctx, songID)
			if err != nil {
				return ResolveDoneMsg{Err: err}
			}
			return ResolveDoneMsg{SongID: songID, Title: song.Name, Artists: song.ArtistLine()}
		}

		songs, err := m.deps.Catalog.Search(ctx, text, 1)
		if err != nil {
			return ResolveDoneMsg{Err: err}
		}
		if len(songs) == 0 {
			return ResolveDoneMsg{Err: fmt.Errorf("no results for %q", text)}
		}
		first := songs[0]
		return ResolveDoneMsg{SongID: first.ID, Title: first.Name, Artists: first.ArtistLine()}
	}
}

// deliverSong runs the delivery in the background.
func (m *Model) deliverSong() tea.Cmd {
	ctx := m.ctx
	songID := m.songID
	wantLyric := m.lyrics

	return func() tea.Msg {
		if err := m.deps.Manager.Deliver(ctx, songID, nil); err != nil {
			return DeliverDoneMsg{Err: err}
		}

		var lyric string
		if wantLyric {
			text, err := m.deps.Manager.Lyric(ctx, songID)
			if err == nil {
				lyric = text
			}
		}
		return DeliverDoneMsg{Lyric: lyric}
	}
}

// Run starts the TUI application.
func Run(deps Deps) error {
	p := tea.NewProgram(NewModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
