package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/render"
	"github.com/desertthunder/cwlog/internal/source"
)

type blockMsg formatter.Block

type streamDoneMsg struct {
	err error
}

// Model represents the log viewer state.
type Model struct {
	ctx      context.Context
	follower *source.Follower
	blocks   chan formatter.Block
	runDone  chan error
	palette  *render.Palette

	viewport viewport.Model
	lines    []string
	follow   bool
	done     bool
	width    int
	height   int
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a viewer over the provided follower. The follower is
// started by [Model.Init]; the model owns the block channel.
func NewModel(ctx context.Context, follower *source.Follower) *Model {
	return &Model{
		ctx:      ctx,
		follower: follower,
		blocks:   make(chan formatter.Block, 64),
		runDone:  make(chan error, 1),
		palette:  render.DefaultPalette(),
		follow:   true,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the follower pump and begins consuming blocks.
func (m *Model) Init() tea.Cmd {
	go func() {
		m.runDone <- m.follower.Run(m.ctx, m.blocks)
	}()
	return m.waitForBlock()
}

// Update handles incoming messages and updates the viewer state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 2
		if m.viewport.Width == 0 {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.top):
			m.follow = false
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.bottom):
			m.viewport.GotoBottom()
			return m, nil
		case key.Matches(msg, m.keys.follow):
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
			return m, nil
		case key.Matches(msg, m.keys.debug):
			session := m.follower.Session()
			session.SetDebug(!session.Debug())
			return m, nil
		case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
			m.follow = false
		}

	case blockMsg:
		m.lines = append(m.lines, m.palette.Term(formatter.Block(msg)))
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, m.waitForBlock()

	case streamDoneMsg:
		m.done = true
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the header, viewport and help footer.
func (m *Model) View() string {
	title := styles.title.Render("cwlog · sync log")

	var status string
	switch {
	case m.err != nil:
		status = styles.err.Render(fmt.Sprintf("stream error: %v", m.err))
	case m.done:
		status = styles.help.Render("stream ended")
	case m.follower.Session().Debug():
		status = styles.help.Render("debug passthrough")
	case m.follow:
		status = styles.help.Render("following")
	default:
		status = styles.help.Render("paused")
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s  %s\n\n%s\n\n%s", title, status, m.viewport.View(), helpView)
}

func (m *Model) waitForBlock() tea.Cmd {
	return func() tea.Msg {
		block, ok := <-m.blocks
		if !ok {
			return streamDoneMsg{err: <-m.runDone}
		}
		return blockMsg(block)
	}
}
