package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/brensch/snekgrid/game"
	"github.com/brensch/snekgrid/sim"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	emptyStyle   = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	hazardStyle  = lipgloss.NewStyle().Background(lipgloss.Color("240"))
	healingStyle = lipgloss.NewStyle().Background(lipgloss.Color("22"))
	foodStyle    = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("202"))
	bodyStyle    = lipgloss.NewStyle().Background(lipgloss.Color("27"))
	headStyle    = lipgloss.NewStyle().Background(lipgloss.Color("196"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	overStyle    = lipgloss.NewStyle().Background(lipgloss.Color("13")).Foreground(lipgloss.Color("0")).Padding(0, 1)
)

type TickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type model struct {
	cfg      sim.Config
	interval time.Duration
	game     *sim.Game
	last     sim.Frame
	paused   bool
	err      error

	gamesPlayed int
	bestLength  int
	recent      []string
}

func initialModel(cfg sim.Config, interval time.Duration) (model, error) {
	g, err := sim.New(cfg)
	if err != nil {
		return model{}, err
	}
	return model{cfg: cfg, interval: interval, game: g}, nil
}

func (m model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "n":
			if m.paused {
				m = m.advance()
			}
		case "r":
			m = m.restart()
		}
	case TickMsg:
		if !m.paused {
			m = m.advance()
		}
		return m, tickCmd(m.interval)
	}
	return m, nil
}

// advance plays one turn, or starts the next game once the current one has
// been shown finished for a tick.
func (m model) advance() model {
	if m.game.Over {
		return m.restart()
	}
	f, err := m.game.Step()
	if err != nil {
		m.err = err
		return m
	}
	m.last = f
	if m.game.Over {
		m.gamesPlayed++
		length := m.game.You().Length
		m.bestLength = max(m.bestLength, length)
		line := fmt.Sprintf("%s: %d turns, length %d, %s", m.game.ID[:8], m.game.Turn, length, m.game.Cause)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > 5 {
			m.recent = m.recent[:5]
		}
	}
	return m
}

func (m model) restart() model {
	cfg := m.cfg
	if cfg.Seed != 0 {
		cfg.Seed += int64(m.gamesPlayed) + 1
	}
	g, err := sim.New(cfg)
	if err != nil {
		m.err = err
		return m
	}
	m.game = g
	m.last = sim.Frame{}
	return m
}

func (m model) View() string {
	var b strings.Builder
	you := m.game.You()

	b.WriteString(titleStyle.Render("snekgrid sim"))
	fmt.Fprintf(&b, "  game %s  turn %d\n", m.game.ID[:8], m.game.Turn)
	move := "-"
	if m.last.Grid != nil {
		move = m.last.Move.String()
	}
	fmt.Fprintf(&b, "health %3d  length %3d  move %-5s safe %v\n\n", you.Health, you.Length, move, names(m.last.Safe))

	grid, err := game.NewGrid(m.game.Board, m.cfg.HazardDamage, m.cfg.Wrapped)
	if err != nil {
		fmt.Fprintf(&b, "render: %v\n", err)
	} else {
		b.WriteString(boardView(grid, you))
	}
	b.WriteString("\n")

	if m.game.Over {
		b.WriteString(overStyle.Render("GAME OVER: "+m.game.Cause) + "\n")
	}
	if m.err != nil {
		fmt.Fprintf(&b, "error: %v\n", m.err)
	}

	fmt.Fprintf(&b, "\ngames %d  best length %d\n", m.gamesPlayed, m.bestLength)
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}

	b.WriteString("\nspace pause  n step  r restart  q quit\n")
	return b.String()
}

// boardView draws one two-character block per cell, top row first.
func boardView(g *game.Grid, you *game.Snake) string {
	var b strings.Builder
	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			c := game.Coord{X: x, Y: y}
			cell := g.Cell(c)
			switch {
			case cell.Occupant != nil && len(you.Body) > 0 && c == you.Body[0]:
				b.WriteString(headStyle.Render("  "))
			case cell.Occupant != nil:
				b.WriteString(bodyStyle.Render("  "))
			case cell.Food && cell.Hazard > 0:
				b.WriteString(foodStyle.Background(lipgloss.Color("240")).Render("()"))
			case cell.Food:
				b.WriteString(foodStyle.Render("()"))
			case cell.Hazard > 0:
				b.WriteString(hazardStyle.Render("  "))
			case cell.Hazard < 0:
				b.WriteString(healingStyle.Render("  "))
			default:
				b.WriteString(emptyStyle.Render("  "))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
