package main

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/wippyai/ftbind/ft"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	glyphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserModel struct {
	ctx    context.Context
	face   *ft.Face
	info   ft.FaceInfo
	err    error
	art    string
	jump   textinput.Model
	metric ft.GlyphMetrics
	index  uint32
	size   uint32
	width  int
	mono   bool
	typing bool
}

type glyphRequest struct {
	index uint32
	size  uint32
	width int
	mono  bool
}

type glyphMsg struct {
	err    error
	art    string
	metric ft.GlyphMetrics
	req    glyphRequest
}

func newBrowserModel(ctx context.Context, face *ft.Face, info ft.FaceInfo, size uint32) *browserModel {
	ti := textinput.New()
	ti.Prompt = "char: "
	ti.CharLimit = 8
	ti.Width = 12
	return &browserModel{
		ctx:   ctx,
		face:  face,
		info:  info,
		jump:  ti,
		size:  size,
		width: terminalWidth(),
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.render()
}

// render loads the current glyph. The result carries the request so a
// stale reply from an earlier key press can be dropped.
func (m *browserModel) render() tea.Cmd {
	req := glyphRequest{index: m.index, size: m.size, mono: m.mono, width: m.width}
	ctx, face := m.ctx, m.face
	return func() tea.Msg {
		msg := glyphMsg{req: req}
		if msg.err = face.SetPixelSizes(ctx, 0, req.size); msg.err != nil {
			return msg
		}
		flags := ft.LoadRender
		if req.mono {
			flags |= ft.LoadMonochrome
		}
		g, err := face.LoadGlyph(ctx, req.index, flags)
		if err != nil {
			msg.err = err
			return msg
		}
		defer g.Close(ctx)

		if msg.metric, msg.err = g.Metrics(ctx); msg.err != nil {
			return msg
		}
		img, err := g.Image(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.art = asciiArt(img, req.width-4)
		return msg
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, m.render()

	case glyphMsg:
		if msg.req.index != m.index || msg.req.size != m.size || msg.req.mono != m.mono {
			return m, nil
		}
		m.art, m.err, m.metric = msg.art, msg.err, msg.metric
		return m, nil

	case tea.KeyMsg:
		if m.typing {
			return m.updateJump(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "right", "l":
			m.step(1)
		case "left", "h":
			m.step(-1)
		case "pgdown":
			m.step(16)
		case "pgup":
			m.step(-16)
		case "+", "=":
			if m.size < 256 {
				m.size += 2
			}
		case "-":
			if m.size > 4 {
				m.size -= 2
			}
		case "m":
			m.mono = !m.mono
		case "/":
			m.typing = true
			m.jump.SetValue("")
			m.jump.Focus()
			return m, textinput.Blink
		default:
			return m, nil
		}
		return m, m.render()
	}
	return m, nil
}

func (m *browserModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.typing = false
		m.jump.Blur()
		return m, nil
	case "enter":
		m.typing = false
		m.jump.Blur()
		r, n := utf8.DecodeRuneInString(norm.NFC.String(m.jump.Value()))
		if n == 0 {
			return m, nil
		}
		idx, err := m.face.CharIndex(m.ctx, r)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.index = idx
		return m, m.render()
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m *browserModel) step(delta int) {
	n := int64(m.index) + int64(delta)
	if n < 0 {
		n = 0
	}
	if n >= m.info.NumGlyphs {
		n = m.info.NumGlyphs - 1
	}
	m.index = uint32(n)
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Glyph Browser"))
	b.WriteString(" ")
	b.WriteString(m.info.FamilyName)
	if m.info.StyleName != "" {
		b.WriteString(" " + m.info.StyleName)
	}
	b.WriteString("\n\n")

	mode := "gray"
	if m.mono {
		mode = "mono"
	}
	fmt.Fprintf(&b, "%s %d/%d  %s %dpx  %s %s\n",
		labelStyle.Render("glyph"), m.index, m.info.NumGlyphs,
		labelStyle.Render("size"), m.size,
		labelStyle.Render("mode"), mode)
	fmt.Fprintf(&b, "%s %.2f  %s %.2fx%.2f\n\n",
		labelStyle.Render("advance"), pixels(m.metric.HoriAdvance),
		labelStyle.Render("box"), pixels(m.metric.Width), pixels(m.metric.Height))

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case strings.TrimSpace(m.art) == "":
		b.WriteString(helpStyle.Render("(empty glyph)"))
	default:
		b.WriteString(glyphStyle.Render(strings.TrimRight(m.art, "\n")))
	}
	b.WriteString("\n\n")

	if m.typing {
		b.WriteString(m.jump.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter jump • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("←/→ glyph • pgup/pgdn ±16 • +/- size • m mono • / jump to char • q quit"))
	}
	return b.String()
}

func pixels(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func runInteractive(ctx context.Context, face *ft.Face, o *options) error {
	info, err := face.Info(ctx)
	if err != nil {
		return err
	}
	if info.NumGlyphs == 0 {
		return fmt.Errorf("%s has no glyphs", o.font)
	}
	p := tea.NewProgram(newBrowserModel(ctx, face, info, uint32(o.size)), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
