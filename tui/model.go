// Package tui is the terminal frontend: a prompt, an editable diagram source
// kept in sync with its rendered preview, voice input and exports.
package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ai_diagram_generator/app"
	"ai_diagram_generator/editor"
	"ai_diagram_generator/generator"
	"ai_diagram_generator/recording"
)

type focus int

const (
	focusPrompt focus = iota
	focusSource
)

// Deps are the collaborators the TUI drives.
type Deps struct {
	App       *app.Controller
	Recorder  *recording.Controller
	Renderer  editor.Renderer
	Raster    editor.Rasterizer
	Clipboard editor.Clipboard
	ExportDir string
	Logger    *slog.Logger
}

// Model is the bubbletea model
type Model struct {
	prompt  textarea.Model
	source  *textarea.Model // shared with the editor sync controller
	spinner spinner.Model
	styles  *Styles
	focus   focus

	deps    Deps
	state   *app.State
	sync    *editor.Controller
	renders chan struct{}
	notice  string

	ctx    context.Context
	width  int
	height int
}

// Messages for async operations
type healthMsg struct{ line string }

type diagramMsg struct {
	action  string
	diagram string
	err     error
}

type recordStartedMsg struct{ err error }

type transcribedMsg struct {
	text string
	err  error
}

type renderedMsg struct{}

type exportMsg struct {
	what string
	path string
	ok   bool
	err  error
}

// areaSurface exposes a textarea as the editing surface.
type areaSurface struct{ area *textarea.Model }

func (s areaSurface) Value() string        { return s.area.Value() }
func (s areaSurface) SetValue(text string) { s.area.SetValue(text) }

// Normalize applies the textarea's input sanitizing ahead of SetValue so the
// value it keeps is predictable. \r\n collapses to a single \n.
func (areaSurface) Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (r != '\n' && unicode.IsControl(r)) {
			return -1
		}
		return r
	}, text)
}

// NewModel mounts the editor with the current diagram and renders it once.
func NewModel(ctx context.Context, deps Deps) (Model, error) {
	if deps.App == nil || deps.Recorder == nil || deps.Renderer == nil {
		return Model{}, errors.New("tui: app, recorder and renderer are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.ExportDir == "" {
		deps.ExportDir = "."
	}
	state := deps.App.State()

	prompt := textarea.New()
	prompt.Placeholder = generator.SamplePrompt
	prompt.CharLimit = 0
	prompt.SetWidth(100)
	prompt.SetHeight(3)
	prompt.ShowLineNumbers = false
	prompt.SetValue(state.Prompt())
	prompt.Focus()

	source := textarea.New()
	source.Placeholder = "Generated Mermaid source appears here"
	source.CharLimit = 0
	source.MaxHeight = 0
	source.SetWidth(100)
	source.SetHeight(12)
	source.Blur()

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Millisecond * 100,
	}

	renders := make(chan struct{}, 1)
	sync, err := editor.New(areaSurface{area: &source}, deps.Renderer, state.Diagram(), state.SetDiagram,
		editor.WithLogger(deps.Logger),
		editor.OnRender(func(editor.Preview) {
			select {
			case renders <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return Model{}, err
	}

	return Model{
		prompt:  prompt,
		source:  &source,
		spinner: s,
		styles:  NewStyles(),
		deps:    deps,
		state:   state,
		sync:    sync,
		renders: renders,
		ctx:     ctx,
		width:   120,
		height:  40,
	}, nil
}

// Close releases the microphone and stops outstanding renders.
func (m Model) Close() {
	if err := m.deps.Recorder.Close(); err != nil {
		m.deps.Logger.Warn("recorder close failed", "error", err)
	}
	m.sync.Close()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.checkHealth(), waitForRender(m.renders))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 4
		if w < 40 {
			w = 40
		}
		m.prompt.SetWidth(w)
		m.source.SetWidth(w)
		if h := msg.Height - 20; h > 5 {
			m.source.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.Close()
			return m, tea.Quit
		case "tab":
			return m.toggleFocus()
		case "ctrl+g":
			m.notice = ""
			return m, m.runDiagram("generate", m.deps.App.Generate)
		case "ctrl+e":
			m.notice = ""
			return m, m.runDiagram("improve", m.deps.App.Improve)
		case "ctrl+r":
			return m.toggleRecording()
		case "ctrl+s":
			return m, m.exportSVG()
		case "ctrl+p":
			return m, m.exportPNG()
		case "ctrl+y":
			return m, m.copyText()
		}
		return m.updateFocused(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case healthMsg:
		return m, nil

	case diagramMsg:
		if msg.err != nil {
			m.state.SetError(msg.err)
			return m, nil
		}
		m.sync.Push(msg.diagram)
		m.notice = m.styles.Success.Render("Diagram " + msg.action + "d")
		return m, nil

	case recordStartedMsg:
		if msg.err != nil {
			m.state.SetError(msg.err)
			return m, nil
		}
		m.state.SetError(nil)
		m.notice = m.styles.Warning.Render("Recording… press ctrl+r to stop")
		return m, nil

	case transcribedMsg:
		if msg.err != nil {
			m.state.SetError(msg.err)
			m.notice = ""
			return m, nil
		}
		m.prompt.SetValue(m.state.Prompt())
		m.state.SetPrompt(m.prompt.Value())
		m.notice = m.styles.Success.Render("Transcribed: " + msg.text)
		return m, nil

	case renderedMsg:
		return m, waitForRender(m.renders)

	case exportMsg:
		switch {
		case msg.err != nil:
			m.notice = m.styles.Error.Render(msg.what + " failed: " + msg.err.Error())
		case !msg.ok:
			m.notice = m.styles.Dim.Render("Nothing rendered to " + msg.what)
		case msg.path != "":
			m.notice = m.styles.Success.Render("Saved " + msg.path)
		default:
			m.notice = m.styles.Success.Render("Copied diagram source")
		}
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m Model) toggleFocus() (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusPrompt {
		m.focus = focusSource
		m.prompt.Blur()
		cmd = m.source.Focus()
	} else {
		m.focus = focusPrompt
		m.source.Blur()
		cmd = m.prompt.Focus()
	}
	return m, cmd
}

// updateFocused forwards a key to the focused widget and propagates edits.
func (m Model) updateFocused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusPrompt {
		before := m.prompt.Value()
		m.prompt, cmd = m.prompt.Update(msg)
		if v := m.prompt.Value(); v != before {
			m.state.SetPrompt(v)
		}
		return m, cmd
	}
	before := m.source.Value()
	*m.source, cmd = m.source.Update(msg)
	if v := m.source.Value(); v != before {
		m.sync.Edit(v)
	}
	return m, cmd
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	rec := m.deps.Recorder
	ctx := m.ctx
	if rec.State() == recording.Capturing {
		m.notice = m.styles.Info.Render("Transcribing…")
		return m, func() tea.Msg {
			text, err := rec.Stop(ctx)
			return transcribedMsg{text: text, err: err}
		}
	}
	return m, func() tea.Msg {
		return recordStartedMsg{err: rec.Start(ctx)}
	}
}

func (m Model) checkHealth() tea.Cmd {
	a, ctx := m.deps.App, m.ctx
	return func() tea.Msg {
		return healthMsg{line: a.CheckHealth(ctx)}
	}
}

func (m Model) runDiagram(action string, fn func(context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		d, err := fn(ctx)
		return diagramMsg{action: action, diagram: d, err: err}
	}
}

func waitForRender(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return renderedMsg{}
	}
}

func (m Model) exportSVG() tea.Cmd {
	sync, dir := m.sync, m.deps.ExportDir
	return func() tea.Msg {
		var buf bytes.Buffer
		ok, err := sync.ExportSVG(&buf)
		if err != nil || !ok {
			return exportMsg{what: "export SVG", ok: ok, err: err}
		}
		path, err := writeExport(dir, "diagram.svg", buf.Bytes())
		return exportMsg{what: "export SVG", path: path, ok: true, err: err}
	}
}

func (m Model) exportPNG() tea.Cmd {
	sync, raster, dir, ctx := m.sync, m.deps.Raster, m.deps.ExportDir, m.ctx
	return func() tea.Msg {
		var buf bytes.Buffer
		ok, err := sync.ExportPNG(ctx, raster, &buf)
		if err != nil || !ok {
			return exportMsg{what: "export PNG", ok: ok, err: err}
		}
		path, err := writeExport(dir, "diagram.png", buf.Bytes())
		return exportMsg{what: "export PNG", path: path, ok: true, err: err}
	}
}

func (m Model) copyText() tea.Cmd {
	sync, cb := m.sync, m.deps.Clipboard
	return func() tea.Msg {
		if cb == nil {
			cb = editor.SystemClipboard{}
		}
		ok, err := sync.CopyText(cb)
		return exportMsg{what: "copy", ok: ok, err: err}
	}
}

func writeExport(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (m Model) View() string {
	var b strings.Builder
	snap := m.state.Snapshot()

	b.WriteString(m.styles.Title.Render("AI Diagram Generator"))
	b.WriteString("\n")
	if snap.Status != "" {
		b.WriteString(m.styles.Dim.Render(snap.Status))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.styles.Label.Render("Describe your diagram"))
	b.WriteString("\n")
	b.WriteString(m.pane(focusPrompt).Render(m.prompt.View()))
	b.WriteString("\n")

	b.WriteString(m.styles.Label.Render("Mermaid source"))
	b.WriteString("\n")
	b.WriteString(m.pane(focusSource).Render(m.source.View()))
	b.WriteString("\n")

	b.WriteString(m.previewLine())
	b.WriteString("\n")

	switch {
	case snap.Recording:
		b.WriteString(m.styles.Error.Render("● REC") + " ")
	case snap.Loading:
		b.WriteString(m.styles.Accent.Render(m.spinner.View()) + " Working… ")
	}
	if snap.Err != "" {
		b.WriteString(m.styles.Error.Render(snap.Err))
	} else if m.notice != "" {
		b.WriteString(m.notice)
	}
	b.WriteString("\n")

	b.WriteString(m.styles.Dim.Render(
		"tab focus · ctrl+g generate · ctrl+e improve · ctrl+r record · ctrl+s svg · ctrl+p png · ctrl+y copy · ctrl+c quit"))
	return b.String()
}

func (m Model) pane(f focus) lipgloss.Style {
	if m.focus == f {
		return m.styles.Focused
	}
	return m.styles.Pane
}

func (m Model) previewLine() string {
	p := m.sync.Preview()
	switch {
	case p.Err != "":
		return m.styles.Error.Render("Preview: " + p.Err)
	case p.Rendered():
		return m.styles.Success.Render(fmt.Sprintf("Preview: rendered (%d bytes SVG)", len(p.SVG)))
	default:
		return m.styles.Dim.Render("Preview: rendering…")
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	m, err := NewModel(ctx, deps)
	if err != nil {
		return err
	}
	defer m.Close()
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
