package main

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gojson "github.com/goccy/go-json"

	"github.com/wippyai/vb6-binary/internal/recfile"
	"github.com/wippyai/vb6-binary/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Padding(0, 1)

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Padding(0, 1)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	headerLines = 3
	footerLines = 2
)

type browseModel struct {
	err      error
	load     tea.Cmd
	typ      *schema.Type
	filename string
	records  []browseRecord
	viewport viewport.Model
	jump     textinput.Model
	current  int
	ready    bool
	loaded   bool
	jumping  bool
}

type browseRecord struct {
	value  reflect.Value
	offset int64
}

type loadedMsg struct {
	err     error
	records []browseRecord
}

func newBrowseModel(s *session, filename string, open func() (io.ReadCloser, error), limit int) *browseModel {
	ti := textinput.New()
	ti.Prompt = "go to record: "
	ti.Placeholder = "1"
	ti.Width = 12

	return &browseModel{
		load:     loadRecords(s, open, limit),
		typ:      s.typ,
		filename: filename,
		jump:     ti,
	}
}

func loadRecords(s *session, open func() (io.ReadCloser, error), limit int) tea.Cmd {
	return func() tea.Msg {
		in, err := open()
		if err != nil {
			return loadedMsg{err: err}
		}
		defer in.Close()

		sc := recfile.NewScanner(in, s.codec, s.typ)
		var records []browseRecord
		for limit <= 0 || len(records) < limit {
			ptr := reflect.New(s.goType)
			if !sc.Scan(ptr.Interface()) {
				break
			}
			records = append(records, browseRecord{value: ptr.Elem(), offset: sc.Offset()})
		}
		// Records read before a decode error are still shown.
		return loadedMsg{records: records, err: sc.Err()}
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.load
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - headerLines - footerLines
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()
		return m, nil

	case loadedMsg:
		m.records = msg.records
		m.err = msg.err
		m.loaded = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "n", "right", "l":
			m.show(m.current + 1)
			return m, nil
		case "p", "left", "h":
			m.show(m.current - 1)
			return m, nil
		case "home":
			m.show(0)
			return m, nil
		case "end":
			m.show(len(m.records) - 1)
			return m, nil
		case "g":
			m.jumping = true
			m.jump.SetValue("")
			return m, m.jump.Focus()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *browseModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		if n, err := strconv.Atoi(strings.TrimSpace(m.jump.Value())); err == nil {
			m.show(n - 1)
		}
		m.jumping = false
		m.jump.Blur()
		return m, nil
	case "esc":
		m.jumping = false
		m.jump.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m *browseModel) show(i int) {
	if len(m.records) == 0 {
		return
	}
	m.current = min(max(i, 0), len(m.records)-1)
	m.refresh()
	m.viewport.GotoTop()
}

func (m *browseModel) refresh() {
	if !m.ready || len(m.records) == 0 {
		return
	}
	m.viewport.SetContent(renderRecord(m.typ, m.records[m.current].value))
}

func (m *browseModel) View() string {
	if m.loaded && len(m.records) == 0 {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
		}
		return "No records in " + m.filename + ". Press q to quit."
	}
	if !m.loaded || !m.ready {
		return "Loading records..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("VB6 Records"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	rec := m.records[m.current]
	b.WriteString(fmt.Sprintf("%s %d/%d at offset %d",
		m.typ.Name, m.current+1, len(m.records), rec.offset))
	if m.err != nil {
		b.WriteString("  ")
		b.WriteString(errorStyle.Render("stopped: " + m.err.Error()))
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")

	if m.jumping {
		b.WriteString(m.jump.View())
	} else {
		b.WriteString(helpStyle.Render("←/→ record • ↑/↓ scroll • g go to • home/end • q quit"))
	}
	return b.String()
}

func renderRecord(t *schema.Type, v reflect.Value) string {
	nameWidth, typeWidth := 0, 0
	for _, f := range t.Fields {
		nameWidth = max(nameWidth, len(f.Name))
		typeWidth = max(typeWidth, len(f.Type.String()))
	}

	var b strings.Builder
	for i, f := range t.Fields {
		b.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, f.Name)))
		b.WriteString(typeStyle.Render(fmt.Sprintf("%-*s", typeWidth, f.Type.String())))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(formatValue(f.Type, v.Field(i))))
		b.WriteString("\n")
	}
	return b.String()
}

func formatValue(t *schema.Type, v reflect.Value) string {
	switch t.Kind {
	case schema.KindString:
		return strconv.Quote(v.String())
	case schema.KindChar:
		return strconv.QuoteRune(rune(v.Int()))
	case schema.KindList, schema.KindRecord:
		data, err := gojson.Marshal(v.Interface())
		if err != nil {
			return fmt.Sprint(v.Interface())
		}
		return string(data)
	default:
		return fmt.Sprint(v.Interface())
	}
}

func runBrowser(s *session, filename string, open func() (io.ReadCloser, error), limit int) error {
	p := tea.NewProgram(newBrowseModel(s, filename, open, limit), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
