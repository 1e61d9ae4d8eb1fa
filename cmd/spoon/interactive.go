package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/spoon"
	"github.com/wippyai/spoon/cfg"
	"github.com/wippyai/spoon/parser"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	opts     spoon.Options
	filename string
	src      string
	result   string
	roots    []rootInfo
	input    textinput.Model
	selected int
	state    modelState
	loaded   bool
}

// rootInfo describes one function body of the loaded program.
type rootInfo struct {
	name   string
	params []string
	blocks int
	dump   string
}

type modelState int

const (
	stateSelectRoot modelState = iota
	stateShowGraph
	stateInputTargets
	stateShowResult
)

func newInteractiveModel(filename string, opts spoon.Options) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		opts:     opts,
		state:    stateSelectRoot,
	}
}

type loadedMsg struct {
	err   error
	src   string
	roots []rootInfo
}

type compileResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadProgram
}

func (m *interactiveModel) loadProgram() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	prog, err := parser.Parse(string(data))
	if err != nil {
		return loadedMsg{err: err}
	}
	g, err := spoon.Construct(prog)
	if err != nil {
		return loadedMsg{err: err}
	}

	var roots []rootInfo
	for _, r := range g.Roots {
		ri := rootInfo{name: cfg.FunctionName(r)}
		switch {
		case r == g.Root:
			ri.name = "<program>"
		case ri.name == "":
			ri.name = "<anonymous>"
		}
		if r.Fn != nil && r.Fn.Func != nil {
			ri.params = r.Fn.Func.Params
		}
		var sb strings.Builder
		for _, b := range cfg.Reachable(r) {
			ri.blocks++
			sb.WriteString(b.String())
		}
		ri.dump = sb.String()
		roots = append(roots, ri)
	}
	return loadedMsg{src: string(data), roots: roots}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputTargets {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectRoot && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectRoot && m.selected < len(m.roots)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectRoot:
				if len(m.roots) > 0 {
					m.state = stateShowGraph
				}
			case stateShowGraph:
				m.state = stateSelectRoot
			case stateInputTargets:
				return m, m.compile
			case stateShowResult:
				m.state = stateSelectRoot
				m.result = ""
				m.err = nil
			}

		case "t":
			if m.state == stateSelectRoot || m.state == stateShowGraph {
				m.prepareInput()
				m.state = stateInputTargets
				return m, textinput.Blink
			}

		case "esc":
			switch m.state {
			case stateShowGraph, stateInputTargets:
				m.state = stateSelectRoot
			case stateShowResult:
				m.state = stateSelectRoot
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.src = msg.src
		m.roots = msg.roots

	case compileResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputTargets {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = "sleep,fs.*"
	ti.Prompt = "targets: "
	ti.Width = 40
	ti.SetValue(strings.Join(m.opts.Targets, ","))
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) compile() tea.Msg {
	out, err := spoon.Spoon(m.src, splitList(m.input.Value()), m.opts)
	if err != nil {
		return compileResultMsg{err: err}
	}
	return compileResultMsg{result: out}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if !m.loaded {
		return "Loading program..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Spoon"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectRoot:
		b.WriteString("Function bodies:\n\n")
		for i, r := range m.roots {
			line := "  " + m.formatRoot(r)
			if i == m.selected {
				line = selectedStyle.Render("> " + m.formatRoot(r))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter graph • t asyncify • q quit"))

	case stateShowGraph:
		r := m.roots[m.selected]
		b.WriteString(fmt.Sprintf("Graph of %s:\n\n", funcStyle.Render(r.name)))
		b.WriteString(infoStyle.Render(r.dump))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter back • t asyncify • q quit"))

	case stateInputTargets:
		b.WriteString("Asyncify calls matching:\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter compile • esc back"))

	case stateShowResult:
		b.WriteString("Result:\n\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatRoot(r rootInfo) string {
	return funcStyle.Render(r.name) + "(" + strings.Join(r.params, ", ") + ")" +
		infoStyle.Render(fmt.Sprintf("  %d blocks", r.blocks))
}

func runInteractive(filename string, opts spoon.Options) error {
	p := tea.NewProgram(newInteractiveModel(filename, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
