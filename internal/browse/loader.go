package browse

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type scanDoneMsg struct {
	result model.SyncResult
	err    error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	domain string
	scanFn func(ctx context.Context) (model.SyncResult, error)
	frame  int
	result model.SyncResult
	err    error
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doScan(), m.tick())
}

func (m loaderModel) doScan() tea.Cmd {
	scanFn := m.scanFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		result, err := scanFn(ctx)
		return scanDoneMsg{result: result, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scanDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Scanning %s...\n", spinner, m.domain)
}

// RunScanLoader shows a spinner while scanning one site. It renders inline
// (no alt screen).
func RunScanLoader(domain string, scanFn func(ctx context.Context) (model.SyncResult, error)) (model.SyncResult, error) {
	m := loaderModel{
		domain: domain,
		scanFn: scanFn,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return model.SyncResult{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
