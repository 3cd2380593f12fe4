// Package tui renders a live full-screen view of a running test: progress,
// counters and latency percentiles, followed by the endpoint summary.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"apiperf/internal/perf"
	"apiperf/internal/stats"
	"apiperf/internal/tui/styles"
)

type doneMsg struct {
	res *perf.RunResult
	err error
}

type Model struct {
	cfg     perf.RunConfig
	updates stats.SnapshotChan
	done    chan doneMsg
	cancel  context.CancelFunc

	snap     stats.Snapshot
	total    uint64
	start    time.Time
	progress progress.Model
	spinner  spinner.Model

	result *perf.RunResult
	err    error
	width  int

	aborted bool
}

func NewModel(cfg perf.RunConfig, updates stats.SnapshotChan, done chan doneMsg, cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.ColorPrimary)

	return Model{
		cfg:      cfg,
		updates:  updates,
		done:     done,
		cancel:   cancel,
		total:    uint64(cfg.Iterations * len(cfg.Requests)),
		start:    time.Now(),
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

// listen waits for the next snapshot or the final result.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-m.updates:
			return snap
		case out := <-m.done:
			return out
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stats.Snapshot:
		m.snap = msg
		pct := 0.0
		if m.total > 0 {
			pct = float64(msg.Requests) / float64(m.total)
			if pct > 1 {
				pct = 1
			}
		}
		return m, tea.Batch(m.progress.SetPercent(pct), m.listen())

	case doneMsg:
		m.result = msg.res
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.aborted = true
			m.cancel()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 8
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.progress.Update(msg)
		m.progress = prog.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("API PERFORMANCE TEST - "+m.cfg.Name) + "\n\n")

	elapsed := time.Since(m.start)
	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(m.snap.Requests) / elapsed.Seconds()
	}

	status := m.spinner.View() + " running"
	if m.aborted {
		status = styles.Warn.Render("stopping...")
	}
	b.WriteString(" " + status + "  " + styles.Subtle.Render(elapsed.Round(time.Second).String()) + "\n\n")
	b.WriteString(" " + m.progress.View() + "\n\n")

	boxes := []string{
		metricBox("Requests", fmt.Sprintf("%d/%d", m.snap.Requests, m.total), styles.Value),
		metricBox("RPS", fmt.Sprintf("%.1f", rps), styles.Value),
		metricBox("Errors", fmt.Sprintf("%d (%.1f%%)", m.snap.Fail, m.snap.ErrorRate()), errStyle(m.snap.Fail)),
		metricBox("Bytes", humanize.Bytes(m.snap.Bytes), styles.Value),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n")

	lat := []string{
		metricBox("P50", fmt.Sprintf("%.1f ms", m.snap.P50Ms), styles.Value),
		metricBox("P90", fmt.Sprintf("%.1f ms", m.snap.P90Ms), styles.Warn),
		metricBox("P99", fmt.Sprintf("%.1f ms", m.snap.P99Ms), styles.Error),
		metricBox("Max", fmt.Sprintf("%d ms", m.snap.MaxMs), styles.Subtle),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, lat...) + "\n\n")

	b.WriteString(" " + styles.RenderKey("q", "abort") + "\n")
	return b.String()
}

func metricBox(label, value string, valueStyle lipgloss.Style) string {
	content := styles.Subtle.Render(label) + "\n" + valueStyle.Render(value)
	return styles.Box.Width(18).Render(content)
}

func errStyle(fails uint64) lipgloss.Style {
	if fails > 0 {
		return styles.Error
	}
	return styles.Value
}

// Run executes the configured test under the live view and returns the
// finished result. A final per-endpoint table is printed after the
// alternate screen closes.
func Run(ctx context.Context, cfg perf.RunConfig) (*perf.RunResult, error) {
	updates := make(stats.SnapshotChan, 100)
	t, err := perf.NewTester(cfg, updates)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.StartTickLoop(ctx, 200*time.Millisecond)

	done := make(chan doneMsg, 1)
	go func() {
		res, err := t.Run(ctx)
		done <- doneMsg{res, err}
	}()

	p := tea.NewProgram(NewModel(cfg, updates, done, cancel), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running live view: %w", err)
	}

	m := final.(Model)
	if m.err != nil {
		return nil, m.err
	}
	printFinal(m.result)
	return m.result, nil
}

func printFinal(res *perf.RunResult) {
	if res == nil {
		return
	}
	var endpoints []string
	for ep := range res.Summary {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n%s\n", styles.Title.Render("TEST RESULTS - "+res.TestName))
	fmt.Printf("Duration: %.2fs, iterations: %d\n\n", res.TotalDuration, res.Iterations)
	for _, ep := range endpoints {
		s := res.Summary[ep]
		fmt.Printf("%s\n  mean %.2fms  median %.2fms  min %.2fms  max %.2fms  success %s\n",
			styles.Active.Render(ep),
			s.MeanTime*1000, s.MedianTime*1000, s.MinTime*1000, s.MaxTime*1000,
			styles.Success.Render(fmt.Sprintf("%.1f%%", s.SuccessRate*100)))
	}
}
