package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eshaffer321/hledger-clear/internal/domain/matcher"
	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
)

// TerminalChooser asks the user to pick between ambiguous candidates.
// Each prompt runs a short-lived bubbletea program on in/out.
type TerminalChooser struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalChooser creates a chooser reading keys from in and drawing on out.
func NewTerminalChooser(in io.Reader, out io.Writer) *TerminalChooser {
	return &TerminalChooser{in: in, out: out}
}

// Choose implements resolver.Chooser.
func (c *TerminalChooser) Choose(ctx context.Context, prompt resolver.Prompt) (resolver.Decision, error) {
	program := tea.NewProgram(
		newChooserModel(prompt),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return resolver.Decision{}, ctxErr
		}
		return resolver.Decision{}, fmt.Errorf("run chooser: %w", err)
	}

	m, ok := final.(chooserModel)
	if !ok || !m.done {
		return resolver.Decision{Action: resolver.Abort}, nil
	}
	return m.decision, nil
}

// chooserModel lists every candidate for one row; the best tier comes first.
type chooserModel struct {
	prompt   resolver.Prompt
	cursor   int
	decision resolver.Decision
	done     bool
}

func newChooserModel(prompt resolver.Prompt) chooserModel {
	return chooserModel{prompt: prompt}
}

func (m chooserModel) Init() tea.Cmd {
	return nil
}

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.prompt.Candidates)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.prompt.Candidates) == 0 {
			return m.finish(resolver.Decision{Action: resolver.Skip})
		}
		return m.finish(resolver.AcceptCandidate(m.prompt.Candidates[m.cursor]))
	case "s", "esc":
		return m.finish(resolver.Decision{Action: resolver.Skip})
	case "q", "ctrl+c":
		return m.finish(resolver.Decision{Action: resolver.Abort})
	default:
		if n, ok := digit(key.String()); ok && n >= 1 && n <= len(m.prompt.Candidates) {
			return m.finish(resolver.AcceptCandidate(m.prompt.Candidates[n-1]))
		}
	}
	return m, nil
}

func (m chooserModel) finish(d resolver.Decision) (tea.Model, tea.Cmd) {
	m.decision = d
	m.done = true
	return m, tea.Quit
}

func (m chooserModel) View() string {
	if m.done {
		return ""
	}

	row := m.prompt.Row
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Statement line %d", row.Line)))
	b.WriteString("\n")
	b.WriteString("  " + labelStyle.Render(row.Date.Format("2006-01-02")) + "  " +
		amountStyle.Render(row.Amount.String()) + "  " + rowTextStyle.Render(row.Description))
	b.WriteString("\n\n")

	for i, c := range m.prompt.Candidates {
		line := fmt.Sprintf("%d. %s", i+1, candidateLine(c))
		if i >= m.prompt.TopCount {
			line += mutedStyle.Render("  (" + c.Tier.String() + ")")
		}
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("j/k navigate  enter accept  1-9 pick  s skip  q abort"))
	b.WriteString("\n")
	return b.String()
}

func candidateLine(c matcher.Candidate) string {
	tx := c.Transaction
	return fmt.Sprintf("%s  %s  %s  [line %d, %d%% similar]",
		tx.Date.Format("2006-01-02"),
		tx.Amount.String(),
		tx.Description,
		tx.Line,
		int(c.Similarity*100+0.5),
	)
}

func digit(s string) (int, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '0'), true
}
