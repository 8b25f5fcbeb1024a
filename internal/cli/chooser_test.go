package cli

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
	"github.com/eshaffer321/hledger-clear/internal/domain/matcher"
	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
)

func keyRunes(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func testPrompt() resolver.Prompt {
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("-20")
	candidate := func(id, line int, desc string, tier matcher.Tier) matcher.Candidate {
		return matcher.Candidate{
			Transaction: ledger.Transaction{ID: id, Line: line, Date: date, Amount: amount, HasAmount: true, Description: desc},
			Tier:        tier,
			Similarity:  0.5,
		}
	}
	return resolver.Prompt{
		Row: statement.Row{Line: 7, Date: date, Amount: amount, Description: "GAS STATION"},
		Candidates: []matcher.Candidate{
			candidate(2, 10, "Gas Station A", matcher.TierExactDate),
			candidate(3, 14, "Gas Station B", matcher.TierExactDate),
			candidate(5, 30, "Gas Refill", matcher.TierNearDate),
		},
		TopCount: 2,
	}
}

// press feeds keys to the model and returns the final state and command.
func press(m chooserModel, keys ...tea.KeyMsg) (chooserModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(chooserModel)
	}
	return m, cmd
}

func TestChooserModel_EnterAcceptsCursor(t *testing.T) {
	m, cmd := press(newChooserModel(testPrompt()), keyRunes("j"), tea.KeyMsg{Type: tea.KeyEnter})

	require.True(t, m.done)
	require.NotNil(t, cmd)
	assert.Equal(t, resolver.Accept, m.decision.Action)
	assert.Equal(t, 3, m.decision.Candidate.Transaction.ID)
}

func TestChooserModel_CursorStaysInRange(t *testing.T) {
	m, _ := press(newChooserModel(testPrompt()),
		tea.KeyMsg{Type: tea.KeyUp},
		keyRunes("j"), keyRunes("j"), keyRunes("j"), keyRunes("j"),
	)
	assert.Equal(t, 2, m.cursor)
	assert.False(t, m.done)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 5, m.decision.Candidate.Transaction.ID)
}

func TestChooserModel_Keys(t *testing.T) {
	tests := []struct {
		name   string
		key    tea.KeyMsg
		action resolver.Action
		id     int
	}{
		{"digit picks candidate", keyRunes("2"), resolver.Accept, 3},
		{"skip", keyRunes("s"), resolver.Skip, 0},
		{"escape skips", tea.KeyMsg{Type: tea.KeyEsc}, resolver.Skip, 0},
		{"quit aborts", keyRunes("q"), resolver.Abort, 0},
		{"ctrl+c aborts", tea.KeyMsg{Type: tea.KeyCtrlC}, resolver.Abort, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(newChooserModel(testPrompt()), tt.key)
			require.True(t, m.done)
			assert.Equal(t, tt.action, m.decision.Action)
			if tt.action == resolver.Accept {
				assert.Equal(t, tt.id, m.decision.Candidate.Transaction.ID)
			}
		})
	}
}

func TestChooserModel_IgnoresOutOfRangeDigit(t *testing.T) {
	m, cmd := press(newChooserModel(testPrompt()), keyRunes("9"))
	assert.False(t, m.done)
	assert.Nil(t, cmd)
}

func TestChooserModel_View(t *testing.T) {
	m := newChooserModel(testPrompt())
	view := m.View()

	assert.Contains(t, view, "Statement line 7")
	assert.Contains(t, view, "GAS STATION")
	assert.Contains(t, view, "Gas Station A")
	assert.Contains(t, view, "line 14")
	assert.Contains(t, view, "near-date")

	m, _ = press(m, keyRunes("s"))
	assert.Empty(t, m.View())
}
