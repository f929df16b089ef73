package command

import (
	"errors"
	"testing"

	"github.com/jason-s-yu/solitaire/internal/config"
	"github.com/jason-s-yu/solitaire/internal/models"
	"github.com/jason-s-yu/solitaire/internal/points"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCommand struct{ err error }

func (f failingCommand) Execute() error { return f.err }
func (f failingCommand) Undo() error    { return f.err }

func TestHistoryUndoRedo(t *testing.T) {
	scoring := config.DefaultScoring()
	score := points.NewService()
	waste := models.NewPile(models.Waste, 0)
	tableau := models.NewPile(models.Tableau, 0)
	foundation := models.NewPile(models.Foundation, 0)
	ace := models.NewCard(models.Club, models.Ace)
	two := models.NewCard(models.Club, models.Two)
	place(waste, true, two, ace)

	h := NewHistory()
	assert.False(t, h.CanUndo())
	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)

	first, err := NewMoveCard(ace, foundation, score, nil, scoring)
	require.NoError(t, err)
	require.NoError(t, h.Execute(first))
	second, err := NewMoveCard(two, tableau, score, nil, scoring)
	require.NoError(t, err)
	require.NoError(t, h.Execute(second))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, scoring.PointsWasteToFoundation+scoring.PointsWasteToTableau, score.Total())

	undone, err := h.Undo()
	require.NoError(t, err)
	assert.Same(t, second, undone)
	undone, err = h.Undo()
	require.NoError(t, err)
	assert.Same(t, first, undone)
	assert.Equal(t, 0, score.Total())
	assert.Equal(t, []*models.Card{two, ace}, waste.Cards())

	redone, err := h.Redo()
	require.NoError(t, err)
	assert.Same(t, first, redone)
	assert.True(t, h.CanRedo())
	assert.Same(t, foundation, ace.Pile())

	// a fresh move drops the redo stack
	third, err := NewMoveCard(two, foundation, score, nil, scoring)
	require.NoError(t, err)
	require.NoError(t, h.Execute(third))
	assert.False(t, h.CanRedo())
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)

	h.Clear()
	assert.False(t, h.CanUndo())
}

func TestHistoryFailedCommandNotRecorded(t *testing.T) {
	boom := errors.New("boom")
	h := NewHistory()
	assert.ErrorIs(t, h.Execute(failingCommand{err: boom}), boom)
	assert.Equal(t, 0, h.Len())
}
