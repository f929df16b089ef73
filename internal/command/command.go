// internal/command/command.go
package command

import "errors"

// Command is a reversible unit of work. Execute and Undo are called alternately,
// starting with Execute.
type Command interface {
	Execute() error
	Undo() error
}

var (
	ErrNilCard         = errors.New("card is nil")
	ErrNilTarget       = errors.New("target pile is nil")
	ErrNilScorer       = errors.New("scorer is nil")
	ErrCardNotInPile   = errors.New("card is not in a pile")
	ErrSamePile        = errors.New("target pile is the card's current pile")
	ErrAlreadyExecuted = errors.New("command already executed")
	ErrNotExecuted     = errors.New("command not executed")
	ErrStaleSource     = errors.New("card is no longer in the source pile")
	ErrStaleTarget     = errors.New("card is no longer in the target pile")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
)
