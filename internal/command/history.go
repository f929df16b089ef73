// internal/command/history.go
package command

// History is a stack of executed commands with redo support. It is not safe for
// concurrent use; game sessions serialise access.
type History struct {
	done   []Command
	undone []Command
}

func NewHistory() *History {
	return &History{}
}

// Execute runs cmd and pushes it on the undo stack. A new command invalidates the redo
// stack. A failing command is not recorded.
func (h *History) Execute(cmd Command) error {
	if err := cmd.Execute(); err != nil {
		return err
	}
	h.done = append(h.done, cmd)
	h.undone = h.undone[:0]
	return nil
}

// Undo reverses the most recent command and returns it.
func (h *History) Undo() (Command, error) {
	if len(h.done) == 0 {
		return nil, ErrNothingToUndo
	}
	cmd := h.done[len(h.done)-1]
	if err := cmd.Undo(); err != nil {
		return nil, err
	}
	h.done = h.done[:len(h.done)-1]
	h.undone = append(h.undone, cmd)
	return cmd, nil
}

// Redo re-executes the most recently undone command and returns it.
func (h *History) Redo() (Command, error) {
	if len(h.undone) == 0 {
		return nil, ErrNothingToRedo
	}
	cmd := h.undone[len(h.undone)-1]
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	h.undone = h.undone[:len(h.undone)-1]
	h.done = append(h.done, cmd)
	return cmd, nil
}

func (h *History) CanUndo() bool { return len(h.done) > 0 }
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// Len returns the number of commands that can be undone.
func (h *History) Len() int { return len(h.done) }

// Clear drops every recorded command without undoing it.
func (h *History) Clear() {
	h.done = nil
	h.undone = nil
}
