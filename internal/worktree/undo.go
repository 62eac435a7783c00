package worktree

import "go.uber.org/zap"

// undoStack records compensating actions alongside the destructive
// steps of a staged operation. Each mutating step pushes the action
// that would reverse it immediately after the step succeeds; when a
// later step fails, rollback replays the stack newest first to restore
// the original layout.
type undoStack struct {
	log     *zap.SugaredLogger
	actions []undoAction
}

type undoAction struct {
	desc string
	fn   func() error
}

func (u *undoStack) push(desc string, fn func() error) {
	u.actions = append(u.actions, undoAction{desc: desc, fn: fn})
}

// rollback runs the recorded actions in reverse order. A failing
// action is logged and skipped so the unwind restores as much as it
// still can.
func (u *undoStack) rollback() {
	for i := len(u.actions) - 1; i >= 0; i-- {
		action := u.actions[i]
		u.log.Warnw("rolling back", "step", action.desc)
		if err := action.fn(); err != nil {
			u.log.Errorw("rollback step failed", "step", action.desc, "error", err)
		}
	}
	u.actions = nil
}
