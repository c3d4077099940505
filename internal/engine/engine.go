package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fauu/sway-wait-windows/internal/rules"
)

// CommandRunner dispatches a command to the compositor. Satisfied by the sway
// client; tests substitute a fake.
type CommandRunner interface {
	RunCommand(ctx context.Context, command string) error
}

// Engine holds the set of rules not yet satisfied and consumes window events.
// Each event removes the rules it satisfies, running their commands against
// the event's window. When the last rule is consumed the channel returned by
// Done is closed, exactly once.
//
// OnEvent is driven from a single event-loop goroutine; the mutex only guards
// the counters read by other goroutines after termination.
type Engine struct {
	runner CommandRunner

	mu      sync.Mutex
	pending []rules.Rule
	matched int

	done     chan struct{}
	doneOnce sync.Once
}

// New returns an Engine waiting on the given rules.
func New(rs []rules.Rule, runner CommandRunner) *Engine {
	e := &Engine{
		runner:  runner,
		pending: rs,
		done:    make(chan struct{}),
	}
	if len(rs) == 0 {
		e.doneOnce.Do(func() { close(e.done) })
	}
	return e
}

// Done is closed when no pending rules remain.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Pending returns the number of rules not yet satisfied.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Matched returns the number of rules satisfied so far.
func (e *Engine) Matched() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matched
}

// OnEvent matches the window against every pending rule using the kind's
// predicate, runs the command of each rule that matched (in rule order), and
// drops those rules from the pending set. A command dispatch failure is
// returned immediately and is fatal to the caller; the matched rule is still
// considered consumed.
func (e *Engine) OnEvent(ctx context.Context, kind EventKind, win WindowInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	remaining := e.pending[:0]
	var matched []rules.Rule
	for _, r := range e.pending {
		if kind.matches(r, win) {
			matched = append(matched, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	e.pending = remaining
	e.matched += len(matched)

	for _, r := range matched {
		command := fmt.Sprintf("[con_id=%d] %s", win.ID, r.Command)
		log.Debug().
			Int64("window", win.ID).
			Str("command", command).
			Msg("rule matched, running command")
		if err := e.runner.RunCommand(ctx, command); err != nil {
			return fmt.Errorf("run command %q: %w", command, err)
		}
	}

	if len(e.pending) == 0 {
		e.doneOnce.Do(func() { close(e.done) })
	}
	return nil
}
