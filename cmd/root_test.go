package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fauu/sway-wait-windows/internal/engine"
	"github.com/fauu/sway-wait-windows/internal/rules"
)

// nopRunner accepts every command; awaitRules tests never dispatch any.
type nopRunner struct{}

func (nopRunner) RunCommand(ctx context.Context, command string) error { return nil }

func pendingEngine(t *testing.T) *engine.Engine {
	t.Helper()
	rs, err := rules.ParseString(":app foo  floating enable")
	if err != nil {
		t.Fatal(err)
	}
	return engine.New(rs, nopRunner{})
}

func TestReadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules")
	content := "# comment\n:app foo  floating enable\n:title bar$  fullscreen enable\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := readRules(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rs))
	}
	if rs[0].Command != "floating enable" {
		t.Errorf("unexpected first command: %q", rs[0].Command)
	}
}

func TestReadRulesMissingFile(t *testing.T) {
	_, err := readRules(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing rules file")
	}
}

func TestAwaitRules_ExhaustionWins(t *testing.T) {
	eng := engine.New(nil, nopRunner{}) // nothing pending, done immediately

	res, err := awaitRules(eng, nil, make(chan error, 1), 30, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.TimedOut {
		t.Errorf("expected success result, got %+v", res)
	}
}

func TestAwaitRules_TimerFiresAfterDeadlineOnly(t *testing.T) {
	eng := pendingEngine(t)
	timeoutCh := make(chan time.Time)

	type outcome struct {
		res WaitResult
		err error
	}
	outCh := make(chan outcome, 1)
	go func() {
		res, err := awaitRules(eng, timeoutCh, make(chan error, 1), 1, time.Now())
		outCh <- outcome{res, err}
	}()

	// Nothing fired yet, so the wait must still be blocked.
	select {
	case out := <-outCh:
		t.Fatalf("awaitRules returned before the deadline: %+v", out.res)
	case <-time.After(50 * time.Millisecond):
	}

	timeoutCh <- time.Now()
	out := <-outCh
	if out.err == nil || !strings.Contains(out.err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", out.err)
	}
	if out.res.OK || !out.res.TimedOut {
		t.Errorf("expected timed-out result, got %+v", out.res)
	}
}

func TestAwaitRules_EventLoopErrorIsFatal(t *testing.T) {
	eng := pendingEngine(t)
	errCh := make(chan error, 1)
	errCh <- errors.New("socket closed")

	res, err := awaitRules(eng, nil, errCh, 30, time.Now())
	if err == nil || !strings.Contains(err.Error(), "socket closed") {
		t.Fatalf("expected event loop error, got %v", err)
	}
	if res.OK || res.TimedOut {
		t.Errorf("expected zero result for a fatal event loop error, got %+v", res)
	}
}

func TestAwaitRules_EventStreamEnded(t *testing.T) {
	eng := pendingEngine(t)
	errCh := make(chan error, 1)
	errCh <- nil

	_, err := awaitRules(eng, nil, errCh, 30, time.Now())
	if !errors.Is(err, errEventStreamEnded) {
		t.Fatalf("expected errEventStreamEnded, got %v", err)
	}
}

func TestArmDeadline(t *testing.T) {
	for _, seconds := range []int{0, -1} {
		ch, stop := armDeadline(seconds)
		if ch != nil {
			t.Errorf("armDeadline(%d) armed a timer", seconds)
		}
		stop()
	}

	ch, stop := armDeadline(1)
	defer stop()
	if ch == nil {
		t.Error("armDeadline(1) returned no channel")
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("formatElapsed = %q, want 1.5s", got)
	}
	if got := formatElapsed(0); got != "0.0s" {
		t.Errorf("formatElapsed = %q, want 0.0s", got)
	}
}
