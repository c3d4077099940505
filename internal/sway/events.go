package sway

import (
	"context"
	"errors"

	"github.com/joshuarubin/go-sway"
	"github.com/rs/zerolog/log"

	"github.com/fauu/sway-wait-windows/internal/engine"
)

// ErrMissingWindowID marks a window event whose container carries no id.
// Such events cannot be acted on and are dropped.
var ErrMissingWindowID = errors.New("window event has no container id")

// EventFunc consumes one classified window event. Returning an error stops
// the subscription and surfaces the error from SubscribeWindows.
type EventFunc func(ctx context.Context, kind engine.EventKind, win engine.WindowInfo) error

// SubscribeWindows subscribes to sway window events and invokes fn serially
// for every creation and title-change event until ctx is cancelled or fn
// fails. Malformed events are logged and skipped; other window changes
// (focus, move, close, ...) are ignored.
func SubscribeWindows(ctx context.Context, fn EventFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := &windowHandler{
		EventHandler: sway.NoOpEventHandler(),
		fn:           fn,
		cancel:       cancel,
	}
	err := sway.Subscribe(ctx, h, sway.EventTypeWindow)
	if h.err != nil {
		return h.err
	}
	return err
}

type windowHandler struct {
	sway.EventHandler

	fn     EventFunc
	cancel context.CancelFunc
	err    error
}

func (h *windowHandler) Window(ctx context.Context, e sway.WindowEvent) {
	if h.err != nil {
		return
	}

	kind, win, err := classify(e)
	if err != nil {
		if errors.Is(err, errSkipEvent) {
			return
		}
		log.Warn().Err(err).Str("change", string(e.Change)).Msg("dropping malformed window event")
		return
	}

	if err := h.fn(ctx, kind, win); err != nil {
		h.err = err
		h.cancel()
	}
}

// errSkipEvent marks window changes this tool does not react to.
var errSkipEvent = errors.New("event kind not handled")

// classify maps a raw sway window event to an EventKind and a WindowInfo
// snapshot of its container.
func classify(e sway.WindowEvent) (engine.EventKind, engine.WindowInfo, error) {
	var kind engine.EventKind
	switch e.Change {
	case "new":
		kind = engine.WindowCreated
	case "title":
		kind = engine.WindowTitleChanged
	default:
		return 0, engine.WindowInfo{}, errSkipEvent
	}

	if e.Container.ID == 0 {
		return 0, engine.WindowInfo{}, ErrMissingWindowID
	}

	win := engine.WindowInfo{
		ID:    e.Container.ID,
		Title: e.Container.Name,
	}
	if e.Container.AppID != nil {
		win.AppID = *e.Container.AppID
	}
	if e.Container.WindowProperties != nil {
		win.Instance = e.Container.WindowProperties.Instance
	}
	return kind, win, nil
}
