package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Adbay/widget-weather/internal/modules/widget/types"
)

// Lifecycle event names.
const (
	EventInitialized = "config-initialized"
	EventError       = "config-error"
)

// Handler receives the loaded preferences. config-error handlers get nil.
type Handler func(prefs types.Preferences)

// Emitter drives a Loader through the event contract: handlers subscribe
// with On, Init starts the load exactly once on its own goroutine, and
// exactly one of the two events fires.
type Emitter struct {
	loader Loader
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string][]Handler

	once sync.Once
	done chan struct{}
}

func NewEmitter(loader Loader, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		loader:   loader,
		logger:   logger,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
}

// On subscribes h to event. Handlers added after the event fired are not called.
func (e *Emitter) On(event string, h Handler) error {
	switch event {
	case EventInitialized, EventError:
	default:
		return fmt.Errorf("unknown config event %q", event)
	}
	e.mu.Lock()
	e.handlers[event] = append(e.handlers[event], h)
	e.mu.Unlock()
	return nil
}

// Init starts loading. It returns immediately; later calls do nothing.
func (e *Emitter) Init(ctx context.Context) {
	e.once.Do(func() {
		go e.load(ctx)
	})
}

// Done is closed once the handlers of the fired event have returned.
func (e *Emitter) Done() <-chan struct{} {
	return e.done
}

func (e *Emitter) load(ctx context.Context) {
	defer close(e.done)

	prefs, err := e.loader.Load(ctx)
	if err != nil {
		e.logger.Warn("config load failed", "error", err)
		e.emit(EventError, nil)
		return
	}
	e.emit(EventInitialized, prefs)
}

func (e *Emitter) emit(event string, prefs types.Preferences) {
	e.mu.Lock()
	hs := append([]Handler(nil), e.handlers[event]...)
	e.mu.Unlock()

	e.logger.Debug("config event", "event", event, "handlers", len(hs))
	for _, h := range hs {
		h(prefs)
	}
}
