// Package input owns the process-wide global input hook and fans its
// events out to subscribers: the hotkey listener, the selection overlay,
// and the pinned-window manager all consume the same stream.
package input

import (
	"fmt"
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Kind classifies a normalized input event.
type Kind uint8

const (
	KeyDown Kind = iota + 1
	KeyUp
	MouseDown
	MouseUp
	MouseMove
	MouseDrag
)

// Mouse buttons as reported by the global hook.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
)

// Event is one normalized global input event. Mouse coordinates are in
// virtual-screen space.
type Event struct {
	Kind    Kind
	X       int
	Y       int
	Button  int
	Rawcode uint16
}

// Hook starts the global hook once and distributes its events. The
// underlying hook is a process singleton, so one Hook instance is shared
// by everything that needs input.
type Hook struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	started bool
}

func NewHook() *Hook {
	return &Hook{subs: make(map[int]chan Event)}
}

// Start begins event delivery. Calling Start on a running hook is a no-op.
func (h *Hook) Start() error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	evChan := gohook.Start()
	if evChan == nil {
		h.mu.Lock()
		h.started = false
		h.mu.Unlock()
		return fmt.Errorf("global input hook failed to start")
	}
	go h.pump(evChan)
	log.Printf("INPUT: global hook started")
	return nil
}

// Stop ends event delivery and closes all subscriber channels.
func (h *Hook) Stop() {
	gohook.End()
}

// Subscribe registers a buffered event channel. Slow subscribers lose
// events rather than stalling the hook. The returned cancel func is safe
// to call more than once.
func (h *Hook) Subscribe(buffer int) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, buffer)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (h *Hook) pump(evChan chan gohook.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in input hook goroutine: %v", r)
		}
	}()

	for ev := range evChan {
		norm, ok := normalize(ev)
		if !ok {
			continue
		}
		h.dispatch(norm)
	}

	log.Printf("INPUT: hook event channel closed")
	h.mu.Lock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.started = false
	h.mu.Unlock()
}

func (h *Hook) dispatch(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func normalize(ev gohook.Event) (Event, bool) {
	switch ev.Kind {
	case gohook.KeyDown:
		return Event{Kind: KeyDown, Rawcode: ev.Rawcode}, true
	case gohook.KeyUp:
		return Event{Kind: KeyUp, Rawcode: ev.Rawcode}, true
	case gohook.MouseDown:
		return Event{Kind: MouseDown, X: int(ev.X), Y: int(ev.Y), Button: int(ev.Button)}, true
	case gohook.MouseUp:
		return Event{Kind: MouseUp, X: int(ev.X), Y: int(ev.Y), Button: int(ev.Button)}, true
	case gohook.MouseMove:
		return Event{Kind: MouseMove, X: int(ev.X), Y: int(ev.Y)}, true
	case gohook.MouseDrag:
		return Event{Kind: MouseDrag, X: int(ev.X), Y: int(ev.Y), Button: int(ev.Button)}, true
	default:
		return Event{}, false
	}
}
