package input

import (
	"fmt"
	"log"
)

type comboKey struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

func (k *comboKey) matches(rawcode uint16) bool {
	for _, rc := range k.rawcodes {
		if rc == rawcode {
			return true
		}
	}
	return false
}

// Matcher tracks key state for one hotkey combination fed from the global
// event stream.
type Matcher struct {
	combo string
	keys  []comboKey
}

func NewMatcher(combo string) (*Matcher, error) {
	names := parseCombo(combo)
	if len(names) == 0 {
		return nil, fmt.Errorf("empty hotkey %q", combo)
	}
	m := &Matcher{combo: combo}
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return nil, fmt.Errorf("unknown key %q in hotkey %q", name, combo)
		}
		m.keys = append(m.keys, comboKey{name: name, rawcodes: rawcodes})
	}
	return m, nil
}

// Feed processes one event and reports whether the full combination just
// went down. Key states reset after a match, so holding the combination
// does not refire until a key is released and pressed again.
func (m *Matcher) Feed(ev Event) bool {
	switch ev.Kind {
	case KeyDown:
		matched := false
		for i := range m.keys {
			if m.keys[i].matches(ev.Rawcode) {
				m.keys[i].pressed = true
				matched = true
			}
		}
		if !matched {
			return false
		}
		for i := range m.keys {
			if !m.keys[i].pressed {
				return false
			}
		}
		for i := range m.keys {
			m.keys[i].pressed = false
		}
		return true
	case KeyUp:
		for i := range m.keys {
			if m.keys[i].matches(ev.Rawcode) {
				m.keys[i].pressed = false
			}
		}
	}
	return false
}

// ListenHotkey invokes callback whenever the combination is detected on
// the hook stream. The callback runs on the listener goroutine and must
// not block. The returned cancel func stops listening.
func ListenHotkey(hook *Hook, combo string, callback func()) (func(), error) {
	matcher, err := NewMatcher(combo)
	if err != nil {
		return nil, err
	}
	events, cancel := hook.Subscribe(64)
	log.Printf("HOTKEY: listener configured for %s", combo)
	go func() {
		for ev := range events {
			if matcher.Feed(ev) {
				log.Printf("HOTKEY: combination %s detected", combo)
				callback()
			}
		}
	}()
	return cancel, nil
}
