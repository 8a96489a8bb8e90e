// Package clipboard wraps the system clipboard for result delivery.
package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var writeMu sync.Mutex

// Init must be called once before Write. It fails when no system
// clipboard is reachable (e.g. headless sessions).
func Init() error {
	return clipboard.Init()
}

// Write replaces the clipboard text. Safe for concurrent callers.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
