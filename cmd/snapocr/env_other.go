//go:build !windows

package main

// preparePlatform is a no-op outside Windows; X11 and Wayland
// compositors report unscaled coordinates already.
func preparePlatform() {}
