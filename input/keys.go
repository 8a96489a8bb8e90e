package input

import (
	"log"
	"strconv"
	"strings"
)

// Rawcodes the overlay watches for regardless of the configured hotkey.
const EscapeRawcode uint16 = 27 // VK_ESCAPE

// specialRawcodes maps non-alphanumeric key names to Windows virtual-key
// rawcodes. Modifiers list both left and right variants.
var specialRawcodes = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"win":       {91, 92},   // VK_LWIN, VK_RWIN
	"cmd":       {91, 92},
	"super":     {91, 92},
	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its virtual-key rawcodes. Letters,
// digits, and function keys are computed; everything else comes from the
// special table. Returns nil for names it cannot map.
func keyNameToRawcodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))

	if codes, ok := specialRawcodes[name]; ok {
		return codes
	}

	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65} // VK_A..VK_Z
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48} // VK_0..VK_9
		}
	}

	if strings.HasPrefix(name, "f") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1..VK_F24
		}
	}

	log.Printf("INPUT: unknown key name '%s', cannot map to rawcode", name)
	return nil
}

// parseCombo converts a hotkey string like "ctrl+shift+o" to normalized
// key names.
func parseCombo(combo string) []string {
	parts := strings.Split(strings.ToLower(combo), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}
