package ui

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// shortcutFor normalises a key event the way shortcuts are registered:
// letters lower-cased, modifiers other than shift, control and alt dropped.
func shortcutFor(e key.Event) KeyShortcut {
	mods := e.Modifiers & (key.ModShift | key.ModControl | key.ModAlt)
	r := e.Rune
	if unicode.IsLetter(r) {
		r = unicode.ToLower(r)
	}
	if r > 0 {
		return KeyShortcut{Rune: r, Modifiers: mods}
	}
	return KeyShortcut{Rune: -1, Code: e.Code, Modifiers: mods}
}

func runeKey(r rune) KeyShortcut { return KeyShortcut{Rune: r} }

func shiftKey(r rune) KeyShortcut { return KeyShortcut{Rune: r, Modifiers: key.ModShift} }

func ctrlKey(r rune) KeyShortcut { return KeyShortcut{Rune: r, Modifiers: key.ModControl} }

func codeKey(c key.Code) KeyShortcut { return KeyShortcut{Rune: -1, Code: c} }
