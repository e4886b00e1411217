package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap holds the board bindings. Arrow keys, enter and esc always reach the
// board core; the letter aliases here mirror them for vim-style movement.
type keyMap struct {
	quit            key.Binding
	reload          key.Binding
	toggleHelp      key.Binding
	focusLeft       key.Binding
	focusRight      key.Binding
	focusUp         key.Binding
	focusDown       key.Binding
	openCard        key.Binding
	clearFocus      key.Binding
	search          key.Binding
	deleteCard      key.Binding
	newCard         key.Binding
	editCard        key.Binding
	moveCardLeft    key.Binding
	moveCardRight   key.Binding
	moveColumnLeft  key.Binding
	moveColumnRight key.Binding
	copyRef         key.Binding
	nextBoard       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:            key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:          key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		focusLeft:       key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev column")),
		focusRight:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next column")),
		focusUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "prev card")),
		focusDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next card")),
		openCard:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open card")),
		clearFocus:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		search:          key.NewBinding(key.WithKeys("ctrl+k", "super+k"), key.WithHelp("ctrl+k", "search")),
		deleteCard:      key.NewBinding(key.WithKeys("ctrl+delete", "ctrl+backspace", "super+delete", "super+backspace"), key.WithHelp("ctrl+del", "delete card")),
		newCard:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
		editCard:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit card")),
		moveCardLeft:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move card left")),
		moveCardRight:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move card right")),
		moveColumnLeft:  key.NewBinding(key.WithKeys("H", "shift+h"), key.WithHelp("H", "column left")),
		moveColumnRight: key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "column right")),
		copyRef:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy ref")),
		nextBoard:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "next board")),
	}
}

// applyConfig replaces the configurable bindings. Blank values keep the current keys.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.search, cfg.Search, "", "search")
	configureBinding(&k.deleteCard, cfg.Delete, "", "delete card")
	configureBinding(&k.newCard, cfg.NewCard, "", "new card")
	configureBinding(&k.copyRef, cfg.Copy, "", "copy ref")
	configureBinding(&k.moveCardLeft, cfg.MoveLeft, "", "move card left")
	configureBinding(&k.moveCardRight, cfg.MoveRight, "", "move card right")
}

// configureBinding rewrites one binding from a configured key.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	if len(keys) == 0 {
		return
	}
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher strings and help text.
// Single uppercase runes also match their shift+ form.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	value := strings.TrimSpace(raw)
	if raw == " " {
		value = " "
	}
	if value == "" {
		value = fallback
	}
	if value == "" {
		return nil, ""
	}
	if strings.EqualFold(value, "space") || value == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + string(unicode.ToLower(r))}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.search, k.newCard, k.openCard, k.moveCardLeft, k.moveCardRight, k.deleteCard, k.toggleHelp, k.quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.focusLeft, k.focusRight, k.focusUp, k.focusDown, k.openCard, k.clearFocus},
		{k.search, k.newCard, k.editCard, k.deleteCard, k.copyRef},
		{k.moveCardLeft, k.moveCardRight, k.moveColumnLeft, k.moveColumnRight},
		{k.nextBoard, k.reload, k.toggleHelp, k.quit},
	}
}
