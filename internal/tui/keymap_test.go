package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
	"github.com/google/go-cmp/cmp"
)

func TestParseBindingKeys(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		fallback string
		wantKeys []string
		wantHelp string
	}{
		{name: "space aliases", raw: "space", fallback: ".", wantKeys: []string{" ", "space"}, wantHelp: "space"},
		{name: "uppercase rune includes shift alias", raw: "Z", fallback: "z", wantKeys: []string{"Z", "shift+z"}, wantHelp: "Z"},
		{name: "multi rune lowercases matcher", raw: "Ctrl+K", fallback: "k", wantKeys: []string{"ctrl+k"}, wantHelp: "Ctrl+K"},
		{name: "blank uses fallback", raw: "", fallback: "x", wantKeys: []string{"x"}, wantHelp: "x"},
		{name: "blank without fallback", raw: "  ", fallback: "", wantKeys: nil, wantHelp: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keys, help := parseBindingKeys(tc.raw, tc.fallback)
			if diff := cmp.Diff(tc.wantKeys, keys); diff != "" {
				t.Fatalf("keys mismatch (-want +got):\n%s", diff)
			}
			if help != tc.wantHelp {
				t.Fatalf("unexpected help text %q", help)
			}
		})
	}
}

func TestConfigureBinding(t *testing.T) {
	b := key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "old"))
	configureBinding(&b, "c", "y", "copy ref")
	if diff := cmp.Diff([]string{"c"}, b.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if b.Help().Key != "c" || b.Help().Desc != "copy ref" {
		t.Fatalf("unexpected configured help %#v", b.Help())
	}

	configureBinding(&b, "", "", "ignored")
	if b.Help().Desc != "copy ref" {
		t.Fatalf("expected blank override to keep binding, got %#v", b.Help())
	}
}

func TestKeyMapApplyConfig(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{
		Search:    "ctrl+f",
		Delete:    "X",
		NewCard:   "a",
		MoveRight: ">",
	})
	assertKeys := func(name string, binding key.Binding, expected ...string) {
		t.Helper()
		if diff := cmp.Diff(expected, binding.Keys()); diff != "" {
			t.Fatalf("%s keys mismatch (-want +got):\n%s", name, diff)
		}
	}
	assertKeys("search", k.search, "ctrl+f")
	assertKeys("delete", k.deleteCard, "X", "shift+x")
	assertKeys("new card", k.newCard, "a")
	assertKeys("move right", k.moveCardRight, ">")
	assertKeys("move left", k.moveCardLeft, "[")
	assertKeys("copy", k.copyRef, "y")
}

func TestKeyMapHelpGroups(t *testing.T) {
	k := newKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
	if groups := k.FullHelp(); len(groups) != 4 {
		t.Fatalf("expected 4 help groups, got %d", len(groups))
	}
}
