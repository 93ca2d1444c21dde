package render

import "testing"

func TestGetTUIThemeByName(t *testing.T) {
	for _, name := range TUIThemeNames() {
		theme, ok := GetTUIThemeByName(name)
		if !ok {
			t.Errorf("theme %q not found", name)
			continue
		}
		if theme.Name != name {
			t.Errorf("theme name = %q, want %q", theme.Name, name)
		}
		if !IsBuiltinStyle(theme.MarkdownStyle) {
			t.Errorf("theme %q uses unknown markdown style %q", name, theme.MarkdownStyle)
		}
		if theme.User == "" || theme.Assistant == "" {
			t.Errorf("theme %q missing role colors", name)
		}
	}

	if _, ok := GetTUIThemeByName("nope"); ok {
		t.Error("unknown theme should not be found")
	}
}

func TestResolveTUITheme(t *testing.T) {
	if got := ResolveTUITheme("dracula").Name; got != "dracula" {
		t.Errorf("ResolveTUITheme(dracula) = %q", got)
	}
	if got := ResolveTUITheme("missing").Name; got != DefaultTUITheme {
		t.Errorf("ResolveTUITheme(missing) = %q, want default", got)
	}
}

func TestTUIThemeNamesSorted(t *testing.T) {
	names := TUIThemeNames()
	want := []string{"dracula", "light", "tokyonight"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
