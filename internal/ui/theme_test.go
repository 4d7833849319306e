package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestThemesDefineLevelAndStatusColors(t *testing.T) {
	levels := []string{"TRACE", "DEBUG", "INFO", "NOTICE", "WARN", "ERROR", "FATAL"}
	statuses := []string{"live", "offline", "done", "failed"}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, l := range levels {
			if th.LevelColors[l] == "" {
				t.Fatalf("%s: no color for level %s", name, l)
			}
		}
		for _, s := range statuses {
			if th.StatusColors[s] == "" {
				t.Fatalf("%s: no color for status %s", name, s)
			}
		}
	}
}

func TestLevelStyleFallsBackToText(t *testing.T) {
	th := GetTheme("Nightfox")
	styles := th.Styles()

	if got := styles.LevelStyle(" warn ").GetForeground(); got != styles.LevelStyle("WARN").GetForeground() {
		t.Fatalf("LevelStyle is not case and space insensitive")
	}
	if got := styles.LevelStyle("").GetForeground(); got != styles.Text.GetForeground() {
		t.Fatalf("LevelStyle(\"\") foreground = %v, want text color", got)
	}
	if !styles.LevelStyle("error").GetBold() {
		t.Fatalf("LevelStyle(error) is not bold")
	}
}
