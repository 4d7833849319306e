package main

import "testing"

func TestRootCmdDefinesConfigFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{
		"config", "prefs", "dir", "pattern", "exec", "record-start", "from-start",
		"format", "filter", "capacity", "detail", "wrap", "debug", "poll",
		"check-interval", "log-level", "log-file",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("flag --%s is not defined", name)
		}
	}
}

func TestRootCmdFlagsStartUnchanged(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--wrap", "app.log"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if !cmd.Flags().Changed("wrap") {
		t.Fatalf("--wrap not marked changed")
	}
	if cmd.Flags().Changed("detail") {
		t.Fatalf("--detail marked changed without being passed")
	}
	if got := cmd.Flags().Args(); len(got) != 1 || got[0] != "app.log" {
		t.Fatalf("positional args = %v, want [app.log]", got)
	}
}
