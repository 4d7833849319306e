// Package ui provides the terminal interface for contrail.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model is its root state and wraps a
// viewer.Viewer, which owns the entry store, the filter and the navigation
// state. Bubble Tea delivers every message on one goroutine, so the Viewer is
// never touched concurrently and needs no locking.
//
// Two timers drive the loop independently:
//
//   - the ingestion tick (tea.Tick at the configured source poll interval)
//     drains whatever the source workers have queued, without blocking
//   - the render rate (tea.WithFPS from the input tick) bounds how often
//     frames are drawn; key and mouse input is handled as it arrives
//
// # Layout
//
//	contrail  auto  app.log live  adb offline 2x ...   header
//	Space:Pause  /:Filter  [ ]:Detail  ...             command bar
//	╭─ Logs 812 ─────────────────────────────╮
//	│  811 │ 10:42:01.337 [WARN] disk low     │         logs
//	╰─────────────────────────────────────────╯
//	╭─ Details #811 ─────────────────────────╮         details
//	╰─────────────────────────────────────────╯
//	╭─ Debug ────────────────────────────────╮         debug (b)
//	╰─────────────────────────────────────────╯
//	FOLLOW • #811 812/812 • detail 2/3   Copied 1 entry   status bar
//
// The Details and Debug panels shrink or disappear on short terminals so the
// logs panel keeps its minimum height.
//
// # Package Structure
//
//   - app.go: Model, the update loop, layout composition and Run
//   - logs.go: the logs panel, movement keys and mouse handling
//   - panels.go: bordered boxes and the Details and Debug panels
//   - filter.go: the live filter prompt
//   - export.go: clipboard export
//   - header.go, status.go: the top two rows and the status bar
//   - keys.go, help.go: key bindings and the help overlay
//   - theme.go, style_helpers.go: colors and background-safe rendering
//
// # Preferences
//
// Theme, wrap and detail level are saved with the prefs package whenever
// they change. Save failures are logged and otherwise ignored.
package ui
