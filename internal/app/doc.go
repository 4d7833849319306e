// Package app is the composition root for contrail.
//
// # Overview
//
// Run loads configuration, builds the internal logger, picks the record
// interpreter, opens every log source, and hands the assembled viewer to the
// UI. It returns once the user quits or the context is cancelled and the
// source workers have been asked to stop.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        file, CONTRAIL_* env, flags
//	       ├─────> logging.New()        debug sink + optional log file
//	       ├─────> interp.ByName()      plain, text, json, logcat, auto
//	       ├─────> source.New()         one adapter per source
//	       ├─────> ingest.NewBridge()   one worker per source
//	       ├─────> viewer.New()         store, filter, navigation
//	       └─────> ui.Run()             Bubble Tea loop (blocks)
//
//	Worker goroutines                    UI goroutine
//	┌──────────────────────┐             ┌────────────────────────┐
//	│ Source.Poll()        │  handoff    │ drain tick             │
//	│  └─> Interpreter     ├────────────>│  └─> Viewer.Drain()    │
//	│      .Parse()        │  channel    │      store + filter    │
//	└──────────────────────┘             └────────────────────────┘
//
// # Sources
//
// Configured sources come first, followed by the command line: positional
// files, --dir, --exec, and stdin when it is a pipe. With the logcat format
// every source without its own record_start groups "logcat -v long" blocks.
//
// # Preferences
//
// Saved wrap and detail settings override the config file. Flags passed on
// the current run override both.
//
// # Shutdown
//
// When the UI exits, the bridge's stop signal is set and Run waits a bounded
// time for workers to release their sources. A worker that misses the bound
// is logged and reported as ingest.ErrShutdownTimeout.
package app
