// Package app provides the orchestration layer for editer.
//
// # Overview
//
// This package wires together configuration, the local store, the document
// containers, autosave, cross-process sync and the UI. It is the composition
// root where all dependencies are initialized and connected.
//
// # Architecture
//
//  1. Load .env overrides, then the TOML config from ~/.config/editer
//  2. Open the log file; the terminal belongs to the editor
//  3. Open the local store backend (file, redis or memory)
//  4. Build the document and settings containers and rehydrate them
//  5. Start autosave and the sync loop
//  6. Run the TUI, which loads the requested document, until the user quits
//  7. Stop autosave (waiting for an in-flight save) and print where the
//     text went
//
// # Components
//
//   - app.go: Run, dependency wiring, backend selection and exit summary
//   - sync.go: background loop applying drafts written by other sessions
//   - logs.go: PrintLogs for `editer -logs N`
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read config + EDITER_* env
//	       ├─────> openBackend()          file / redis / memory
//	       ├─────> wire()                 containers, autosave, loader, share
//	       ├─────> StartSync()            Subscribe to the draft key
//	       └─────> ui.Run()               Start TUI (blocks)
//
//	Sync Loop:
//	┌─────────────────────────────────────────┐
//	│ StartSync() goroutine                   │
//	│  ├─> store.Subscribe(draft key)         │
//	│  ├─> docs.HandleStorageEvent()          │
//	│  └─> resubscribe with backoff on loss   │
//	└─────────────────────────────────────────┘
//
// # Sync Behavior
//
// Writes made by this process carry its origin id and are ignored, as are
// persisted documents. A closed feed or failed subscribe is retried after
// one second, doubling up to 30 seconds. Backends without a change feed end
// the loop immediately; editing keeps working without cross-process sync.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid config, unknown store backend, bad API URL
//   - The log file or store backend cannot be opened
//
// Recoverable errors (logged and surfaced in the UI):
//   - Local store reads and writes
//   - Document API failures during load and save
//   - Lost change feeds
package app
