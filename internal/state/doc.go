// Package state owns the document being edited.
//
// # Overview
//
// DocumentStore is the single place the current Document changes. The UI,
// the autosave coordinator, the loader and the cross-process sync loop all
// mutate it through its methods and read it through Snapshot.
//
//	Producers:                      Consumers:
//	┌──────────────────┐           ┌──────────────────┐
//	│ ui: SetContent   │           │ autosave         │
//	│ loader: Load...  │──mutate──→│ (Subscribe)      │
//	│ sync: Handle...  │  (mutex)  │ ui: Snapshot()   │
//	└──────────────────┘           └──────────────────┘
//	         │
//	         └── temporary subset ──→ storage.Store ("editer-document-storage")
//
// # Document Kinds
//
// A document is either temporary (only in the local store) or persisted
// (addressed by a remote id on the server). LoadSavedDocument and Promote
// make it persisted; CreateTemporaryDocument and Reset make it temporary.
//
// # Persistence
//
// Every mutation of a temporary document writes
// {content, isTemporaryDocument, hasUnsavedChanges, origin} through the
// Persistence port. Persisted documents are never written locally because the
// server owns them, and LoadSavedDocument and Promote delete the draft they
// replace. SyncFromStorage is not written back since its data came
// from the store in the first place.
//
// Writes are serialized in mutation order. A failed write sets
// Document.StorageError and nothing else: editing continues in memory.
//
// # Cross-Process Sync
//
// Other editer processes sharing the store publish their writes. The app
// feeds those payloads to HandleStorageEvent, which treats them as untrusted:
//
//   - unparseable payloads are dropped
//   - payloads carrying this process's origin are dropped
//   - only temporary documents with a content field are applied
//   - SyncFromStorage itself refuses to touch a persisted document
//
// # Observers
//
// Subscribe delivers a Change after each mutation, tagged with its Cause.
// Callbacks run on the mutating goroutine after the state lock is released,
// so they may call back into the store.
package state
