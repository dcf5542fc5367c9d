// Package autosave saves the current document shortly after the user stops
// typing.
//
// The Coordinator watches edits on a state.DocumentStore and moves through
//
//	Idle ──edit──→ Pending ──timer──→ Saving ──done──→ Idle
//	                 ↑  │
//	                 └──┘ edit restarts the timer
//
// Only the content present when the timer fires is sent. A fire or a manual
// save while another save is running does nothing (ManualSave returns
// ErrSaveInFlight). Content equal to the last saved value is never sent.
//
// Temporary documents are saved to the local store. Persisted documents are
// updated on the server, or created first when they have no share id; after
// a create the address is rewritten to /edit/{id}.
//
// Failures are classified with the failure package, shown through the
// Notifier and leave the document dirty. There is no automatic retry: the
// next edit or ManualSave tries again.
package autosave
