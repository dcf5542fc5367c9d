// Package logtail reads the tail of editer's log file.
//
// The editor owns the terminal while it runs, so diagnostics (failed saves,
// storage errors, sync resubscriptions) go to a log file instead. `editer
// -logs N` prints the last N lines through this package, optionally keeping
// only entries at or above a level.
//
// Read uses a ring buffer, so it scans the file once and holds at most N
// lines regardless of file size. Filter understands the level tokens written
// by the charmbracelet/log text formatter (DEBU, INFO, WARN, ERRO, FATA).
package logtail
