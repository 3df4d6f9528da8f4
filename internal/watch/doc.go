// Package watch turns filesystem activity in a working tree into sync triggers.
//
// A Watcher registers every directory below the root with fsnotify, skipping
// the .git directory, and adds directories created later. Bursts of events
// are debounced into a single send on a channel with a buffer of one, so a
// slow consumer never blocks the watcher and never sees more than one
// pending trigger.
package watch
