// Package constants holds the fixed strings of the gitfilesync application:
// the banner shown by -logo and the progress and diagnostic lines printed
// by the sync loop.
//
// The progress lines are part of the tool's observable interface. Wrapper
// scripts match on them, so they are printed verbatim and must not change.
package constants
