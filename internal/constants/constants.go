package constants

// Logo is the ASCII banner printed by -logo.
const Logo = `
        _ _    __ _ _                            
   __ _(_) |_ / _(_) | ___  ___ _   _ _ __   ___ 
  / _' | | __| |_| | |/ _ \/ __| | | | '_ \ / __|
 | (_| | | |_|  _| | |  __/\__ \ |_| | | | | (__ 
  \__, |_|\__|_| |_|_|\___||___/\__, |_| |_|\___|
  |___/                         |___/            `

// Tagline is printed centered under the Logo.
const Tagline = "pull what's new, push what's yours, every second"

// Progress and diagnostic lines.
const (
	MsgNotRepository    = "Not a git repo, exiting"
	MsgNoRemote         = "No available remote repo, exiting"
	MsgPullingRemote    = "Found remote changes, pulling!"
	MsgPushingChanges   = "Found changes, pushing!"
	MsgPushingUnpushed  = "Found unpushed commits, pushing!"
	StaticCommitMessage = "not useful"
	CommitMessagePrefix = "commit from "
)

// DefaultRemote is the only remote the sync loop talks to.
const DefaultRemote = "origin"
