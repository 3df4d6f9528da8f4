// Package config provides configuration handling for the gitfilesync application.
//
// This package manages all configuration parameters for gitfilesync: default
// values, environment variables and command-line flags. Finalize checks the
// result and fills in derived values before it is used.
//
// # Configuration Sources
//
// Configuration values are loaded with the following precedence:
//
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Default values (lowest priority)
//
// # Environment Variables
//
//	REPO_PATH        Path to repository (default: current directory)
//	INTERVAL         Pause between passes, e.g. "1s" or "2m" (default: 1s)
//	COMMIT_MESSAGE   Commit message override (default: "commit from <user.name>")
//	MESSAGE_POLICY   "user" or "static" (default: user)
//	BACKEND          "cli" or "gogit" (default: cli)
//	GIT_COMMAND      Command used to run git (default: git)
//	WATCH            Start a pass when files change (default: false)
//	PUSH_PENDING     Push commits left by a failed push (default: true)
//	BACKOFF          Back off after failed passes (default: false)
//	MAX_BACKOFF      Longest pause when backing off (default: 1m)
//	MAX_RETRIES      Max consecutive identical errors before exiting (default: 0, unlimited)
//	MAX_ITERATIONS   Stop after this many passes (default: 0, unlimited)
//	VERBOSE          Show informational warnings (default: true)
//	DEBUG            Enable debug logging (default: false)
//	LOG_FILE         Path to log file (default: $XDG_DATA_HOME/gitfilesync/logs/gitfilesync-<hash>.log)
//	NO_LOCK          Disable the single-instance lock (default: false)
//
// # Usage
//
// Flags are bound on a pflag.FlagSet, normally the one of the cobra root command:
//
//	cfg := config.New()
//	cfg.LoadFromEnvironment()
//	cfg.BindFlags(cmd.Flags())
//
//	// after the command line has been parsed
//	cfg.ApplyFlags()
//	if err := cfg.Finalize(); err != nil {
//	    // Handle error
//	}
//
// # Thread Safety
//
// Config is not safe for concurrent modification. It is loaded at startup
// and only read afterwards.
package config
