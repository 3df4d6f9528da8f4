// Package logger provides logging facilities for the gitfilesync application.
//
// Two audiences are served by one Logger. Progress lines and warnings meant
// for the person watching the terminal go to stdout/stderr, while a
// structured debug log (log/slog text handler) is appended to a file when
// debug logging is enabled.
//
// # Message Types
//
//   - Info, Warning, Error: debug log (Warning also reaches stdout in verbose mode,
//     Error always reaches stderr)
//   - WarningToUser: debug log and stdout, emoji-prefixed
//   - StatusMessage: stdout only, printed verbatim
//
// StatusMessage is what the sync loop uses for its fixed progress lines
// ("Found changes, pushing!") so scripts can match them exactly.
//
// # Usage
//
//	log := logger.New(logger.Options{
//	    Enabled: cfg.Debug,
//	    LogFile: cfg.LogFile,
//	    Verbose: cfg.Verbose,
//	    Attrs:   []slog.Attr{slog.String("repo", cfg.RepoPath)},
//	})
//	defer log.Close()
//
//	log.StatusMessage("Found remote changes, pulling!")
//	log.Warning("fetch failed: %v", err)
package logger
