// Package syncloop implements the gitfilesync synchronization loop.
//
// A Syncer checks once that it is pointed at a repository with a remote,
// fixes the commit message for the session, and then repeats the same
// iteration until it is stopped:
//
//  1. Resolve the current branch (a detached HEAD skips the iteration).
//  2. Fetch origin and count the commits on each side of origin/<branch>.
//     When behind, print "Found remote changes, pulling!" and pull.
//  3. When the working tree is dirty, print "Found changes, pushing!",
//     stage everything, commit and push.
//  4. When the tree is clean but local commits are still unpushed, print
//     "Found unpushed commits, pushing!" and push them.
//
// # Usage
//
//	syncer, err := syncloop.NewSyncer(syncloop.Config{
//	    Interval:      time.Second,
//	    MessagePolicy: syncloop.PolicyUser,
//	    PushPending:   true,
//	}, client, logger)
//	if err != nil {
//	    // Handle error
//	}
//	if err := syncer.Preflight(ctx); err != nil {
//	    // Not a repository or no remote; the diagnostic is already printed
//	}
//	err = syncer.Run(ctx)
//	syncer.PrintSummary()
//
// # Error Handling
//
// Failures inside an iteration are reported and the loop carries on. A
// fetch failure is not mistaken for "nothing to pull": the comparison and
// pull are skipped for that iteration while local changes are still
// committed. Merge conflicts left by a pull are reported as warnings and
// committed as they are on a later pass.
//
// The loop stops when the same error repeats more than MaxRetries times
// in a row (0 retries indefinitely). With Backoff enabled the pause after
// a failed iteration doubles up to MaxBackoff.
//
// # Scheduling
//
// Iterations are sequential. The pause between them runs on an injected
// clockwork.Clock, so tests drive the loop with a fake clock. An optional
// trigger channel, fed by the watch package, ends a pause early.
package syncloop
