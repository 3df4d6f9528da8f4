package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
	"github.com/bashhack/gitfilesync/internal/git"
	"github.com/bashhack/gitfilesync/internal/syncloop"
)

const (
	// DefaultInterval is the pause between synchronization passes.
	DefaultInterval = time.Second

	// DefaultMaxBackoff caps the pause after repeated failures when backoff is enabled.
	DefaultMaxBackoff = time.Minute

	// DefaultMaxRetries is the default number of consecutive identical errors
	// allowed before gitfilesync exits. A value of 0 means retry indefinitely.
	DefaultMaxRetries = 0
)

// Config holds all gitfilesync application settings.
// Values come from defaults, then environment variables, then command-line flags.
type Config struct {
	// Repository configuration

	// RepoPath is the path to the working copy to synchronize.
	// If empty, the current working directory is used.
	RepoPath string

	// Interval is the pause between synchronization passes.
	Interval time.Duration

	// Commit configuration

	// MessagePolicy is "user" (override or "commit from <user.name>") or "static" ("not useful").
	MessagePolicy string

	// CommitMessage, when set, is used verbatim under the "user" policy.
	CommitMessage string

	// Git access

	// Backend selects the git implementation: "cli" or "gogit".
	Backend string

	// GitCommand is the command line used to invoke git for the "cli" backend.
	GitCommand string

	// Loop behavior

	// Watch wakes the loop early when files in the working tree change.
	Watch bool

	// PushPending pushes commits left behind by an earlier failed push.
	PushPending bool

	// Backoff grows the pause exponentially after failed passes.
	Backoff bool

	// MaxBackoff caps the pause when Backoff is enabled.
	MaxBackoff time.Duration

	// MaxRetries defines how many consecutive identical errors are allowed before exiting.
	// A value of 0 means retry indefinitely.
	MaxRetries int

	// MaxIterations stops after that many passes. A value of 0 means run until stopped.
	MaxIterations int

	// Output and debugging

	// Verbose echoes internal warnings to stdout.
	Verbose bool

	// Debug enables the structured debug log file.
	Debug bool

	// LogFile specifies where to write debug logs.
	// If empty, a per-repository file under the XDG data directory is used.
	LogFile string

	// NoLock disables the single-instance lock.
	NoLock bool

	// Special flags

	// Version indicates whether to show version information and exit.
	Version bool

	// ShowLogo indicates whether to display the ASCII logo and exit.
	ShowLogo bool

	// VersionInfo contains version, commit, and build date information.
	// This is typically injected at build time.
	VersionInfo VersionInfo

	// ParsedQuiet tracks the state of the --quiet flag until ApplyFlags inverts it into Verbose.
	ParsedQuiet *bool
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	// Version is the semantic version number (e.g., "v1.2.3").
	Version string

	// Commit is the Git commit hash from which the binary was built.
	Commit string

	// Date is the build timestamp in human-readable format.
	Date string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Interval:      DefaultInterval,
		MessagePolicy: syncloop.PolicyUser,
		Backend:       git.BackendCLI,
		GitCommand:    "git",
		PushPending:   true,
		MaxBackoff:    DefaultMaxBackoff,
		MaxRetries:    DefaultMaxRetries,
		Verbose:       true,

		// Default version info, will be overridden if provided
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// LoadFromEnvironment updates config from environment variables
func (c *Config) LoadFromEnvironment() {
	c.RepoPath = getEnvString("REPO_PATH", c.RepoPath)
	c.Interval = getEnvDuration("INTERVAL", c.Interval)
	c.CommitMessage = getEnvString("COMMIT_MESSAGE", c.CommitMessage)
	c.MessagePolicy = getEnvString("MESSAGE_POLICY", c.MessagePolicy)
	c.Backend = getEnvString("BACKEND", c.Backend)
	c.GitCommand = getEnvString("GIT_COMMAND", c.GitCommand)
	c.Watch = getEnvBool("WATCH", c.Watch)
	c.PushPending = getEnvBool("PUSH_PENDING", c.PushPending)
	c.Backoff = getEnvBool("BACKOFF", c.Backoff)
	c.MaxBackoff = getEnvDuration("MAX_BACKOFF", c.MaxBackoff)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	c.MaxIterations = getEnvInt("MAX_ITERATIONS", c.MaxIterations)
	c.Verbose = getEnvBool("VERBOSE", c.Verbose)
	c.Debug = getEnvBool("DEBUG", c.Debug)
	c.LogFile = getEnvString("LOG_FILE", c.LogFile)
	c.NoLock = getEnvBool("NO_LOCK", c.NoLock)
}

// BindFlags registers command-line flags that override config values.
// Call it after LoadFromEnvironment so the environment becomes the flag default.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	// Separate variable for the inverted flag
	var quiet bool

	fs.StringVar(&c.RepoPath, "repo", c.RepoPath, "Path to repository (default: current directory)")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "Pause between synchronization passes")
	fs.StringVarP(&c.CommitMessage, "message", "m", c.CommitMessage, "Commit message to use instead of \"commit from <user.name>\"")
	fs.StringVar(&c.MessagePolicy, "message-policy", c.MessagePolicy, "Commit message policy: user or static")
	fs.StringVar(&c.Backend, "backend", c.Backend, "Git implementation: cli or gogit")
	fs.StringVar(&c.GitCommand, "git", c.GitCommand, "Command used to run git (cli backend)")
	fs.BoolVar(&c.Watch, "watch", c.Watch, "Start a pass as soon as files change")
	fs.BoolVar(&c.PushPending, "push-pending", c.PushPending, "Push earlier commits that did not reach the remote")
	fs.BoolVar(&c.Backoff, "backoff", c.Backoff, "Wait longer after consecutive failures")
	fs.DurationVar(&c.MaxBackoff, "max-backoff", c.MaxBackoff, "Longest pause when --backoff is set")
	fs.IntVar(&c.MaxRetries, "max-retries", c.MaxRetries, "Maximum consecutive identical errors before quitting (0 = unlimited)")
	fs.IntVar(&c.MaxIterations, "max-iterations", c.MaxIterations, "Stop after this many passes (0 = run until stopped)")
	fs.BoolVarP(&quiet, "quiet", "q", !c.Verbose, "Hide informational warnings")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Path to log file (default: ~/.local/share/gitfilesync/logs/gitfilesync-{repo-hash}.log)")
	fs.BoolVar(&c.NoLock, "no-lock", c.NoLock, "Allow several instances on the same repository")
	fs.BoolVarP(&c.Version, "version", "v", c.Version, "Print version information and exit")
	fs.BoolVar(&c.ShowLogo, "logo", c.ShowLogo, "Display ASCII logo and exit")

	// Store the temporary value for later use after successful parsing
	c.ParsedQuiet = &quiet
}

// ApplyFlags applies inverted flags once parsing has succeeded.
func (c *Config) ApplyFlags() {
	if c.ParsedQuiet != nil {
		c.Verbose = !(*c.ParsedQuiet)
	}
}

// PrintUsage prints a formatted help message with examples and grouped flags
func (c *Config) PrintUsage(fs *pflag.FlagSet, w io.Writer) {
	programName := filepath.Base(os.Args[0])

	_, _ = fmt.Fprintf(w, "gitfilesync: keep a git working copy in sync with its remote\n\n")
	_, _ = fmt.Fprintf(w, "Usage: %s [options]\n\n", programName)
	_, _ = fmt.Fprintf(w, "gitfilesync fetches, pulls remote changes and commits and pushes local\n")
	_, _ = fmt.Fprintf(w, "changes, once per interval, until it is stopped.\n\n")

	_, _ = fmt.Fprintf(w, "Examples:\n")
	_, _ = fmt.Fprintf(w, "  %s                              # Sync the current directory every second\n", programName)
	_, _ = fmt.Fprintf(w, "  %s --repo ~/notes --interval 30s # Sync another repository every 30 seconds\n", programName)
	_, _ = fmt.Fprintf(w, "  %s -m \"laptop sync\"             # Use a fixed commit message\n", programName)
	_, _ = fmt.Fprintf(w, "  %s --watch --backoff             # React to edits, back off when offline\n\n", programName)

	_, _ = fmt.Fprintf(w, "Core Options:\n")
	printFlagIfExists(w, fs, "repo")
	printFlagIfExists(w, fs, "interval")
	printFlagIfExists(w, fs, "message")
	printFlagIfExists(w, fs, "message-policy")
	printFlagIfExists(w, fs, "watch")
	printFlagIfExists(w, fs, "push-pending")
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Git Options:\n")
	printFlagIfExists(w, fs, "backend")
	printFlagIfExists(w, fs, "git")
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Output Options:\n")
	printFlagIfExists(w, fs, "quiet")
	printFlagIfExists(w, fs, "debug")
	printFlagIfExists(w, fs, "log-file")
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Error Handling:\n")
	printFlagIfExists(w, fs, "max-retries")
	printFlagIfExists(w, fs, "backoff")
	printFlagIfExists(w, fs, "max-backoff")
	printFlagIfExists(w, fs, "max-iterations")
	printFlagIfExists(w, fs, "no-lock")
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Information:\n")
	printFlagIfExists(w, fs, "version")
	printFlagIfExists(w, fs, "logo")
	printFlagIfExists(w, fs, "help")
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Environment variables:\n")
	_, _ = fmt.Fprintf(w, "  REPO_PATH                 Path to repository\n")
	_, _ = fmt.Fprintf(w, "  INTERVAL                  Pause between passes (e.g. 1s, 2m)\n")
	_, _ = fmt.Fprintf(w, "  COMMIT_MESSAGE            Commit message override\n")
	_, _ = fmt.Fprintf(w, "  MESSAGE_POLICY            Commit message policy (user/static)\n")
	_, _ = fmt.Fprintf(w, "  BACKEND                   Git implementation (cli/gogit)\n")
	_, _ = fmt.Fprintf(w, "  GIT_COMMAND               Command used to run git\n")
	_, _ = fmt.Fprintf(w, "  WATCH                     Start a pass when files change (true/false)\n")
	_, _ = fmt.Fprintf(w, "  PUSH_PENDING              Push unpushed commits (true/false)\n")
	_, _ = fmt.Fprintf(w, "  BACKOFF                   Back off after failures (true/false)\n")
	_, _ = fmt.Fprintf(w, "  MAX_BACKOFF               Longest pause when backing off\n")
	_, _ = fmt.Fprintf(w, "  MAX_RETRIES               Maximum consecutive identical errors before quitting\n")
	_, _ = fmt.Fprintf(w, "  MAX_ITERATIONS            Stop after this many passes\n")
	_, _ = fmt.Fprintf(w, "  VERBOSE                   Show informational warnings (true/false)\n")
	_, _ = fmt.Fprintf(w, "  DEBUG                     Enable debug logging (true/false)\n")
	_, _ = fmt.Fprintf(w, "  LOG_FILE                  Path to log file\n")
	_, _ = fmt.Fprintf(w, "  NO_LOCK                   Disable the single-instance lock (true/false)\n")
}

// printFlagIfExists prints a flag's usage if it exists in the FlagSet
func printFlagIfExists(w io.Writer, fs *pflag.FlagSet, name string) {
	f := fs.Lookup(name)
	if f == nil {
		return
	}

	// Format: --flag (default: value): description
	defaultValue := f.DefValue
	if defaultValue != "" && f.Value.Type() != "bool" {
		defaultValue = fmt.Sprintf(" (default: %s)", defaultValue)
	} else {
		defaultValue = ""
	}

	shorthand := ""
	if f.Shorthand != "" {
		shorthand = fmt.Sprintf("-%s, ", f.Shorthand)
	}

	_, _ = fmt.Fprintf(w, "  %s--%s%s: %s\n", shorthand, f.Name, defaultValue, f.Usage)
}

// Finalize validates and finalizes the configuration
func (c *Config) Finalize() error {
	if c.Interval <= 0 {
		err := fmt.Errorf("invalid interval: %s (must be greater than 0)", c.Interval)
		return syncErrors.NewConfigError("interval", c.Interval, syncErrors.Wrap(syncErrors.ErrInvalidConfiguration, err.Error()))
	}

	if !slices.Contains(syncloop.Policies, c.MessagePolicy) {
		return syncErrors.NewConfigError("messagePolicy", c.MessagePolicy,
			syncErrors.Wrapf(syncErrors.ErrInvalidConfiguration, "expected one of %s", strings.Join(syncloop.Policies, ", ")))
	}

	if !slices.Contains(git.Backends, c.Backend) {
		return syncErrors.NewConfigError("backend", c.Backend,
			syncErrors.Wrapf(syncErrors.ErrInvalidConfiguration, "expected one of %s", strings.Join(git.Backends, ", ")))
	}

	if _, err := git.ParseCommand(c.GitCommand); err != nil {
		return err
	}

	if c.MaxRetries < 0 {
		return syncErrors.NewConfigError("maxRetries", c.MaxRetries,
			syncErrors.Wrap(syncErrors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.MaxIterations < 0 {
		return syncErrors.NewConfigError("maxIterations", c.MaxIterations,
			syncErrors.Wrap(syncErrors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.Backoff && c.MaxBackoff < c.Interval {
		return syncErrors.NewConfigError("maxBackoff", c.MaxBackoff,
			syncErrors.Wrapf(syncErrors.ErrInvalidConfiguration, "must be at least the interval (%s)", c.Interval))
	}

	if c.RepoPath == "" {
		var err error
		c.RepoPath, err = os.Getwd()
		if err != nil {
			return syncErrors.NewConfigError("repoPath", "", syncErrors.Wrap(err, "failed to get current directory"))
		}
	}

	absRepoPath, err := filepath.Abs(c.RepoPath)
	if err != nil {
		return syncErrors.NewConfigError("repoPath", c.RepoPath, syncErrors.Wrap(err, "failed to resolve absolute path"))
	}
	c.RepoPath = absRepoPath

	if c.LogFile == "" {
		repoHash := fmt.Sprintf("%x", sha256OfString(c.RepoPath)[:8])

		// Follows the XDG Base Directory Specification. The logger creates
		// the directory only when debug logging is enabled.
		c.LogFile = filepath.Join(xdg.DataHome, "gitfilesync", "logs", fmt.Sprintf("gitfilesync-%s.log", repoHash))
	}

	return nil
}

// SyncConfig returns the loop settings carried by c.
func (c *Config) SyncConfig() syncloop.Config {
	return syncloop.Config{
		Interval:      c.Interval,
		MessagePolicy: c.MessagePolicy,
		CommitMessage: c.CommitMessage,
		PushPending:   c.PushPending,
		MaxRetries:    c.MaxRetries,
		MaxIterations: c.MaxIterations,
		Backoff:       c.Backoff,
		MaxBackoff:    c.MaxBackoff,
	}
}

// GitOptions returns the client settings carried by c.
func (c *Config) GitOptions() git.Options {
	return git.Options{
		Backend:    c.Backend,
		GitCommand: c.GitCommand,
	}
}

// getEnvString returns an environment variable string or a default value
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or a default value
func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvDuration returns an environment variable as a duration or a default value.
// Bare numbers are read as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
		if seconds, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		valueLower := strings.ToLower(valueStr)
		if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
			return true
		}
		if valueLower == "false" || valueLower == "0" || valueLower == "no" {
			return false
		}
		// For any other value, fall back to default
	}
	return defaultValue
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
