package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// requireGit skips the test when no git executable is available.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not found in PATH")
	}
}

// runGit runs git in dir with a hermetic environment and returns its trimmed stdout.
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_TERMINAL_PROMPT=0",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func configureUser(t *testing.T, dir string) {
	t.Helper()
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// testRemote is a bare repository on branch main plus a seeding clone.
type testRemote struct {
	bare string
	seed string
}

// setupTestRemote creates a bare repository with one commit on main.
func setupTestRemote(t *testing.T) *testRemote {
	t.Helper()
	requireGit(t)

	root := t.TempDir()
	bare := filepath.Join(root, "remote.git")
	seed := filepath.Join(root, "seed")

	runGit(t, root, "init", "-q", "--bare", bare)
	runGit(t, bare, "symbolic-ref", "HEAD", "refs/heads/main")

	runGit(t, root, "init", "-q", seed)
	runGit(t, seed, "checkout", "-q", "-b", "main")
	configureUser(t, seed)
	writeFile(t, seed, "initial.txt", "Initial content")
	runGit(t, seed, "add", "initial.txt")
	runGit(t, seed, "commit", "-q", "-m", "Initial commit")
	runGit(t, seed, "remote", "add", "origin", bare)
	runGit(t, seed, "push", "-q", "origin", "main")

	return &testRemote{bare: bare, seed: seed}
}

// clone creates a configured working copy of the remote.
func (r *testRemote) clone(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "clone")
	runGit(t, filepath.Dir(dir), "clone", "-q", r.bare, dir)
	configureUser(t, dir)
	return dir
}

// commitUpstream pushes a new commit to the remote from the seed clone.
func (r *testRemote) commitUpstream(t *testing.T, name, content string) {
	t.Helper()
	runGit(t, r.seed, "pull", "-q", "--no-rebase", "--no-edit", "origin", "main")
	writeFile(t, r.seed, name, content)
	runGit(t, r.seed, "add", "--all")
	runGit(t, r.seed, "commit", "-q", "-m", "upstream "+name)
	runGit(t, r.seed, "push", "-q", "origin", "main")
}

func openRepository(t *testing.T, dir string) Repository {
	t.Helper()
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatalf("NewRepository(%q) failed: %v", dir, err)
	}
	return repo
}

// backendClients returns a client for each backend bound to dir.
func backendClients(t *testing.T, dir string) map[string]Client {
	t.Helper()
	repo := openRepository(t, dir)
	return map[string]Client{
		BackendCLI:   NewCLIClient(repo),
		BackendGoGit: NewGoGitClient(repo),
	}
}
