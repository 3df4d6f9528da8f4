package git

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]struct {
		output string
		want   []StatusEntry
	}{
		"Empty": {
			output: "",
			want:   nil,
		},
		"ModifiedAndUntracked": {
			output: " M README.md\n?? notes/todo.txt\n",
			want: []StatusEntry{
				{Index: ' ', Worktree: 'M', Path: "README.md"},
				{Index: '?', Worktree: '?', Path: "notes/todo.txt"},
			},
		},
		"StagedDeletion": {
			output: "D  old.txt",
			want:   []StatusEntry{{Index: 'D', Worktree: ' ', Path: "old.txt"}},
		},
		"Rename": {
			output: "R  a.txt -> b.txt\n",
			want:   []StatusEntry{{Index: 'R', Worktree: ' ', Path: "b.txt", OrigPath: "a.txt"}},
		},
		"QuotedRenameContainingArrow": {
			output: `R  "x -> y.txt" -> "z.txt"`,
			want:   []StatusEntry{{Index: 'R', Worktree: ' ', Path: "z.txt", OrigPath: "x -> y.txt"}},
		},
		"QuotedPathWithSpaceAndOctal": {
			output: `?? "caf\303\251 menu.txt"`,
			want:   []StatusEntry{{Index: '?', Worktree: '?', Path: "café menu.txt"}},
		},
		"Conflict": {
			output: "UU shared.txt\r\n",
			want:   []StatusEntry{{Index: 'U', Worktree: 'U', Path: "shared.txt"}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			status, err := ParseStatus(tc.output)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, status.Entries); diff != "" {
				t.Errorf("ParseStatus() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStatusMalformed(t *testing.T) {
	tests := map[string]string{
		"TooShort":        "M",
		"MissingSpace":    "MMfile.txt",
		"BadQuotedPath":   `?? "unterminated`,
		"BadQuotedOrigin": `R  "a\q" -> b.txt`,
	}

	for name, output := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStatus(output)
			assert.Error(t, err)
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	status, err := ParseStatus("UU both.txt\nAA added.txt\n M changed.txt\n?? new.txt\n")
	require.NoError(t, err)

	assert.True(t, status.Dirty())
	assert.Equal(t, []string{"both.txt", "added.txt"}, status.Conflicted())
	assert.Equal(t, []string{"new.txt"}, status.Untracked())
	assert.False(t, Status{}.Dirty())
	assert.Equal(t, "UU both.txt", status.Entries[0].String())
	assert.Equal(t, "R  a -> b", StatusEntry{Index: 'R', Worktree: ' ', Path: "b", OrigPath: "a"}.String())
}
