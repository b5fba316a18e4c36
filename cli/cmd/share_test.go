package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ponyo877/lanshare/cli/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# notes\n"), 0o644))

	tests := []struct {
		name     string
		args     []string
		file     string
		stdin    string
		wantName string
		wantText string
		wantErr  bool
	}{
		{name: "file wins", args: []string{"ignored"}, file: path, wantName: "notes.md", wantText: "# notes\n"},
		{name: "args", args: []string{"hello", "world"}, stdin: "ignored", wantName: "snippet.txt", wantText: "hello world"},
		{name: "stdin", stdin: "piped\n", wantName: "stdin.txt", wantText: "piped\n"},
		{name: "empty stdin", wantErr: true},
		{name: "missing file", file: filepath.Join(dir, "missing"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, text, err := shareContent(tt.args, tt.file, strings.NewReader(tt.stdin))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestCheckSnippetSize(t *testing.T) {
	assert.NoError(t, checkSnippetSize("small", 1024))
	assert.NoError(t, checkSnippetSize(strings.Repeat("x", 1024), 1024))
	assert.ErrorIs(t, checkSnippetSize(strings.Repeat("x", 1025), 1024), client.ErrTooLarge)
	assert.NoError(t, checkSnippetSize(strings.Repeat("x", 1025), 0))
}
