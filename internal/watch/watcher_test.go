package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldIngest(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"notes.txt", true},
		{"README.md", true},
		{"NOTES.TXT", true},
		{"/abs/path/doc.md", true},
		{"image.png", false},
		{"archive.tar.gz", false},
		{"noextension", false},
		{".hidden.txt", false},
		{"/dir/.hidden.md", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldIngest(tt.path))
		})
	}
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "file:notes.txt", DocumentID("/some/dir/notes.txt"))
	assert.Equal(t, "file:notes.txt", DocumentID("notes.txt"))

	// Same file name yields the same ID regardless of directory.
	assert.Equal(t, DocumentID("/a/doc.md"), DocumentID("/b/doc.md"))
}
