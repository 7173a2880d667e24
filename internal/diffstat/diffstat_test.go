package diffstat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFileDiff = `diff --git a/main.go b/main.go
index 83db48f..bf269f4 100644
--- a/main.go
+++ b/main.go
@@ -1,2 +1,4 @@
 package main
-import "fmt"
+import (
+	"fmt"
+)
diff --git a/README.md b/README.md
new file mode 100644
--- /dev/null
+++ b/README.md
@@ -0,0 +1,2 @@
+# title
+body
`

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want Stats
	}{
		{"empty", "", Stats{}},
		{"whitespace only", "\n \n", Stats{}},
		{"two files", twoFileDiff, Stats{Files: []string{"main.go", "README.md"}, Insertions: 5, Deletions: 1}},
		{
			"deleted file uses minus path",
			"--- a/old.txt\n+++ /dev/null\n@@ -1,2 +0,0 @@\n-one\n-two\n",
			Stats{Files: []string{"old.txt"}, Deletions: 2},
		},
		{
			"no newline marker ignored",
			"diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n\\ No newline at end of file\n+b\n\\ No newline at end of file\n",
			Stats{Files: []string{"x"}, Insertions: 1, Deletions: 1},
		},
		{
			"headerless lines use prefix rule",
			"+added\n-removed\n context\n",
			Stats{Insertions: 1, Deletions: 1},
		},
		{
			"renamed file keeps post-image path",
			"diff --git a/old.go b/new.go\nsimilarity index 100%\nrename from old.go\nrename to new.go\n",
			Stats{Files: []string{"new.go"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.diff)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_DeduplicatesFilesInFirstSeenOrder(t *testing.T) {
	diff := twoFileDiff + "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -10,1 +10,1 @@\n-x\n+y\n"

	got, err := Extract(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "README.md"}, got.Files)
	assert.Equal(t, 6, got.Insertions)
	assert.Equal(t, 2, got.Deletions)
}

func TestExtract_ContentLinesLookingLikeHeaders(t *testing.T) {
	// Inside a hunk, "+++" and "---" are content lines with a doubled prefix.
	diff := "diff --git a/a.md b/a.md\n--- a/a.md\n+++ b/a.md\n@@ -1,1 +1,1 @@\n---- rule\n++++ rule\n"

	got, err := Extract(diff)
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: []string{"a.md"}, Insertions: 1, Deletions: 1}, got)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		diff string
		line int
	}{
		{"bad hunk header", "diff --git a/x b/x\n@@ nonsense @@\n+a\n", 2},
		{"non numeric range", "diff --git a/x b/x\n@@ -a,1 +1,1 @@\n", 2},
		{"truncated hunk", "diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -1,3 +1,3 @@\n a\n", 5},
		{"hunk overruns header", "diff --git a/x b/x\n@@ -1,1 +1,1 @@\n-a\n-c\n+b\n", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.diff)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestStats_Empty(t *testing.T) {
	assert.True(t, Stats{}.Empty())
	assert.False(t, Stats{Files: []string{"a"}}.Empty())
}
