package corpus

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func paths(scanned []ScannedFile, root string) []string {
	out := make([]string, 0, len(scanned))
	for _, sf := range scanned {
		rel, _ := filepath.Rel(root, sf.Path)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":             "alpha",
		"b.md":              "# ignored",
		"docs/c.pdf":        "%PDF",
		"docs/deep/d.txt":   "delta",
		".git/e.txt":        "hidden",
		"docs/.cache/f.txt": "hidden",
		"notes/Upper.TXT":   "extensions are case-sensitive",
		"notes/readme":      "no extension",
	})

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "single file",
			args: []string{filepath.Join(root, "a.txt")},
			want: []string{"a.txt"},
		},
		{
			name: "unsupported file is dropped",
			args: []string{filepath.Join(root, "b.md")},
			want: []string{},
		},
		{
			name: "directory is walked recursively without hidden dirs",
			args: []string{root},
			want: []string{"a.txt", "docs/c.pdf", "docs/deep/d.txt"},
		},
		{
			name: "doublestar glob",
			args: []string{filepath.Join(root, "docs", "**", "*.txt")},
			want: []string{"docs/deep/d.txt"},
		},
		{
			name: "glob skips hidden directories",
			args: []string{filepath.Join(root, "**", "*.txt")},
			want: []string{"a.txt", "docs/deep/d.txt"},
		},
		{
			name: "overlapping arguments are deduplicated",
			args: []string{filepath.Join(root, "a.txt"), root + string(filepath.Separator), filepath.Join(root, "*.txt")},
			want: []string{"a.txt", "docs/c.pdf", "docs/deep/d.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanned, err := Scan(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			got := paths(scanned, root)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScan_MissingPath(t *testing.T) {
	_, err := Scan(context.Background(), []string{filepath.Join(t.TempDir(), "missing.txt")})
	if err == nil {
		t.Fatal("Scan() error = nil, want error for missing path")
	}
}

func TestScan_NameAndSize(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"docs/a.txt": "12345"})

	scanned, err := Scan(context.Background(), []string{filepath.Join(root, "docs", "a.txt")})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(scanned) != 1 {
		t.Fatalf("Scan() returned %d files, want 1", len(scanned))
	}
	if scanned[0].Size != 5 {
		t.Errorf("Size = %d, want 5", scanned[0].Size)
	}
	if scanned[0].Name != filepath.ToSlash(scanned[0].Path) {
		t.Errorf("Name = %q, want slash form of %q", scanned[0].Name, scanned[0].Path)
	}
}

func TestRoots(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"docs/a.txt": "a"})
	docs := filepath.Join(root, "docs")

	got := Roots([]string{
		filepath.Join(docs, "a.txt"),
		docs,
		filepath.Join(root, "**", "*.pdf"),
	})
	want := []string{root, docs}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
}

func TestMatches(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"docs/a.txt": "a"})
	docs := filepath.Join(root, "docs")

	tests := []struct {
		name string
		args []string
		path string
		want bool
	}{
		{"exact file", []string{filepath.Join(docs, "a.txt")}, filepath.Join(docs, "a.txt"), true},
		{"other file", []string{filepath.Join(docs, "a.txt")}, filepath.Join(docs, "b.txt"), false},
		{"inside directory", []string{docs}, filepath.Join(docs, "new", "b.pdf"), true},
		{"outside directory", []string{docs}, filepath.Join(root, "b.txt"), false},
		{"glob match", []string{filepath.Join(root, "**", "*.pdf")}, filepath.Join(docs, "x.pdf"), true},
		{"glob mismatch", []string{filepath.Join(root, "**", "*.pdf")}, filepath.Join(docs, "x.txt"), false},
		{"unsupported extension", []string{docs}, filepath.Join(docs, "a.md"), false},
		{"hidden directory", []string{docs}, filepath.Join(docs, ".tmp", "a.txt"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.args, tt.path); got != tt.want {
				t.Errorf("Matches(%v, %q) = %v, want %v", tt.args, tt.path, got, tt.want)
			}
		})
	}
}

func TestReadFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "alpha", "b.txt": "beta"})

	scanned, err := Scan(context.Background(), []string{root})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	var calls [][2]int
	files, err := ReadFiles(context.Background(), scanned, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	if len(files) != 2 || string(files[0].Data) != "alpha" || string(files[1].Data) != "beta" {
		t.Errorf("ReadFiles() = %+v", files)
	}
	if want := [][2]int{{1, 2}, {2, 2}}; !reflect.DeepEqual(calls, want) {
		t.Errorf("progress calls = %v, want %v", calls, want)
	}
}

func TestReadFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadFiles(ctx, []ScannedFile{{Path: "whatever.txt"}}, nil)
	if err != context.Canceled {
		t.Errorf("ReadFiles() error = %v, want context.Canceled", err)
	}
}

func TestWatch_CallsOnChange(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "alpha"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{root}, 20*time.Millisecond, func(context.Context) error {
			changed <- struct{}{}
			return nil
		})
	}()

	// Give the watcher time to register the directory.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		writeTree(t, root, map[string]string{"b.txt": "beta " + time.Now().String()})
		select {
		case <-changed:
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch() error = %v", err)
			}
			return
		case <-ticker.C:
		case <-deadline:
			t.Fatal("onChange was not called after a document changed")
		}
	}
}

func TestTreeHasMatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"docs/deep/a.txt":  "alpha",
		"other/readme.md":  "not a document",
		"other/.tmp/b.txt": "hidden",
	})

	if !treeHasMatch([]string{root}, filepath.Join(root, "docs")) {
		t.Error("treeHasMatch(docs) = false, want true")
	}
	if treeHasMatch([]string{root}, filepath.Join(root, "other")) {
		t.Error("treeHasMatch(other) = true, want false")
	}
	if treeHasMatch([]string{filepath.Join(root, "**", "*.pdf")}, filepath.Join(root, "docs")) {
		t.Error("treeHasMatch(docs) with *.pdf pattern = true, want false")
	}
}

func TestWatch_DirectoryMovedIn(t *testing.T) {
	root := t.TempDir()
	staging := t.TempDir()
	writeTree(t, staging, map[string]string{"batch/x.txt": "moved document"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{root}, 20*time.Millisecond, func(context.Context) error {
			changed <- struct{}{}
			return nil
		})
	}()

	// Give the watcher time to register the directory before the move.
	time.Sleep(200 * time.Millisecond)
	if err := os.Rename(filepath.Join(staging, "batch"), filepath.Join(root, "batch")); err != nil {
		t.Fatalf("Failed to move directory: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange was not called after a directory of documents was moved in")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
