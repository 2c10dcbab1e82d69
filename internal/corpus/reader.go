package corpus

import (
	"context"
	"fmt"
	"os"

	"docchat/internal/indexer"
)

// ProgressFunc is called after each file is read.
type ProgressFunc func(done, total int)

// ReadFiles loads the contents of the scanned files.
func ReadFiles(ctx context.Context, scanned []ScannedFile, progress ProgressFunc) ([]indexer.File, error) {
	files := make([]indexer.File, 0, len(scanned))
	for i, sf := range scanned {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(sf.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", sf.Path, err)
		}
		files = append(files, indexer.File{Name: sf.Name, Data: data})

		if progress != nil {
			progress(i+1, len(scanned))
		}
	}
	return files, nil
}
