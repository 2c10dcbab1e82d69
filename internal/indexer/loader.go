package indexer

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"docchat/internal/contextutil"
)

// LoadFiles extracts every ingestible file into a Document.
//
// Files without a .pdf or .txt extension are skipped silently. Files that fail
// extraction with ErrUnsupportedFormat or ErrParse are skipped and reported.
// Any other extraction error, or cancellation of ctx, aborts the load.
func LoadFiles(ctx context.Context, ex TextExtractor, files []File) ([]Document, []SkippedFile, error) {
	logger := contextutil.LoggerFromContext(ctx)

	docs := make([]Document, 0, len(files))
	var skipped []SkippedFile

	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		if !SupportedExtension(f.Name) {
			logger.DebugContext(ctx, "ignoring file with unsupported extension", "name", f.Name)
			continue
		}

		text, err := ex.Extract(ctx, f.Name, f.Data)
		if err != nil {
			if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrParse) {
				logger.WarnContext(ctx, "skipping file", "name", f.Name, "error", err)
				skipped = append(skipped, SkippedFile{Name: f.Name, Reason: err.Error()})
				continue
			}
			return nil, nil, err
		}

		docs = append(docs, Document{
			ID:       uuid.New().String(),
			Name:     f.Name,
			Text:     text,
			Position: len(docs),
		})
	}

	logger.InfoContext(ctx, "files loaded", "files", len(files), "documents", len(docs), "skipped", len(skipped))
	return docs, skipped, nil
}
