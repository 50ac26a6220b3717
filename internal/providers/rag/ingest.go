package rag

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

// Ingest walks dir and stores every markdown or plain-text file as a
// document whose id is its path relative to dir. Unreadable files are
// logged and skipped so one bad note does not abort the run.
func Ingest(ctx context.Context, store *Store, dir string) (int, error) {
	ingested := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("file", rel).Msg("skipping unreadable note")
			return nil
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		if err := store.AddDocument(ctx, rel, string(data)); err != nil {
			return fmt.Errorf("ingest %s: %w", rel, err)
		}

		log.FromCtx(ctx).Info().Str("file", rel).Msg("ingested note")
		ingested++
		return nil
	})
	if err != nil {
		return ingested, err
	}

	return ingested, nil
}
