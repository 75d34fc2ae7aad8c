package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"careerai/internal/errors"
)

// Importer loads resume documents from disk into a store.
type Importer struct {
	store       ResumeStore
	maxFileSize int64
	logger      *errors.Logger
}

func NewImporter(store ResumeStore, maxFileSize int64, logger *errors.Logger) *Importer {
	return &Importer{store: store, maxFileSize: maxFileSize, logger: logger}
}

// ImportFile extracts and saves one document. The id is derived from the
// absolute path, so importing a file again replaces its earlier version.
func (im *Importer) ImportFile(ctx context.Context, file string) (*Resume, error) {
	mime := MimeFromName(file)
	if mime == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported resume file %s", file), nil).WithContext("file", file)
	}

	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", file), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, fmt.Sprintf("cannot stat %s", file), err)
	}
	if im.maxFileSize > 0 && info.Size() > im.maxFileSize {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("file %s is %d bytes, larger than the %d byte limit", file, info.Size(), im.maxFileSize), nil)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, fmt.Sprintf("cannot read %s", file), err)
	}
	text, err := ExtractText(mime, data)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("cannot extract text from %s", file), err)
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	sum := sha256.Sum256([]byte(abs))
	r := &Resume{
		ID:     hex.EncodeToString(sum[:8]),
		Name:   filepath.Base(file),
		Source: abs,
		Text:   text,
	}
	if err := im.store.SaveResume(ctx, r); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed, fmt.Sprintf("cannot store %s", file), err)
	}
	im.logger.Info("Imported resume", "file", r.Name, "id", r.ID, "chars", len(text))
	return r, nil
}

// ImportDir imports every supported file directly inside dir. Files that
// fail are logged and skipped; the count of imported files is returned.
func (im *Importer) ImportDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.NewIOError(errors.ErrCodeFileNotReadable, fmt.Sprintf("cannot read directory %s", dir), err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && MimeFromName(e.Name()) != "" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	imported := 0
	for _, name := range names {
		if _, err := im.ImportFile(ctx, filepath.Join(dir, name)); err != nil {
			im.logger.LogError(err, "Skipping resume file", "file", name)
			continue
		}
		imported++
	}
	return imported, nil
}
