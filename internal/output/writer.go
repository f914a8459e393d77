package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileWriter replaces a file's content atomically: data is written to a
// temporary file in the target directory which is then renamed over the
// target. Readers observe either the old or the new content, never a mix.
type FileWriter struct {
	path   string
	logger *slog.Logger
}

// newFileMode is the mode of files that did not exist before. Replaced
// files keep their mode.
const newFileMode os.FileMode = 0o644

// FileWriterOption configures a FileWriter.
type FileWriterOption func(*FileWriter)

// WithLogger sets a logger for the FileWriter. A nil logger keeps the
// default.
func WithLogger(logger *slog.Logger) FileWriterOption {
	return func(fw *FileWriter) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// NewFileWriter creates a writer for the specified file path.
func NewFileWriter(path string, opts ...FileWriterOption) *FileWriter {
	fw := &FileWriter{
		path:   path,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(fw)
	}

	return fw
}

// Write creates parent directories and atomically replaces the file.
func (fw *FileWriter) Write(data []byte) (err error) {
	dir := filepath.Dir(fw.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	perm := newFileMode
	if info, statErr := os.Stat(fw.path); statErr == nil {
		perm = info.Mode().Perm()
		fw.logger.Debug("replacing existing file", slog.String("path", fw.path))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fw.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", fw.path, err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing file %s: %w", fw.path, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", fw.path, err)
	}

	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", fw.path, err)
	}

	if err = os.Rename(tmp.Name(), fw.path); err != nil {
		return fmt.Errorf("replacing file %s: %w", fw.path, err)
	}

	return nil
}

// WriteFile is a shorthand for NewFileWriter(path, opts...).Write(data).
func WriteFile(path string, data []byte, opts ...FileWriterOption) error {
	return NewFileWriter(path, opts...).Write(data)
}
