package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileProvider implements SecretProvider by reading each reference as a file
// path. Trailing whitespace, including the newline most editors add, is
// trimmed.
type FileProvider struct {
	readFile func(string) ([]byte, error)
}

// NewFileProvider creates a FileProvider backed by the OS filesystem.
func NewFileProvider() *FileProvider {
	return &FileProvider{readFile: os.ReadFile}
}

// Resolve reads every path. A missing file is omitted; any other read error
// fails the batch.
func (p *FileProvider) Resolve(ctx context.Context, refs []string) (map[string]string, error) {
	result := make(map[string]string, len(refs))
	for _, path := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := p.readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read secret file %s: %w", path, err)
		}
		result[path] = strings.TrimRight(string(b), " \t\r\n")
	}
	return result, nil
}
