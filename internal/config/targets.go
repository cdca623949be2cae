package config

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ReadTargetsFile returns the non-blank lines of path, skipping # comments.
func ReadTargetsFile(fs afero.Fs, path string) ([]string, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan targets file: %w", err)
	}
	return out, nil
}

// Targets merges positional targets with the file's. An unreadable file is
// logged and contributes nothing.
func Targets(fs afero.Fs, log *zap.Logger, args []string, path string) []string {
	out := append([]string(nil), args...)
	if path == "" {
		return out
	}
	lines, err := ReadTargetsFile(fs, path)
	if err != nil {
		log.Error("targets_file_unreadable", zap.String("path", path), zap.Error(err))
		return out
	}
	return append(out, lines...)
}
