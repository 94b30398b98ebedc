package storage

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ShareAdapter writes small text records into a named share on a billy
// filesystem (an OS directory in production, memfs in tests).
type ShareAdapter struct {
	fs    billy.Filesystem
	share string
}

func NewShareAdapter(fs billy.Filesystem, share string) *ShareAdapter {
	return &ShareAdapter{fs: fs, share: share}
}

func (s *ShareAdapter) WriteFile(ctx context.Context, dir, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.fs.Join(s.share, dir)
	if err := s.fs.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", target, err)
	}
	filename := s.fs.Join(target, name)
	if err := util.WriteFile(s.fs, filename, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}
