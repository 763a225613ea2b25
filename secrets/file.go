package secrets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

// File reads each secret from a file of the same name in a directory.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, etl.Errorf(etl.Credential, "missing secrets directory")
	}

	if info, err := os.Stat(dir); err != nil {
		return nil, etl.Wrap(etl.Credential, err, "invalid secrets directory")
	} else if !info.IsDir() {
		return nil, etl.Errorf(etl.Credential, "secrets path '%s' is not a directory", dir)
	}

	return &File{
		dir: dir,
	}, nil
}

func (s *File) Get(ctx context.Context, name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, etl.Errorf(etl.Credential, "invalid secret name '%s'", name)
	}

	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, etl.Wrap(etl.Credential, err, "unable to read secret '"+name+"'")
	}

	if b = bytes.TrimSpace(b); len(b) == 0 {
		return nil, etl.Errorf(etl.Credential, "empty secret '%s'", name)
	}

	return b, nil
}
