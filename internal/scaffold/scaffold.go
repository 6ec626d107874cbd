// Package scaffold creates a project directory from a versioned template package.
package scaffold

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/gjson"
)

// ErrExists is returned when the target directory is already present.
var ErrExists = errors.New("target already exists")

// Fetcher resolves and downloads template packages.
type Fetcher interface {
	Resolve(ctx context.Context, pkg, version string) (*Manifest, error)
	Open(ctx context.Context, m *Manifest) (io.ReadCloser, error)
}

// Scaffolder extracts a template package into new project directories.
type Scaffolder struct {
	fetcher  Fetcher
	template string
}

func New(fetcher Fetcher, template string) *Scaffolder {
	return &Scaffolder{fetcher: fetcher, template: template}
}

// Project describes a freshly created project.
type Project struct {
	Dir     string
	Version string
	Scripts []string
}

// Create extracts the template at version into dir, which must not exist.
func (s *Scaffolder) Create(ctx context.Context, dir, version string) (*Project, error) {
	if dir == "" {
		return nil, errors.New("project directory is required")
	}
	if _, err := os.Lstat(dir); err == nil {
		return nil, fmt.Errorf("%s: %w", dir, ErrExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}

	m, err := s.fetcher.Resolve(ctx, s.template, version)
	if err != nil {
		return nil, err
	}
	rc, err := s.fetcher.Open(ctx, m)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if err := Extract(rc, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("extract %s@%s: %w", s.template, m.Version, err)
	}

	scripts, err := Scripts(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, err
	}
	return &Project{Dir: dir, Version: m.Version, Scripts: scripts}, nil
}

// Extract unpacks a gzipped npm tarball into dir, dropping the leading "package/" component.
func Extract(r io.Reader, dir string) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		rel := stripRoot(hdr.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(rel))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("entry %q escapes target directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", rel, err)
			}
		default:
			// npm tarballs only carry files and directories.
			continue
		}
	}
}

func stripRoot(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	if _, rest, ok := strings.Cut(name, "/"); ok {
		return strings.Trim(rest, "/")
	}
	return ""
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Scripts returns the names of package.json scripts in document order.
// A missing file or scripts block yields no scripts.
func Scripts(packageJSON string) ([]string, error) {
	raw, err := os.ReadFile(packageJSON)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read package.json: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("package.json is not valid json")
	}
	var names []string
	gjson.GetBytes(raw, "scripts").ForEach(func(k, _ gjson.Result) bool {
		names = append(names, k.String())
		return true
	})
	return names, nil
}
