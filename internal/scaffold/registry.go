package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const maxManifestBytes = 8 << 20

// Registry resolves package versions against an npm-compatible registry.
type Registry struct {
	baseURL string
	http    *http.Client
}

// NewRegistry builds a registry client rooted at baseURL.
func NewRegistry(baseURL string, timeout time.Duration) *Registry {
	return &Registry{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Manifest is the subset of a package version document we use.
type Manifest struct {
	Name    string
	Version string
	Tarball string
}

// Resolve fetches the manifest for pkg at version, which may also be a dist-tag such as "latest".
func (r *Registry) Resolve(ctx context.Context, pkg, version string) (*Manifest, error) {
	if pkg == "" {
		return nil, errors.New("package name is required")
	}
	if version == "" {
		version = "latest"
	}

	body, err := r.get(ctx, r.baseURL+"/"+escapePackage(pkg)+"/"+url.PathEscape(version))
	if err != nil {
		return nil, fmt.Errorf("resolve %s@%s: %w", pkg, version, err)
	}

	m := &Manifest{
		Name:    gjson.GetBytes(body, "name").String(),
		Version: gjson.GetBytes(body, "version").String(),
		Tarball: gjson.GetBytes(body, "dist.tarball").String(),
	}
	if m.Version == "" || m.Tarball == "" {
		return nil, fmt.Errorf("resolve %s@%s: manifest missing version or dist.tarball", pkg, version)
	}
	return m, nil
}

// Open streams the tarball of m. The caller closes the reader.
func (r *Registry) Open(ctx context.Context, m *Manifest) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.Tarball, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download tarball: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("download tarball: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (r *Registry) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("registry status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("registry returned invalid json")
	}
	return body, nil
}

// escapePackage keeps the scope separator readable: @scope/name -> @scope%2fname.
func escapePackage(pkg string) string {
	if strings.HasPrefix(pkg, "@") {
		if scope, name, ok := strings.Cut(pkg, "/"); ok {
			return scope + "%2f" + url.PathEscape(name)
		}
	}
	return url.PathEscape(pkg)
}
