// Package update compares the running CLI version with the latest published one.
package update

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/devblac/semaphore-cli/internal/scaffold"
)

// Resolver looks up published package versions.
type Resolver interface {
	Resolve(ctx context.Context, pkg, version string) (*scaffold.Manifest, error)
}

// Status is the outcome of a version check.
type Status struct {
	Current  string
	Latest   string
	Outdated bool
}

// Check resolves the latest dist-tag of pkg and compares it with current.
// Development builds (unparseable versions) are never reported outdated.
func Check(ctx context.Context, r Resolver, pkg, current string) (*Status, error) {
	m, err := r.Resolve(ctx, pkg, "latest")
	if err != nil {
		return nil, err
	}
	st := &Status{Current: current, Latest: m.Version}

	cur, err := semver.NewVersion(current)
	if err != nil {
		return st, nil
	}
	latest, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("parse latest version %q: %w", m.Version, err)
	}
	st.Outdated = cur.LessThan(latest)
	return st, nil
}
