// Package tabs defines the host tab-provider boundary. The real browsing
// context is external; callers only see the current tab's url, title, and
// favicon, or one of the two provider errors.
package tabs

import (
	"context"
	"strings"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Provider reports the active browsing tab.
type Provider interface {
	// CurrentTab returns the active tab. Returns ErrNoActiveTab when no
	// tab is focused and ErrTabHasNoURL when the tab has nothing to save.
	CurrentTab(ctx context.Context) (types.Tab, error)
}

// Static is a fixed-tab Provider for the CLI and tests.
type Static struct {
	Tab types.Tab
}

var _ Provider = (*Static)(nil)

// CurrentTab returns the configured tab, mapping an empty tab to
// ErrNoActiveTab and a missing URL to ErrTabHasNoURL.
func (s *Static) CurrentTab(ctx context.Context) (types.Tab, error) {
	if s.Tab == (types.Tab{}) {
		return types.Tab{}, types.ErrNoActiveTab
	}
	if strings.TrimSpace(s.Tab.URL) == "" {
		return types.Tab{}, types.ErrTabHasNoURL
	}
	return s.Tab, nil
}
