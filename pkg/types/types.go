// Package types defines the Store interface, entity types, and standard
// errors for the linkstash persistence core.
package types

import "time"

// Reserved entity IDs. The inbox collection and the default workspace are
// guaranteed to exist, cannot be deleted, and receive orphaned children.
const (
	InboxCollectionID  = "inbox"
	DefaultWorkspaceID = "default"
)

// Display names for the reserved entities.
const (
	InboxCollectionName  = "Inbox"
	DefaultWorkspaceName = "Personal"
)

// Entity limits.
const (
	MaxWorkspaceNameLen = 50
	MaxDescriptionLen   = 200
	MaxWorkspaces       = 12
)

// Link is a stashed tab. The same URL may recur across links; identity is
// the generated ID, never the URL.
type Link struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Favicon      string    `json:"favicon,omitempty"`
	CollectionID string    `json:"collectionId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Collection is a named bucket of links.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	IsDefault   bool      `json:"isDefault,omitempty"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
	Color       string    `json:"color,omitempty"`
}

// Workspace groups collections. Exactly one default workspace exists; it is
// unrenameable and undeletable.
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	IsDefault   bool      `json:"isDefault,omitempty"`
}

// Settings is the small record persisted under the "settings" key.
// CollectionsReordered and WorkspacesReordered flip the listing order from
// created-at-descending to the explicit Order field; they are set by the
// first reorder call and never cleared.
type Settings struct {
	ReplaceNewTab        bool `json:"replaceNewTab"`
	CollectionsReordered bool `json:"collectionsReordered"`
	WorkspacesReordered  bool `json:"workspacesReordered"`
}

// Tab is the host's view of the active browsing context.
type Tab struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Favicon string `json:"favicon,omitempty"`
}

// NewInboxCollection returns the reserved inbox collection entry.
func NewInboxCollection() Collection {
	return Collection{
		ID:          InboxCollectionID,
		Name:        InboxCollectionName,
		Order:       0,
		CreatedAt:   time.Now().UTC(),
		IsDefault:   true,
		WorkspaceID: DefaultWorkspaceID,
	}
}

// NewDefaultWorkspace returns the reserved default workspace entry.
func NewDefaultWorkspace() Workspace {
	return Workspace{
		ID:        DefaultWorkspaceID,
		Name:      DefaultWorkspaceName,
		Color:     "#6366f1",
		Order:     0,
		CreatedAt: time.Now().UTC(),
		IsDefault: true,
	}
}
