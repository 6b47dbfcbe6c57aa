// Package validate implements the validation gate: pure predicates over an
// entity and its full sibling list. Failures are returned as values, never
// raised; callers decide whether a failed Result aborts the operation.
package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// v handles field-format checks (hex colors). Eager singleton; the
// validator instance caches compiled tags and is safe for concurrent use.
var v = validator.New()

// Result is the outcome of one predicate. Err is nil when Valid.
type Result struct {
	Valid bool
	Err   error
}

func ok() Result            { return Result{Valid: true} }
func fail(err error) Result { return Result{Err: err} }

// CollectionName checks a collection name against its siblings: non-empty
// after trimming and unique case-insensitively. selfID excludes the entity
// being renamed from the duplicate check.
func CollectionName(name string, siblings []types.Collection, selfID string) Result {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fail(types.ErrNameEmpty)
	}
	for _, c := range siblings {
		if c.ID == selfID {
			continue
		}
		if strings.EqualFold(c.Name, trimmed) {
			return fail(types.ErrDuplicateName)
		}
	}
	return ok()
}

// WorkspaceName checks a workspace name: non-empty after trimming, at most
// MaxWorkspaceNameLen runes, unique case-insensitively among siblings.
func WorkspaceName(name string, siblings []types.Workspace, selfID string) Result {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fail(types.ErrNameEmpty)
	}
	if len([]rune(trimmed)) > types.MaxWorkspaceNameLen {
		return fail(types.ErrNameTooLong)
	}
	for _, w := range siblings {
		if w.ID == selfID {
			continue
		}
		if strings.EqualFold(w.Name, trimmed) {
			return fail(types.ErrDuplicateName)
		}
	}
	return ok()
}

// WorkspaceDescription checks the optional description length bound.
func WorkspaceDescription(desc string) Result {
	if len([]rune(desc)) > types.MaxDescriptionLen {
		return fail(types.ErrDescriptionTooLong)
	}
	return ok()
}

// HexColor checks that color is a hex color value ("#rgb" or "#rrggbb").
// An empty color is valid for collections; workspaces require one and pass
// required=true.
func HexColor(color string, required bool) Result {
	if color == "" {
		if required {
			return fail(types.ErrInvalidColor)
		}
		return ok()
	}
	if err := v.Var(color, "hexcolor"); err != nil {
		return fail(types.ErrInvalidColor)
	}
	return ok()
}

// WorkspaceCount checks the create-time count limit.
func WorkspaceCount(siblings []types.Workspace) Result {
	if len(siblings) >= types.MaxWorkspaces {
		return fail(types.ErrWorkspaceLimit)
	}
	return ok()
}

// CollectionDeletable rejects deleting the inbox.
func CollectionDeletable(id string) Result {
	if id == types.InboxCollectionID {
		return fail(types.ErrInboxDeleteForbidden)
	}
	return ok()
}

// WorkspaceMutable rejects renaming or deleting the default workspace.
func WorkspaceMutable(id string) Result {
	if id == types.DefaultWorkspaceID {
		return fail(types.ErrDefaultWorkspace)
	}
	return ok()
}
