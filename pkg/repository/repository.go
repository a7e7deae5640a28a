// Package repository supplies the document store the adapter layer projects
// from: a hierarchical tree of documents with tags, access-control entries,
// a principal directory, and full-text search. The interfaces here are what
// the core consumes; the GORM-backed implementation lives alongside them.
package repository

import (
	"context"
	"errors"
)

// Permission is a native access level on a document.
type Permission string

// The native permission levels that map onto collaboration roles.
const (
	PermissionEverything Permission = "Everything"
	PermissionRead       Permission = "Read"
	PermissionReadWrite  Permission = "ReadWrite"
)

// ErrNotFound is returned when a referenced document, ACE, user, or group
// does not resolve.
var ErrNotFound = errors.New("not found")

// ACE is a single access-control entry on a document. Entries have no native
// identity in the source model beyond the synthetic ID assigned by the store.
type ACE struct {
	ID         string
	Principal  string
	Permission Permission
}

// Principal is a resolved directory user.
type Principal struct {
	ID          string
	DisplayName string
	Login       string
}

// GroupEntry is a resolved directory group.
type GroupEntry struct {
	Name  string
	Label string
}

// Directory resolves principal names against the user/group directory.
// Resolution returns (nil, nil) when the name is simply unknown; errors are
// reserved for the directory itself failing.
type Directory interface {
	ResolvePrincipal(ctx context.Context, name string) (*Principal, error)
	ResolveGroup(ctx context.Context, name string) (*GroupEntry, error)
}

// TagStore manages the ordered tag labels attached to documents, scoped to
// the tagging principal.
type TagStore interface {
	GetTags(ctx context.Context, docID, principal string) ([]string, error)
	RemoveTags(ctx context.Context, docID string) error
	Tag(ctx context.Context, docID, label, principal string) error
}

// Session is a request-scoped view of the repository. All mutations made
// through one session commit atomically with Commit or are discarded with
// Rollback. Sessions are not shared across concurrent requests.
type Session interface {
	TagStore

	// Principal returns the name of the principal the session acts as.
	Principal() string

	// Root returns the repository's top-level container document.
	Root(ctx context.Context) (*Document, error)

	// GetDocument resolves a document by id. Returns ErrNotFound when the id
	// does not resolve.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// Parent returns the parent of doc, or (nil, nil) for the root.
	Parent(ctx context.Context, doc *Document) (*Document, error)

	// Children returns the ordered page of documents whose parent is
	// parentID, bounded by limit and offset.
	Children(ctx context.Context, parentID string, limit, offset int) ([]*Document, error)

	// Search returns the ordered page of documents matching a full-text term.
	Search(ctx context.Context, term string, limit, offset int) ([]*Document, error)

	// CreateFolder creates a folderish document under parentID.
	CreateFolder(ctx context.Context, parentID, name string) (*Document, error)

	// Move relocates and/or renames a document in a single step.
	Move(ctx context.Context, id, newParentID, newName string) error

	// SaveDocument stages updated document fields for commit.
	SaveDocument(ctx context.Context, doc *Document) error

	// Delete removes a document and its subtree.
	Delete(ctx context.Context, id string) error

	// ACEs returns the access-control entries of a document in stable order.
	ACEs(ctx context.Context, docID string) ([]ACE, error)

	// GetACE resolves one access-control entry by its synthetic id.
	GetACE(ctx context.Context, docID, aceID string) (*ACE, error)

	// AddACE grants a permission on a document and returns the stored entry.
	AddACE(ctx context.Context, docID string, ace ACE) (*ACE, error)

	// UpdateACE replaces the permission of an existing entry.
	UpdateACE(ctx context.Context, docID, aceID string, permission Permission) (*ACE, error)

	// RemoveACE revokes an entry.
	RemoveACE(ctx context.Context, docID, aceID string) error

	// Commit makes every change of the session durable.
	Commit() error

	// Rollback discards every uncommitted change. Safe to call after Commit.
	Rollback() error
}

// Repository hands out request-scoped sessions.
type Repository interface {
	NewSession(ctx context.Context, principal string) (Session, error)
}
