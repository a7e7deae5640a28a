package adapter

import (
	"context"
	"strings"

	"github.com/hashicorp-forge/strongbox/pkg/box"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

// CollabDelim joins a folder id and an access-control entry id into one
// composite collaboration id. The entry id alone is not addressable.
const CollabDelim = "-BOX-"

// Collaboration roles exposed by the API.
const (
	RoleEditor         = "editor"
	RoleViewer         = "viewer"
	RoleViewerUploader = "viewer uploader"
)

// RoleMap is the bidirectional mapping between native permissions and
// collaboration roles. It is immutable after construction.
type RoleMap struct {
	toRole       map[repository.Permission]string
	toPermission map[string]repository.Permission
}

// NewRoleMap builds the mapping. Each direction is total over the pairs and
// nothing else.
func NewRoleMap() *RoleMap {
	m := &RoleMap{
		toRole:       map[repository.Permission]string{},
		toPermission: map[string]repository.Permission{},
	}
	pairs := []struct {
		perm repository.Permission
		role string
	}{
		{repository.PermissionEverything, RoleEditor},
		{repository.PermissionRead, RoleViewer},
		{repository.PermissionReadWrite, RoleViewerUploader},
	}
	for _, p := range pairs {
		m.toRole[p.perm] = p.role
		m.toPermission[p.role] = p.perm
	}
	return m
}

// Role maps a native permission to its role.
func (m *RoleMap) Role(perm repository.Permission) (string, bool) {
	role, ok := m.toRole[perm]
	return role, ok
}

// Permission maps a role back to its native permission.
func (m *RoleMap) Permission(role string) (repository.Permission, bool) {
	perm, ok := m.toPermission[role]
	return perm, ok
}

// ComposeCollaborationID joins a folder id and an entry id into the external
// collaboration id.
func ComposeCollaborationID(folderID, aceID string) string {
	return folderID + CollabDelim + aceID
}

// SplitCollaborationID recovers the folder id and entry id from a composite
// collaboration id. Returns a malformed-id error when the delimiter is
// missing or either side is empty.
func SplitCollaborationID(id string) (folderID, aceID string, err error) {
	folderID, aceID, found := strings.Cut(id, CollabDelim)
	if !found || folderID == "" || aceID == "" {
		return "", "", &box.MalformedIDError{ID: id}
	}
	return folderID, aceID, nil
}

// BuildCollaboration projects one access-control entry of a folder into a
// collaboration resource. The accessible party resolves as a user first,
// then as a group, falling back to the system identity. The role is null for
// permissions outside the role mapping. Date fields have no native source
// and are emitted as explicit nulls.
func BuildCollaboration(ctx context.Context, deps Deps, folder *FolderAdapter, ace repository.ACE, roles *RoleMap) (*box.Collaboration, error) {
	collab := box.NewCollaboration()
	collab.Put(box.FieldID, ComposeCollaborationID(folder.Item().Properties().ID(), ace.ID))
	collab.Put(box.FieldCreatedAt, nil)
	collab.Put(box.FieldModifiedAt, nil)
	collab.Put(box.FieldExpiresAt, nil)
	collab.Put(box.FieldAcknowledgedAt, nil)
	collab.Put(box.FieldStatus, "active")
	collab.Put(box.FieldFolder, folder.MiniItem())

	if creator := folder.Item().Properties().CreatedBy(); creator != nil {
		clone, err := box.CloneResource(creator)
		if err != nil {
			return nil, err
		}
		collab.Put(box.FieldCreatedBy, clone)
	}

	accessible, err := resolveAccessibleBy(ctx, deps.Directory, ace.Principal)
	if err != nil {
		return nil, err
	}
	collab.Put(box.FieldAccessibleBy, accessible)

	if role, ok := roles.Role(ace.Permission); ok {
		collab.Put(box.FieldRole, role)
	} else {
		collab.Put(box.FieldRole, nil)
	}
	return collab, nil
}

// resolveAccessibleBy resolves a granted principal name, preferring users
// over groups. An entirely unknown name yields the system group.
func resolveAccessibleBy(ctx context.Context, dir repository.Directory, name string) (box.Resource, error) {
	principal, err := dir.ResolvePrincipal(ctx, name)
	if err != nil {
		return nil, err
	}
	if principal != nil {
		return fillUser(principal), nil
	}
	group, err := dir.ResolveGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	return fillGroup(group), nil
}
