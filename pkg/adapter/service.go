package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/strongbox/pkg/box"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

// Service exposes the item, listing, search, and collaboration operations
// over the repository. Each operation runs in its own session: reads roll
// back, mutations commit only after every staged change succeeds.
type Service struct {
	repo  repository.Repository
	dir   repository.Directory
	roles *RoleMap
	log   hclog.Logger
}

// NewService wires a service over the repository and directory.
func NewService(repo repository.Repository, dir repository.Directory, log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{
		repo:  repo,
		dir:   dir,
		roles: NewRoleMap(),
		log:   log,
	}
}

// Roles returns the role mapping the service collaborates with.
func (s *Service) Roles() *RoleMap {
	return s.roles
}

// GetItem projects the document with the given id into its item resource.
func (s *Service) GetItem(ctx context.Context, principal, id string) (box.Resource, error) {
	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	a, err := s.adapterFor(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return a.Item(), nil
}

// CreateFolder creates a folder named name under parentID and returns its
// item resource. The root sentinel is a valid parent.
func (s *Service) CreateFolder(ctx context.Context, principal, parentID, name string) (box.Resource, error) {
	if err := validation.Validate(name,
		validation.Required,
		validation.By(noPathSeparators),
	); err != nil {
		return nil, &box.SchemaError{Type: box.TypeFolder, Field: box.FieldName, Reason: err.Error()}
	}

	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	realParent, err := s.resolveFolderID(ctx, sess, parentID)
	if err != nil {
		return nil, err
	}
	doc, err := sess.CreateFolder(ctx, realParent, name)
	if err != nil {
		return nil, mapNotFound(err, "folder", parentID)
	}

	fa, err := NewFolder(ctx, Deps{Session: sess, Directory: s.dir}, doc)
	if err != nil {
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	s.log.Debug("folder created", "id", doc.ID, "parent", realParent, "name", name)
	return fa.Item(), nil
}

// UpdateItem applies the known fields of patch onto the document and returns
// the updated item resource. Description, ownership, placement, name, and
// tags follow the patch; everything commits atomically.
func (s *Service) UpdateItem(ctx context.Context, principal, id string, patch box.Resource) (box.Resource, error) {
	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	a, err := s.adapterFor(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	a.ApplyPatch(patch)
	if err := a.Save(ctx); err != nil {
		return nil, err
	}

	// Rebuild so the returned resource reflects the saved state.
	updated, err := s.adapterFor(ctx, sess, a.Doc().ID)
	if err != nil {
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	s.log.Debug("item updated", "id", id)
	return updated.Item(), nil
}

// DeleteItem removes the document and its subtree.
func (s *Service) DeleteItem(ctx context.Context, principal, id string) error {
	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return err
	}
	defer rollback(sess, s.log)

	if err := sess.Delete(ctx, id); err != nil {
		return mapNotFound(err, "document", id)
	}
	if err := sess.Commit(); err != nil {
		return err
	}
	s.log.Debug("item deleted", "id", id)
	return nil
}

// ListChildren returns one page of the folder's children as identity stubs
// filtered by fields.
func (s *Service) ListChildren(ctx context.Context, principal, folderID string, limit, offset int, fields string) (*box.Collection, error) {
	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	fa, err := s.folderFor(ctx, sess, folderID)
	if err != nil {
		return nil, err
	}
	return fa.ItemCollection(ctx, limit, offset, fields)
}

// Search projects the documents matching term into fully built item
// resources, filtered by fields. The reported total count covers the
// returned page.
func (s *Service) Search(ctx context.Context, principal, term string, limit, offset int, fields string) (*box.Collection, error) {
	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = DefaultListOffset
	}
	docs, err := sess.Search(ctx, term, limit, offset)
	if err != nil {
		return nil, err
	}

	deps := Deps{Session: sess, Directory: s.dir}
	entries := make([]any, 0, len(docs))
	for _, doc := range docs {
		a, err := New(ctx, deps, doc)
		if err != nil {
			return nil, err
		}
		item, err := FilterFields(a.Item(), fields)
		if err != nil {
			return nil, err
		}
		entries = append(entries, item)
	}

	coll := box.NewCollection()
	coll.Put(box.FieldEntries, entries)
	coll.Put(box.FieldTotalCount, len(entries))
	return coll, nil
}

// GetCollaboration resolves one collaboration by composite id.
func (s *Service) GetCollaboration(ctx context.Context, principal, collabID string) (box.Resource, error) {
	folderID, aceID, err := SplitCollaborationID(collabID)
	if err != nil {
		return nil, err
	}

	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	fa, err := s.folderFor(ctx, sess, folderID)
	if err != nil {
		return nil, err
	}
	ace, err := sess.GetACE(ctx, fa.Doc().ID, aceID)
	if err != nil {
		return nil, mapNotFound(err, "collaboration", collabID)
	}
	return BuildCollaboration(ctx, Deps{Session: sess, Directory: s.dir}, fa, *ace, s.roles)
}

// ListCollaborations returns every collaboration on a folder.
func (s *Service) ListCollaborations(ctx context.Context, principal, folderID string) (*box.Collection, error) {
	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	fa, err := s.folderFor(ctx, sess, folderID)
	if err != nil {
		return nil, err
	}
	aces, err := sess.ACEs(ctx, fa.Doc().ID)
	if err != nil {
		return nil, err
	}

	deps := Deps{Session: sess, Directory: s.dir}
	entries := make([]any, 0, len(aces))
	for _, ace := range aces {
		collab, err := BuildCollaboration(ctx, deps, fa, ace, s.roles)
		if err != nil {
			return nil, err
		}
		entries = append(entries, collab)
	}

	coll := box.NewCollection()
	coll.Put(box.FieldEntries, entries)
	coll.Put(box.FieldTotalCount, len(entries))
	return coll, nil
}

// CreateCollaboration grants accessibleBy the given role on a folder and
// returns the new collaboration.
func (s *Service) CreateCollaboration(ctx context.Context, principal, folderID, accessibleBy, role string) (box.Resource, error) {
	perm, err := s.permissionFor(role)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(accessibleBy, validation.Required); err != nil {
		return nil, &box.SchemaError{Type: box.TypeCollaboration, Field: box.FieldAccessibleBy, Reason: err.Error()}
	}

	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	fa, err := s.folderFor(ctx, sess, folderID)
	if err != nil {
		return nil, err
	}
	ace, err := sess.AddACE(ctx, fa.Doc().ID, repository.ACE{Principal: accessibleBy, Permission: perm})
	if err != nil {
		return nil, err
	}
	collab, err := BuildCollaboration(ctx, Deps{Session: sess, Directory: s.dir}, fa, *ace, s.roles)
	if err != nil {
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	s.log.Debug("collaboration created", "folder", folderID, "accessible_by", accessibleBy, "role", role)
	return collab, nil
}

// UpdateCollaboration replaces the role of an existing collaboration.
func (s *Service) UpdateCollaboration(ctx context.Context, principal, collabID, role string) (box.Resource, error) {
	perm, err := s.permissionFor(role)
	if err != nil {
		return nil, err
	}
	folderID, aceID, err := SplitCollaborationID(collabID)
	if err != nil {
		return nil, err
	}

	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer rollback(sess, s.log)

	fa, err := s.folderFor(ctx, sess, folderID)
	if err != nil {
		return nil, err
	}
	ace, err := sess.UpdateACE(ctx, fa.Doc().ID, aceID, perm)
	if err != nil {
		return nil, mapNotFound(err, "collaboration", collabID)
	}
	collab, err := BuildCollaboration(ctx, Deps{Session: sess, Directory: s.dir}, fa, *ace, s.roles)
	if err != nil {
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	s.log.Debug("collaboration updated", "id", collabID, "role", role)
	return collab, nil
}

// DeleteCollaboration revokes a collaboration.
func (s *Service) DeleteCollaboration(ctx context.Context, principal, collabID string) error {
	folderID, aceID, err := SplitCollaborationID(collabID)
	if err != nil {
		return err
	}

	sess, err := s.repo.NewSession(ctx, principal)
	if err != nil {
		return err
	}
	defer rollback(sess, s.log)

	doc, err := s.resolveFolderDoc(ctx, sess, folderID)
	if err != nil {
		return err
	}
	if err := sess.RemoveACE(ctx, doc.ID, aceID); err != nil {
		return mapNotFound(err, "collaboration", collabID)
	}
	if err := sess.Commit(); err != nil {
		return err
	}
	s.log.Debug("collaboration deleted", "id", collabID)
	return nil
}

// adapterFor resolves id and builds the right adapter for the document's
// folder-ness.
func (s *Service) adapterFor(ctx context.Context, sess repository.Session, id string) (*Adapter, error) {
	doc, err := s.resolveDoc(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	deps := Deps{Session: sess, Directory: s.dir}
	if doc.Folderish {
		fa, err := NewFolder(ctx, deps, doc)
		if err != nil {
			return nil, err
		}
		return fa.Adapter, nil
	}
	return New(ctx, deps, doc)
}

// folderFor resolves id to a folderish document and builds its adapter.
func (s *Service) folderFor(ctx context.Context, sess repository.Session, id string) (*FolderAdapter, error) {
	doc, err := s.resolveFolderDoc(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return NewFolder(ctx, Deps{Session: sess, Directory: s.dir}, doc)
}

// resolveDoc resolves an external id, honoring the root sentinel.
func (s *Service) resolveDoc(ctx context.Context, sess repository.Session, id string) (*repository.Document, error) {
	if id == RootID {
		return sess.Root(ctx)
	}
	doc, err := sess.GetDocument(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "document", id)
	}
	return doc, nil
}

// resolveFolderDoc resolves an external id to a folderish document. A
// non-folder resolves to not-found for folder-scoped operations.
func (s *Service) resolveFolderDoc(ctx context.Context, sess repository.Session, id string) (*repository.Document, error) {
	doc, err := s.resolveDoc(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !doc.Folderish {
		return nil, &box.NotFoundError{Kind: "folder", ID: id}
	}
	return doc, nil
}

// resolveFolderID resolves an external folder id to its repository id.
func (s *Service) resolveFolderID(ctx context.Context, sess repository.Session, id string) (string, error) {
	doc, err := s.resolveFolderDoc(ctx, sess, id)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

// permissionFor maps role to its native permission, rejecting roles outside
// the mapping.
func (s *Service) permissionFor(role string) (repository.Permission, error) {
	perm, ok := s.roles.Permission(role)
	if !ok {
		return "", &box.SchemaError{
			Type:   box.TypeCollaboration,
			Field:  box.FieldRole,
			Reason: fmt.Sprintf("unknown role %q", role),
		}
	}
	return perm, nil
}

// mapNotFound converts the repository's missing-row sentinel into the typed
// not-found error the transport layer maps to a status.
func mapNotFound(err error, kind, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &box.NotFoundError{Kind: kind, ID: id}
	}
	return err
}

func rollback(sess repository.Session, log hclog.Logger) {
	if err := sess.Rollback(); err != nil {
		log.Warn("session rollback failed", "error", err)
	}
}

func noPathSeparators(value any) error {
	name, _ := value.(string)
	if strings.ContainsAny(name, "/\\") {
		return errors.New("must not contain path separators")
	}
	return nil
}
