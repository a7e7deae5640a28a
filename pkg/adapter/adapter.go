// Package adapter projects repository documents into the external object
// model and applies resource mutations back onto documents. It is the
// translation layer between the mutable, ACL-governed document tree and the
// flat, typed JSON resource graph the API exposes.
package adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/strongbox/pkg/box"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

// RootID is the sentinel standing in for the repository's top-level
// container, which has no external identity of its own.
const RootID = "0"

// iso8601Millis matches the ISO-8601 date-time rendering of the mimicked
// object model.
const iso8601Millis = "2006-01-02T15:04:05.000Z07:00"

// sizeUnknown is reported when the size-accounting capability is
// unavailable. Callers must treat it as "unknown", not "empty".
const sizeUnknown = int64(-1)

// Deps carries the collaborator dependencies an adapter needs, making every
// dependency visible at the call site and substitutable in tests.
type Deps struct {
	Session   repository.Session
	Directory repository.Directory
}

// Adapter builds a fully populated item resource from one document snapshot
// and writes resource mutations back onto it.
type Adapter struct {
	deps Deps
	doc  *repository.Document
	item box.Resource
}

// New builds an adapter over doc in one pass: identity, timestamps,
// description, size, ancestry, principals, status, and tags. The resulting
// item is a Folder or File resource by the document's folder-ness.
func New(ctx context.Context, deps Deps, doc *repository.Document) (*Adapter, error) {
	a := &Adapter{deps: deps, doc: doc}

	props, err := a.buildItemProperties(ctx)
	if err != nil {
		return nil, err
	}

	if doc.Folderish {
		folder := box.NewFolder()
		folder.PutAll(props)
		folder.Put(box.FieldFolderUploadEmail, uploadEmailPlaceholder())
		a.item = folder
	} else {
		file := box.NewFile()
		file.PutAll(props)
		if doc.ContentDigest != "" {
			file.Put(box.FieldSHA1, doc.ContentDigest)
		}
		a.item = file
	}
	return a, nil
}

// Item returns the built resource.
func (a *Adapter) Item() box.Resource {
	return a.item
}

// Doc returns the underlying document snapshot.
func (a *Adapter) Doc() *repository.Document {
	return a.doc
}

// MiniItem returns the identity-only stub of the item, typed like the item.
func (a *Adapter) MiniItem() box.Resource {
	stub := identityStub(a.doc)
	if a.doc.Folderish {
		folder := box.NewFolder()
		folder.PutAll(stub)
		return folder
	}
	file := box.NewFile()
	file.PutAll(stub)
	return file
}

// ApplyPatch copies every known field of patch onto the item, leaving fields
// the patch does not carry untouched.
func (a *Adapter) ApplyPatch(patch box.Resource) {
	obj := patch.Properties()
	for _, key := range obj.Keys() {
		a.item.Properties().Put(key, obj.Get(key))
	}
}

// Save applies the item back onto the document and stages every change in
// the session's transaction. Description and creator update unconditionally;
// a parent or name difference relocates the document in a single step; a
// non-empty tag list fully replaces existing tags while an empty list leaves
// them untouched. The caller commits the session; any error here aborts the
// whole operation with no partial application visible.
func (a *Adapter) Save(ctx context.Context) error {
	item := a.item.Properties()
	sess := a.deps.Session

	if !a.doc.IsRoot() {
		if err := a.relocate(ctx, item); err != nil {
			return err
		}
	}

	// Reload after a possible move so the staged row is current.
	doc, err := sess.GetDocument(ctx, a.doc.ID)
	if err != nil {
		return err
	}
	doc.Description = item.Description()
	if owner := item.OwnedBy(); owner != nil {
		doc.Creator = owner.ID()
	}

	if tags := item.TagList(); len(tags) != 0 {
		if err := a.replaceTags(ctx, doc.ID, tags); err != nil {
			return err
		}
	}

	if err := sess.SaveDocument(ctx, doc); err != nil {
		return err
	}
	a.doc = doc
	return nil
}

// relocate moves and/or renames the document when the item's parent or name
// differs from the document's current state. Renaming and retitling are the
// same operation.
func (a *Adapter) relocate(ctx context.Context, item *box.Object) error {
	sess := a.deps.Session

	newParentID := ""
	if parent := item.ParentFolder(); parent != nil {
		newParentID = parent.ID()
	}
	if newParentID == RootID || newParentID == "" {
		root, err := sess.Root(ctx)
		if err != nil {
			return err
		}
		newParentID = root.ID
	}

	current, err := sess.Parent(ctx, a.doc)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	if current.ID != newParentID || a.doc.Name != item.Name() {
		if err := sess.Move(ctx, a.doc.ID, newParentID, item.Name()); err != nil {
			return err
		}
	}
	return nil
}

// replaceTags removes every existing tag and re-applies the given labels in
// order, under the session principal's tag context.
func (a *Adapter) replaceTags(ctx context.Context, docID string, tags []string) error {
	sess := a.deps.Session
	if err := sess.RemoveTags(ctx, docID); err != nil {
		return err
	}
	var result *multierror.Error
	for _, label := range tags {
		if err := sess.Tag(ctx, docID, label, sess.Principal()); err != nil {
			result = multierror.Append(result, fmt.Errorf("tag %q: %w", label, err))
		}
	}
	return result.ErrorOrNil()
}

func (a *Adapter) buildItemProperties(ctx context.Context) (map[string]any, error) {
	doc := a.doc
	sess := a.deps.Session

	props := identityStub(doc)
	props[box.FieldCreatedAt] = doc.CreatedAt.Format(iso8601Millis)
	props[box.FieldModifiedAt] = doc.UpdatedAt.Format(iso8601Millis)
	props[box.FieldDescription] = doc.Description

	size := sizeUnknown
	if quota, ok := doc.Quota(); ok {
		size = quota.InnerSize
	}
	props[box.FieldSize] = size

	parentDoc, err := sess.Parent(ctx, doc)
	if err != nil {
		return nil, err
	}
	path, err := a.parentsHierarchy(ctx, parentDoc)
	if err != nil {
		return nil, err
	}
	pathCollection := box.NewCollection()
	pathCollection.Put(box.FieldEntries, path)
	pathCollection.Put(box.FieldTotalCount, len(path))
	props[box.FieldPathCollection] = pathCollection

	parentStub := box.NewFolder()
	parentStub.PutAll(identityStub(parentDoc))
	props[box.FieldParent] = parentStub

	creator, err := a.resolveUser(ctx, doc.Creator)
	if err != nil {
		return nil, err
	}
	props[box.FieldCreatedBy] = creator

	contributor, err := a.resolveUser(ctx, doc.LastContributor)
	if err != nil {
		return nil, err
	}
	props[box.FieldModifiedBy] = contributor

	// Ownership has no independent concept in the source model.
	owner, err := box.CloneResource(creator)
	if err != nil {
		return nil, err
	}
	props[box.FieldOwnedBy] = owner

	// No link-sharing concept exists in the source model.
	props[box.FieldSharedLink] = nil

	props[box.FieldItemStatus] = doc.LifecycleState

	tags, err := sess.GetTags(ctx, doc.ID, sess.Principal())
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	props[box.FieldTags] = tags

	return props, nil
}

// parentsHierarchy walks the parent chain from parentDoc up to the root,
// producing identity stubs ordered immediate parent first. The terminal null
// beyond the root is excluded.
func (a *Adapter) parentsHierarchy(ctx context.Context, parentDoc *repository.Document) ([]any, error) {
	entries := []any{}
	for parentDoc != nil {
		stub := identityStub(parentDoc)
		var entry box.Resource
		if parentDoc.Folderish {
			folder := box.NewFolder()
			folder.PutAll(stub)
			entry = folder
		} else {
			file := box.NewFile()
			file.PutAll(stub)
			entry = file
		}
		entries = append(entries, entry)

		next, err := a.deps.Session.Parent(ctx, parentDoc)
		if err != nil {
			return nil, err
		}
		parentDoc = next
	}
	return entries, nil
}

// resolveUser resolves a principal name through the directory with the total
// "system" fallback: an empty name or an unresolvable principal yields the
// system identity, never an error resource gap.
func (a *Adapter) resolveUser(ctx context.Context, name string) (*box.User, error) {
	if name == "" {
		return fillUser(nil), nil
	}
	principal, err := a.deps.Directory.ResolvePrincipal(ctx, name)
	if err != nil {
		return nil, err
	}
	return fillUser(principal), nil
}

// fillUser builds a user resource from a resolved principal, falling back to
// the literal system identity when the principal is unknown.
func fillUser(principal *repository.Principal) *box.User {
	user := box.NewUser()
	if principal == nil {
		user.Put(box.FieldID, "system")
		user.Put(box.FieldName, "system")
		user.Put(box.FieldLogin, "system")
		return user
	}
	user.Put(box.FieldID, principal.ID)
	user.Put(box.FieldName, principal.DisplayName)
	user.Put(box.FieldLogin, principal.Login)
	return user
}

// fillGroup builds a group resource from a resolved group, with the same
// system fallback as fillUser.
func fillGroup(group *repository.GroupEntry) *box.Group {
	g := box.NewGroup()
	if group == nil {
		g.Put(box.FieldID, "system")
		g.Put(box.FieldName, "system")
		g.Put(box.FieldLogin, "system")
		return g
	}
	g.Put(box.FieldID, group.Name)
	g.Put(box.FieldName, group.Label)
	g.Put(box.FieldLogin, group.Name)
	return g
}

// identityStub derives the identity fields of a document. A nil or root
// document follows the root derivation rules: id "0", null sequence id and
// etag, name "/".
func identityStub(doc *repository.Document) map[string]any {
	if doc == nil {
		return map[string]any{
			box.FieldID:         nil,
			box.FieldSequenceID: nil,
			box.FieldEtag:       nil,
			box.FieldName:       nil,
		}
	}
	if doc.IsRoot() {
		return map[string]any{
			box.FieldID:         RootID,
			box.FieldSequenceID: nil,
			box.FieldEtag:       nil,
			box.FieldName:       "/",
		}
	}
	return map[string]any{
		box.FieldID:         doc.ID,
		box.FieldSequenceID: doc.ID,
		box.FieldEtag:       doc.ID + "_" + doc.VersionLabel,
		box.FieldName:       doc.Name,
	}
}

// uploadEmailPlaceholder is the folder upload-email stub; the source model
// has no upload-by-email concept.
func uploadEmailPlaceholder() *box.Email {
	email := box.NewEmail()
	email.Put(box.FieldAccess, "-1")
	email.Put(box.FieldEmail, "-1")
	return email
}
