package adapter

import (
	"context"

	"github.com/hashicorp-forge/strongbox/pkg/box"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

// Listing page defaults applied when the caller gives no bounds.
const (
	DefaultListLimit  = 100
	DefaultListOffset = 0
)

// AllFields selects every field in listing projections.
const AllFields = "*"

// FolderAdapter specializes Adapter for folderish documents, adding the
// child-page projection.
type FolderAdapter struct {
	*Adapter
}

// NewFolder builds a folder adapter over doc, including the default first
// page of children as the item collection.
func NewFolder(ctx context.Context, deps Deps, doc *repository.Document) (*FolderAdapter, error) {
	base, err := New(ctx, deps, doc)
	if err != nil {
		return nil, err
	}
	fa := &FolderAdapter{Adapter: base}

	children, err := fa.ItemCollection(ctx, DefaultListLimit, DefaultListOffset, AllFields)
	if err != nil {
		return nil, err
	}
	fa.item.Properties().Put(box.FieldItemCollection, children)
	return fa, nil
}

// ItemCollection projects one page of the folder's children into a
// collection of identity stubs, filtered by fields. The reported total count
// covers the returned page, not the whole child set.
func (fa *FolderAdapter) ItemCollection(ctx context.Context, limit, offset int, fields string) (*box.Collection, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = DefaultListOffset
	}
	children, err := fa.deps.Session.Children(ctx, fa.doc.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return NewDocumentCollection(children, fields), nil
}
