package adapter

import (
	"strings"

	"github.com/hashicorp-forge/strongbox/pkg/box"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

// NewDocumentCollection projects docs into a collection of identity stubs
// with the field filter applied to each entry.
func NewDocumentCollection(docs []*repository.Document, fields string) *box.Collection {
	entries := make([]any, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, projectDocument(doc, fields))
	}
	coll := box.NewCollection()
	coll.Put(box.FieldEntries, entries)
	coll.Put(box.FieldTotalCount, len(entries))
	return coll
}

// projectDocument builds the identity stub of one document, plus the content
// digest for non-folderish documents that carry content.
func projectDocument(doc *repository.Document, fields string) box.Resource {
	props := identityStub(doc)
	if !doc.Folderish && doc.ContentDigest != "" {
		props[box.FieldSHA1] = doc.ContentDigest
	}

	var res box.Resource
	if doc.Folderish {
		res = box.NewFolder()
	} else {
		res = box.NewFile()
	}

	if selectsAll(fields) {
		res.Properties().PutAll(props)
		return res
	}
	// Requested fields absent from the stub are emitted as explicit nulls.
	for _, field := range splitFields(fields) {
		res.Properties().Put(field, props[field])
	}
	return res
}

// FilterFields reduces res to the requested fields, preserving its concrete
// type. A requested field the resource does not carry becomes an explicit
// null. The wildcard or an empty selection returns res unchanged.
func FilterFields(res box.Resource, fields string) (box.Resource, error) {
	if selectsAll(fields) {
		return res, nil
	}
	out, err := box.CloneResource(res)
	if err != nil {
		return nil, err
	}
	obj := box.NewObject()
	for _, field := range splitFields(fields) {
		obj.Put(field, res.Properties().Get(field))
	}
	*out.Properties() = *obj
	return out, nil
}

func selectsAll(fields string) bool {
	trimmed := strings.TrimSpace(fields)
	return trimmed == "" || trimmed == AllFields
}

func splitFields(fields string) []string {
	parts := strings.Split(fields, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}
