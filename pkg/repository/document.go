package repository

import (
	"time"

	"github.com/mitchellh/mapstructure"
)

// Document is a snapshot of one node of the repository tree. The root is the
// single row with a nil ParentID; it stands in for the repository's top-level
// container, which has no external identity of its own.
type Document struct {
	ID              string  `gorm:"primaryKey;type:varchar(64)"`
	Name            string  `gorm:"type:varchar(500);index:idx_documents_parent_name,priority:2"`
	Title           string  `gorm:"type:varchar(500)"`
	Description     string  `gorm:"type:text"`
	Creator         string  `gorm:"type:varchar(255)"`
	LastContributor string  `gorm:"type:varchar(255)"`
	VersionLabel    string  `gorm:"type:varchar(50)"`
	LifecycleState  string  `gorm:"type:varchar(50)"`
	Folderish       bool
	ParentID        *string `gorm:"type:varchar(64);index:idx_documents_parent_name,priority:1"`

	// ContentDigest is the digest of the attached content blob, empty when
	// the document carries no content.
	ContentDigest string `gorm:"type:varchar(128)"`
	ContentPath   string `gorm:"type:varchar(500)"`

	// Facets holds optional capability payloads (size accounting and the
	// like) as a flat JSON document.
	Facets FacetMap `gorm:"type:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name.
func (Document) TableName() string {
	return "documents"
}

// IsRoot reports whether the document is the repository root.
func (d *Document) IsRoot() bool {
	return d.ParentID == nil
}

// QuotaFacet is the size-accounting capability payload.
type QuotaFacet struct {
	InnerSize int64 `mapstructure:"inner_size"`
}

// Quota decodes the size-accounting facet. The second return value is false
// when the capability is not attached to this document; callers degrade to
// the -1 "unknown size" sentinel in that case.
func (d *Document) Quota() (*QuotaFacet, bool) {
	raw, ok := d.Facets["quota"]
	if !ok {
		return nil, false
	}
	var facet QuotaFacet
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		// JSON columns come back with float64 numbers.
		WeaklyTypedInput: true,
		Result:           &facet,
	})
	if err != nil {
		return nil, false
	}
	if err := dec.Decode(raw); err != nil {
		return nil, false
	}
	return &facet, true
}

// SetQuota attaches the size-accounting facet.
func (d *Document) SetQuota(size int64) {
	if d.Facets == nil {
		d.Facets = FacetMap{}
	}
	d.Facets["quota"] = map[string]any{"inner_size": size}
}

// TagRow is one tag label attached to a document by a principal. Label order
// is the insertion order of the rows.
type TagRow struct {
	ID        uint   `gorm:"primaryKey"`
	DocID     string `gorm:"type:varchar(64);index:idx_tags_doc"`
	Label     string `gorm:"type:varchar(255)"`
	Principal string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
}

// TableName specifies the table name.
func (TagRow) TableName() string {
	return "tags"
}

// ACERow is a stored access-control entry.
type ACERow struct {
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	DocID      string `gorm:"type:varchar(64);index:idx_aces_doc"`
	Principal  string `gorm:"type:varchar(255)"`
	Permission string `gorm:"type:varchar(50)"`
	CreatedAt  time.Time
}

// TableName specifies the table name.
func (ACERow) TableName() string {
	return "aces"
}

// UserRow is a directory user.
type UserRow struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	Login     string `gorm:"type:varchar(255);uniqueIndex"`
	FirstName string `gorm:"type:varchar(255)"`
	LastName  string `gorm:"type:varchar(255)"`
}

// TableName specifies the table name.
func (UserRow) TableName() string {
	return "users"
}

// GroupRow is a directory group.
type GroupRow struct {
	Name  string `gorm:"primaryKey;type:varchar(255)"`
	Label string `gorm:"type:varchar(255)"`
}

// TableName specifies the table name.
func (GroupRow) TableName() string {
	return "groups"
}

// DisplayName renders the directory user's display name.
func (u *UserRow) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
