package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// SeedFixture is the YAML shape the seed command loads.
type SeedFixture struct {
	Users     []SeedUser     `yaml:"users"`
	Groups    []SeedGroup    `yaml:"groups"`
	Documents []SeedDocument `yaml:"documents"`
}

// SeedUser seeds one directory user.
type SeedUser struct {
	ID        string `yaml:"id"`
	Login     string `yaml:"login"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Validate implements fixture validation.
func (u SeedUser) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Login, validation.Required, validation.Length(1, 255)),
	)
}

// SeedGroup seeds one directory group.
type SeedGroup struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// Validate implements fixture validation.
func (g SeedGroup) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Name, validation.Required, validation.Length(1, 255)),
	)
}

// SeedDocument seeds one document, optionally with a subtree.
type SeedDocument struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Creator     string         `yaml:"creator"`
	Created     string         `yaml:"created"`
	Folderish   bool           `yaml:"folderish"`
	Content     string         `yaml:"content"`
	Size        *int64         `yaml:"size"`
	Tags        []string       `yaml:"tags"`
	Children    []SeedDocument `yaml:"children"`
}

// Validate implements fixture validation.
func (d SeedDocument) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 500)),
		validation.Field(&d.Content, validation.By(func(any) error {
			if d.Content != "" && d.Folderish {
				return fmt.Errorf("folderish document cannot carry content")
			}
			return nil
		})),
	)
}

// ParseSeedFixture parses and validates a YAML fixture.
func ParseSeedFixture(data []byte) (*SeedFixture, error) {
	var fixture SeedFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parsing seed fixture: %w", err)
	}

	var result *multierror.Error
	for i, u := range fixture.Users {
		if err := u.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("users[%d]: %w", i, err))
		}
	}
	for i, g := range fixture.Groups {
		if err := g.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("groups[%d]: %w", i, err))
		}
	}
	var walk func(prefix string, docs []SeedDocument)
	walk = func(prefix string, docs []SeedDocument) {
		for i, d := range docs {
			at := fmt.Sprintf("%s[%d]", prefix, i)
			if err := d.Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", at, err))
			}
			walk(at+".children", d.Children)
		}
	}
	walk("documents", fixture.Documents)

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &fixture, nil
}

// LoadSeedFixture reads, parses, and validates a fixture file.
func LoadSeedFixture(fs afero.Fs, path string) (*SeedFixture, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading seed fixture %q: %w", path, err)
	}
	return ParseSeedFixture(data)
}

// Seed loads a fixture into the store: directory rows, then the document
// tree under the repository root.
func (s *Store) Seed(ctx context.Context, fixture *SeedFixture) error {
	db := s.db.WithContext(ctx)

	for _, u := range fixture.Users {
		id := u.ID
		if id == "" {
			id = uuid.NewString()
		}
		row := &UserRow{ID: id, Login: u.Login, FirstName: u.FirstName, LastName: u.LastName}
		if err := db.Save(row).Error; err != nil {
			return fmt.Errorf("seeding user %q: %w", u.Login, err)
		}
	}
	for _, g := range fixture.Groups {
		row := &GroupRow{Name: g.Name, Label: g.Label}
		if err := db.Save(row).Error; err != nil {
			return fmt.Errorf("seeding group %q: %w", g.Name, err)
		}
	}

	var root Document
	if err := db.Where("parent_id IS NULL").First(&root).Error; err != nil {
		return fmt.Errorf("resolving root for seed: %w", err)
	}

	var plant func(parentID string, docs []SeedDocument) error
	plant = func(parentID string, docs []SeedDocument) error {
		for _, d := range docs {
			doc, err := s.seedDocument(ctx, parentID, d)
			if err != nil {
				return err
			}
			if err := plant(doc.ID, d.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return plant(root.ID, fixture.Documents)
}

func (s *Store) seedDocument(ctx context.Context, parentID string, d SeedDocument) (*Document, error) {
	created := time.Now()
	if d.Created != "" {
		// Fixture timestamps come in whatever format the author used.
		t, err := dateparse.ParseAny(d.Created)
		if err != nil {
			return nil, fmt.Errorf("seeding document %q: bad created time: %w", d.Name, err)
		}
		created = t
	}

	creator := d.Creator
	if creator == "" {
		creator = "system"
	}

	doc := &Document{
		ID:              uuid.NewString(),
		Name:            d.Name,
		Title:           d.Name,
		Description:     d.Description,
		Creator:         creator,
		LastContributor: creator,
		VersionLabel:    "1.0",
		LifecycleState:  LifecycleInitial,
		Folderish:       d.Folderish || len(d.Children) > 0,
		ParentID:        &parentID,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	if d.Size != nil {
		doc.SetQuota(*d.Size)
	}

	if d.Content != "" {
		blob, err := s.content.Put(doc.ID, strings.NewReader(d.Content))
		if err != nil {
			return nil, fmt.Errorf("seeding content of %q: %w", d.Name, err)
		}
		doc.ContentDigest = blob.Digest
		doc.ContentPath = blob.Path
		if d.Size == nil {
			doc.SetQuota(blob.Size)
		}
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("seeding document %q: %w", d.Name, err)
	}
	for _, label := range d.Tags {
		row := &TagRow{DocID: doc.ID, Label: label, Principal: creator}
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			return nil, fmt.Errorf("seeding tags of %q: %w", d.Name, err)
		}
	}
	if err := s.index.IndexDocument(doc, d.Content); err != nil {
		return nil, err
	}
	return doc, nil
}
