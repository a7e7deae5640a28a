package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

// fakeRepo is an in-memory repository.Repository for exercising the adapter
// layer without a database. Commit and rollback counts are recorded so tests
// can assert transaction discipline.
type fakeRepo struct {
	docs   []*repository.Document
	byID   map[string]*repository.Document
	tags   map[string][]string
	aces   map[string][]repository.ACE
	rootID string

	nextID    int
	commits   int
	rollbacks int
}

func newFakeRepo() *fakeRepo {
	r := &fakeRepo{
		byID: map[string]*repository.Document{},
		tags: map[string][]string{},
		aces: map[string][]repository.ACE{},
	}
	root := &repository.Document{
		ID:             "root-id",
		Name:           "",
		Title:          "",
		Folderish:      true,
		VersionLabel:   "1.0",
		LifecycleState: "project",
		CreatedAt:      time.Date(2014, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2014, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	r.addDoc(root)
	r.rootID = root.ID
	return r
}

func (r *fakeRepo) addDoc(doc *repository.Document) {
	r.docs = append(r.docs, doc)
	r.byID[doc.ID] = doc
}

// mustFolder plants a folderish document under parentID.
func (r *fakeRepo) mustFolder(id, parentID, name string) *repository.Document {
	doc := &repository.Document{
		ID:             id,
		Name:           name,
		Title:          name,
		Folderish:      true,
		ParentID:       &parentID,
		Creator:        "alice",
		VersionLabel:   "1.0",
		LifecycleState: "project",
		CreatedAt:      time.Date(2014, 3, 2, 9, 30, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2014, 3, 2, 9, 30, 0, 0, time.UTC),
	}
	r.addDoc(doc)
	return doc
}

// mustFile plants a non-folderish document under parentID.
func (r *fakeRepo) mustFile(id, parentID, name string) *repository.Document {
	doc := &repository.Document{
		ID:             id,
		Name:           name,
		Title:          name,
		ParentID:       &parentID,
		Creator:        "alice",
		VersionLabel:   "1.0",
		LifecycleState: "project",
		CreatedAt:      time.Date(2014, 3, 2, 9, 30, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2014, 3, 2, 9, 30, 0, 0, time.UTC),
	}
	r.addDoc(doc)
	return doc
}

func (r *fakeRepo) NewSession(_ context.Context, principal string) (repository.Session, error) {
	return &fakeSession{repo: r, principal: principal}, nil
}

type fakeSession struct {
	repo      *fakeRepo
	principal string
	done      bool
}

func (s *fakeSession) Principal() string { return s.principal }

func (s *fakeSession) Root(context.Context) (*repository.Document, error) {
	return s.copyOf(s.repo.rootID)
}

func (s *fakeSession) GetDocument(_ context.Context, id string) (*repository.Document, error) {
	return s.copyOf(id)
}

func (s *fakeSession) copyOf(id string) (*repository.Document, error) {
	doc, ok := s.repo.byID[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, repository.ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeSession) Parent(_ context.Context, doc *repository.Document) (*repository.Document, error) {
	if doc.ParentID == nil {
		return nil, nil
	}
	return s.copyOf(*doc.ParentID)
}

func (s *fakeSession) Children(_ context.Context, parentID string, limit, offset int) ([]*repository.Document, error) {
	var out []*repository.Document
	skipped := 0
	for _, doc := range s.repo.docs {
		if doc.ParentID == nil || *doc.ParentID != parentID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) == limit {
			break
		}
		cp := *doc
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeSession) Search(_ context.Context, term string, limit, offset int) ([]*repository.Document, error) {
	var out []*repository.Document
	for _, doc := range s.repo.docs {
		if doc.IsRoot() {
			continue
		}
		if term != "" && !strings.Contains(doc.Name, term) && !strings.Contains(doc.Description, term) {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSession) CreateFolder(_ context.Context, parentID, name string) (*repository.Document, error) {
	if _, ok := s.repo.byID[parentID]; !ok {
		return nil, repository.ErrNotFound
	}
	s.repo.nextID++
	doc := &repository.Document{
		ID:             fmt.Sprintf("doc-%d", s.repo.nextID),
		Name:           name,
		Title:          name,
		Folderish:      true,
		ParentID:       &parentID,
		Creator:        s.principal,
		VersionLabel:   "1.0",
		LifecycleState: "project",
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	s.repo.addDoc(doc)
	cp := *doc
	return &cp, nil
}

func (s *fakeSession) Move(_ context.Context, id, newParentID, newName string) error {
	doc, ok := s.repo.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	parent, ok := s.repo.byID[newParentID]
	if !ok {
		return repository.ErrNotFound
	}
	if parent.ID == doc.ID {
		return fmt.Errorf("cannot move document %q under itself", id)
	}
	for anc := parent; anc != nil && anc.ParentID != nil; anc = s.repo.byID[*anc.ParentID] {
		if *anc.ParentID == doc.ID {
			return fmt.Errorf("cannot move document %q under its own descendant %q", id, newParentID)
		}
	}
	doc.ParentID = &newParentID
	doc.Name = newName
	doc.Title = newName
	return nil
}

func (s *fakeSession) SaveDocument(_ context.Context, doc *repository.Document) error {
	stored, ok := s.repo.byID[doc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	*stored = *doc
	return nil
}

func (s *fakeSession) Delete(_ context.Context, id string) error {
	if _, ok := s.repo.byID[id]; !ok {
		return repository.ErrNotFound
	}
	victims := map[string]bool{id: true}
	changed := true
	for changed {
		changed = false
		for _, doc := range s.repo.docs {
			if doc.ParentID != nil && victims[*doc.ParentID] && !victims[doc.ID] {
				victims[doc.ID] = true
				changed = true
			}
		}
	}
	var kept []*repository.Document
	for _, doc := range s.repo.docs {
		if victims[doc.ID] {
			delete(s.repo.byID, doc.ID)
			delete(s.repo.tags, doc.ID)
			delete(s.repo.aces, doc.ID)
			continue
		}
		kept = append(kept, doc)
	}
	s.repo.docs = kept
	return nil
}

func (s *fakeSession) GetTags(_ context.Context, docID, _ string) ([]string, error) {
	return append([]string(nil), s.repo.tags[docID]...), nil
}

func (s *fakeSession) RemoveTags(_ context.Context, docID string) error {
	delete(s.repo.tags, docID)
	return nil
}

func (s *fakeSession) Tag(_ context.Context, docID, label, _ string) error {
	if label == "" {
		return fmt.Errorf("empty tag label")
	}
	s.repo.tags[docID] = append(s.repo.tags[docID], label)
	return nil
}

func (s *fakeSession) ACEs(_ context.Context, docID string) ([]repository.ACE, error) {
	return append([]repository.ACE(nil), s.repo.aces[docID]...), nil
}

func (s *fakeSession) GetACE(_ context.Context, docID, aceID string) (*repository.ACE, error) {
	for _, ace := range s.repo.aces[docID] {
		if ace.ID == aceID {
			cp := ace
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeSession) AddACE(_ context.Context, docID string, ace repository.ACE) (*repository.ACE, error) {
	s.repo.nextID++
	ace.ID = fmt.Sprintf("ace-%d", s.repo.nextID)
	s.repo.aces[docID] = append(s.repo.aces[docID], ace)
	cp := ace
	return &cp, nil
}

func (s *fakeSession) UpdateACE(_ context.Context, docID, aceID string, permission repository.Permission) (*repository.ACE, error) {
	for i, ace := range s.repo.aces[docID] {
		if ace.ID == aceID {
			s.repo.aces[docID][i].Permission = permission
			cp := s.repo.aces[docID][i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeSession) RemoveACE(_ context.Context, docID, aceID string) error {
	for i, ace := range s.repo.aces[docID] {
		if ace.ID == aceID {
			s.repo.aces[docID] = append(s.repo.aces[docID][:i], s.repo.aces[docID][i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeSession) Commit() error {
	if !s.done {
		s.done = true
		s.repo.commits++
	}
	return nil
}

func (s *fakeSession) Rollback() error {
	if !s.done {
		s.done = true
		s.repo.rollbacks++
	}
	return nil
}

// fakeDirectory resolves principals and groups from fixed maps.
type fakeDirectory struct {
	users  map[string]*repository.Principal
	groups map[string]*repository.GroupEntry
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[string]*repository.Principal{
			"alice": {ID: "alice", DisplayName: "Alice Martin", Login: "alice"},
			"bob":   {ID: "bob", DisplayName: "Bob Ruiz", Login: "bob"},
		},
		groups: map[string]*repository.GroupEntry{
			"members": {Name: "members", Label: "All Members"},
		},
	}
}

func (d *fakeDirectory) ResolvePrincipal(_ context.Context, name string) (*repository.Principal, error) {
	return d.users[name], nil
}

func (d *fakeDirectory) ResolveGroup(_ context.Context, name string) (*repository.GroupEntry, error) {
	return d.groups[name], nil
}
