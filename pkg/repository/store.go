package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
)

// LifecycleInitial is the lifecycle state newly created documents start in.
const LifecycleInitial = "project"

// Store is the GORM-backed repository. One Store is shared by the process;
// every request obtains its own transactional Session from it.
type Store struct {
	db      *gorm.DB
	index   *Index
	content *ContentStore
	log     hclog.Logger
}

// NewStore returns a repository over db, keeping the full-text index and the
// content store in step with document writes.
func NewStore(db *gorm.DB, index *Index, content *ContentStore, log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{db: db, index: index, content: content, log: log}
}

// Bootstrap migrates the schema and ensures the root container row exists.
func (s *Store) Bootstrap(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&Document{}, &TagRow{}, &ACERow{}, &UserRow{}, &GroupRow{},
	); err != nil {
		return fmt.Errorf("migrating repository schema: %w", err)
	}

	var count int64
	if err := db.Model(&Document{}).Where("parent_id IS NULL").Count(&count).Error; err != nil {
		return fmt.Errorf("checking for root document: %w", err)
	}
	if count == 0 {
		root := &Document{
			ID:             uuid.NewString(),
			Folderish:      true,
			LifecycleState: LifecycleInitial,
			VersionLabel:   "1.0",
			Creator:        "system",
		}
		if err := db.Create(root).Error; err != nil {
			return fmt.Errorf("creating root document: %w", err)
		}
		s.log.Info("created repository root", "id", root.ID)
	}
	return nil
}

// Content returns the store's content blobs.
func (s *Store) Content() *ContentStore {
	return s.content
}

// SearchIndex returns the store's full-text index.
func (s *Store) SearchIndex() *Index {
	return s.index
}

// Directory returns the directory backed by the store's users/groups tables.
func (s *Store) Directory() Directory {
	return &gormDirectory{db: s.db}
}

// NewSession opens a transactional session acting as principal.
func (s *Store) NewSession(ctx context.Context, principal string) (Session, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("beginning repository transaction: %w", tx.Error)
	}
	return &gormSession{store: s, tx: tx, principal: principal}, nil
}

type gormSession struct {
	store     *Store
	tx        *gorm.DB
	principal string
	done      bool
	effects   sessionEffects
}

// sessionEffects collects the index and content side effects a session
// stages. They are flushed only after the transaction commits; a rolled back
// session leaves the search index and the blob store untouched.
type sessionEffects struct {
	ops []effectOp
}

type effectOp struct {
	// doc, when set, is reindexed. Otherwise remove names a document whose
	// index entry and content blob are dropped.
	doc    *Document
	remove string
}

func (e *sessionEffects) stageIndex(doc *Document) {
	cp := *doc
	e.ops = append(e.ops, effectOp{doc: &cp})
}

func (e *sessionEffects) stageRemove(docID string) {
	e.ops = append(e.ops, effectOp{remove: docID})
}

// flush applies the staged operations in order. Failures are logged, not
// returned: the transaction is already committed and the read path tolerates
// an index that briefly trails the database.
func (e *sessionEffects) flush(index *Index, content *ContentStore, log hclog.Logger) {
	for _, op := range e.ops {
		if op.doc != nil {
			if err := index.IndexDocument(op.doc, content.ReadString(op.doc.ID)); err != nil {
				log.Warn("indexing document", "id", op.doc.ID, "error", err)
			}
			continue
		}
		if err := index.Remove(op.remove); err != nil {
			log.Warn("removing document from search index", "id", op.remove, "error", err)
		}
		if err := content.Remove(op.remove); err != nil {
			log.Warn("removing document content", "id", op.remove, "error", err)
		}
	}
	e.ops = nil
}

func (g *gormSession) Principal() string {
	return g.principal
}

func (g *gormSession) Root(ctx context.Context) (*Document, error) {
	var doc Document
	err := g.tx.WithContext(ctx).Where("parent_id IS NULL").First(&doc).Error
	if err != nil {
		return nil, fmt.Errorf("resolving root document: %w", err)
	}
	return &doc, nil
}

func (g *gormSession) GetDocument(ctx context.Context, id string) (*Document, error) {
	var doc Document
	err := g.tx.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document %q: %w", id, err)
	}
	return &doc, nil
}

func (g *gormSession) Parent(ctx context.Context, doc *Document) (*Document, error) {
	if doc.ParentID == nil {
		return nil, nil
	}
	return g.GetDocument(ctx, *doc.ParentID)
}

func (g *gormSession) Children(ctx context.Context, parentID string, limit, offset int) ([]*Document, error) {
	var docs []*Document
	err := g.tx.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at, id").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("listing children of %q: %w", parentID, err)
	}
	return docs, nil
}

func (g *gormSession) Search(ctx context.Context, term string, limit, offset int) ([]*Document, error) {
	ids, err := g.store.index.Query(term, limit, offset)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		doc, err := g.GetDocument(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// The index can briefly trail a delete.
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (g *gormSession) CreateFolder(ctx context.Context, parentID, name string) (*Document, error) {
	parent, err := g.GetDocument(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.Folderish {
		return nil, fmt.Errorf("document %q is not a folder", parentID)
	}

	doc := &Document{
		ID:              uuid.NewString(),
		Name:            name,
		Title:           name,
		Creator:         g.principal,
		LastContributor: g.principal,
		VersionLabel:    "1.0",
		LifecycleState:  LifecycleInitial,
		Folderish:       true,
		ParentID:        &parent.ID,
	}
	if err := g.tx.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("creating folder %q: %w", name, err)
	}
	g.effects.stageIndex(doc)
	return doc, nil
}

func (g *gormSession) Move(ctx context.Context, id, newParentID, newName string) error {
	doc, err := g.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	parent, err := g.GetDocument(ctx, newParentID)
	if err != nil {
		return err
	}
	if !parent.Folderish {
		return fmt.Errorf("document %q is not a folder", newParentID)
	}
	if parent.ID == doc.ID {
		return fmt.Errorf("cannot move document %q under itself", id)
	}
	// A document may not become an ancestor of its own parent chain.
	anc := parent
	for anc.ParentID != nil {
		if *anc.ParentID == doc.ID {
			return fmt.Errorf("cannot move document %q under its own descendant %q", id, newParentID)
		}
		anc, err = g.GetDocument(ctx, *anc.ParentID)
		if err != nil {
			return err
		}
	}

	doc.ParentID = &parent.ID
	doc.Name = newName
	doc.Title = newName
	if err := g.tx.WithContext(ctx).Save(doc).Error; err != nil {
		return fmt.Errorf("moving document %q: %w", id, err)
	}
	g.effects.stageIndex(doc)
	return nil
}

func (g *gormSession) SaveDocument(ctx context.Context, doc *Document) error {
	if err := g.tx.WithContext(ctx).Save(doc).Error; err != nil {
		return fmt.Errorf("saving document %q: %w", doc.ID, err)
	}
	g.effects.stageIndex(doc)
	return nil
}

func (g *gormSession) Delete(ctx context.Context, id string) error {
	// Collect the subtree before deleting anything.
	ids := []string{id}
	frontier := []string{id}
	for len(frontier) > 0 {
		var childIDs []string
		err := g.tx.WithContext(ctx).
			Model(&Document{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &childIDs).Error
		if err != nil {
			return fmt.Errorf("collecting subtree of %q: %w", id, err)
		}
		ids = append(ids, childIDs...)
		frontier = childIDs
	}

	tx := g.tx.WithContext(ctx)
	if err := tx.Where("doc_id IN ?", ids).Delete(&TagRow{}).Error; err != nil {
		return fmt.Errorf("deleting tags of %q: %w", id, err)
	}
	if err := tx.Where("doc_id IN ?", ids).Delete(&ACERow{}).Error; err != nil {
		return fmt.Errorf("deleting ACEs of %q: %w", id, err)
	}
	res := tx.Where("id IN ?", ids).Delete(&Document{})
	if res.Error != nil {
		return fmt.Errorf("deleting document %q: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %q: %w", id, ErrNotFound)
	}

	for _, docID := range ids {
		g.effects.stageRemove(docID)
	}
	return nil
}

func (g *gormSession) GetTags(ctx context.Context, docID, principal string) ([]string, error) {
	var labels []string
	err := g.tx.WithContext(ctx).
		Model(&TagRow{}).
		Where("doc_id = ? AND principal = ?", docID, principal).
		Order("id").
		Pluck("label", &labels).Error
	if err != nil {
		return nil, fmt.Errorf("loading tags of %q: %w", docID, err)
	}
	return labels, nil
}

func (g *gormSession) RemoveTags(ctx context.Context, docID string) error {
	err := g.tx.WithContext(ctx).Where("doc_id = ?", docID).Delete(&TagRow{}).Error
	if err != nil {
		return fmt.Errorf("removing tags of %q: %w", docID, err)
	}
	return nil
}

func (g *gormSession) Tag(ctx context.Context, docID, label, principal string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("tag label cannot be empty")
	}
	row := &TagRow{DocID: docID, Label: label, Principal: principal}
	if err := g.tx.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("tagging document %q: %w", docID, err)
	}
	return nil
}

func (g *gormSession) ACEs(ctx context.Context, docID string) ([]ACE, error) {
	var rows []ACERow
	err := g.tx.WithContext(ctx).
		Where("doc_id = ?", docID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading ACEs of %q: %w", docID, err)
	}
	aces := make([]ACE, len(rows))
	for i, row := range rows {
		aces[i] = ACE{ID: row.ID, Principal: row.Principal, Permission: Permission(row.Permission)}
	}
	return aces, nil
}

func (g *gormSession) GetACE(ctx context.Context, docID, aceID string) (*ACE, error) {
	var row ACERow
	err := g.tx.WithContext(ctx).First(&row, "doc_id = ? AND id = ?", docID, aceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("collaboration %q: %w", aceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading ACE %q: %w", aceID, err)
	}
	return &ACE{ID: row.ID, Principal: row.Principal, Permission: Permission(row.Permission)}, nil
}

func (g *gormSession) AddACE(ctx context.Context, docID string, ace ACE) (*ACE, error) {
	if ace.ID == "" {
		ace.ID = uuid.NewString()
	}
	row := &ACERow{
		ID:         ace.ID,
		DocID:      docID,
		Principal:  ace.Principal,
		Permission: string(ace.Permission),
	}
	if err := g.tx.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("adding ACE on %q: %w", docID, err)
	}
	return &ace, nil
}

func (g *gormSession) UpdateACE(ctx context.Context, docID, aceID string, permission Permission) (*ACE, error) {
	ace, err := g.GetACE(ctx, docID, aceID)
	if err != nil {
		return nil, err
	}
	err = g.tx.WithContext(ctx).
		Model(&ACERow{}).
		Where("doc_id = ? AND id = ?", docID, aceID).
		Update("permission", string(permission)).Error
	if err != nil {
		return nil, fmt.Errorf("updating ACE %q: %w", aceID, err)
	}
	ace.Permission = permission
	return ace, nil
}

func (g *gormSession) RemoveACE(ctx context.Context, docID, aceID string) error {
	res := g.tx.WithContext(ctx).Where("doc_id = ? AND id = ?", docID, aceID).Delete(&ACERow{})
	if res.Error != nil {
		return fmt.Errorf("removing ACE %q: %w", aceID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("collaboration %q: %w", aceID, ErrNotFound)
	}
	return nil
}

func (g *gormSession) Commit() error {
	if g.done {
		return nil
	}
	g.done = true
	if err := g.tx.Commit().Error; err != nil {
		return fmt.Errorf("committing repository transaction: %w", err)
	}
	g.effects.flush(g.store.index, g.store.content, g.store.log)
	return nil
}

func (g *gormSession) Rollback() error {
	if g.done {
		return nil
	}
	g.done = true
	if err := g.tx.Rollback().Error; err != nil {
		return fmt.Errorf("rolling back repository transaction: %w", err)
	}
	return nil
}
