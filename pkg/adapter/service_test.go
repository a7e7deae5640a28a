package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/strongbox/pkg/box"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, newFakeDirectory(), nil)
}

func TestGetItemSelectsVariantByFolderness(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "docs")
	repo.mustFile("f1", "d1", "note.txt")
	svc := newTestService(repo)
	ctx := context.Background()

	folder, err := svc.GetItem(ctx, "alice", "d1")
	require.NoError(t, err)
	assert.Equal(t, box.TypeFolder, folder.ResourceType())
	assert.True(t, folder.Properties().Contains(box.FieldItemCollection))

	file, err := svc.GetItem(ctx, "alice", "f1")
	require.NoError(t, err)
	assert.Equal(t, box.TypeFile, file.ResourceType())
	assert.False(t, file.Properties().Contains(box.FieldItemCollection))
}

func TestGetItemNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.GetItem(context.Background(), "alice", "missing")
	var nf *box.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
}

func TestCreateFolderUnderRootSentinel(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	item, err := svc.CreateFolder(ctx, "alice", "0", "projects")
	require.NoError(t, err)
	props := item.Properties()

	assert.Equal(t, "projects", props.Name())
	assert.Equal(t, "project", props.ItemStatus())
	assert.NotEqual(t, "0", props.ID())

	// The new folder's parent resolves back to the root sentinel.
	parent := props.ParentFolder()
	require.NotNil(t, parent)
	assert.Equal(t, "0", parent.ID())
	assert.Equal(t, 1, repo.commits)
}

func TestCreateFolderRejectsBadNames(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for _, name := range []string{"", "a/b", `a\b`} {
		_, err := svc.CreateFolder(ctx, "alice", "0", name)
		var schema *box.SchemaError
		require.ErrorAs(t, err, &schema, "name %q", name)
		assert.Equal(t, box.FieldName, schema.Field)
	}
	assert.Zero(t, repo.commits)
}

func TestUpdateItemDescriptionAndRename(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFile("f1", repo.rootID, "old.txt")
	svc := newTestService(repo)
	ctx := context.Background()

	patch := box.NewFile()
	patch.Put(box.FieldName, "new.txt")
	patch.Put(box.FieldDescription, "renamed")

	item, err := svc.UpdateItem(ctx, "alice", "f1", patch)
	require.NoError(t, err)
	assert.Equal(t, "new.txt", item.Properties().Name())
	assert.Equal(t, "renamed", item.Properties().Description())

	stored := repo.byID["f1"]
	assert.Equal(t, "new.txt", stored.Name)
	assert.Equal(t, "renamed", stored.Description)
	assert.Equal(t, 1, repo.commits)
}

func TestUpdateItemMoveViaParent(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "docs")
	repo.mustFile("f1", "d1", "note.txt")
	svc := newTestService(repo)
	ctx := context.Background()

	// Point the parent at the root sentinel; the document relocates in a
	// single step while keeping its name.
	patch := box.NewFile()
	parent := box.NewFolder()
	parent.Put(box.FieldID, "0")
	patch.Put(box.FieldParent, parent)

	item, err := svc.UpdateItem(ctx, "alice", "f1", patch)
	require.NoError(t, err)
	assert.Equal(t, "0", item.Properties().ParentFolder().ID())

	stored := repo.byID["f1"]
	require.NotNil(t, stored.ParentID)
	assert.Equal(t, repo.rootID, *stored.ParentID)
	assert.Equal(t, "note.txt", stored.Name)
}

func TestUpdateItemRejectsMoveUnderOwnDescendant(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "docs")
	repo.mustFolder("d2", "d1", "archive")
	svc := newTestService(repo)

	patch := box.NewFolder()
	parent := box.NewFolder()
	parent.Put(box.FieldID, "d2")
	patch.Put(box.FieldParent, parent)

	_, err := svc.UpdateItem(context.Background(), "alice", "d1", patch)
	require.Error(t, err)
	assert.Equal(t, 0, repo.commits)
	assert.Equal(t, 1, repo.rollbacks)

	// The tree is unchanged, no parent cycle was created.
	stored := repo.byID["d1"]
	require.NotNil(t, stored.ParentID)
	assert.Equal(t, repo.rootID, *stored.ParentID)
}

func TestUpdateItemTagReplacementAsymmetry(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFile("f1", repo.rootID, "tagged.txt")
	repo.tags["f1"] = []string{"alpha", "beta"}
	svc := newTestService(repo)
	ctx := context.Background()

	// An absent or empty tag list leaves existing tags alone.
	noTags := box.NewFile()
	noTags.Put(box.FieldDescription, "touched")
	_, err := svc.UpdateItem(ctx, "alice", "f1", noTags)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, repo.tags["f1"])

	// A non-empty list replaces the whole set.
	withTags := box.NewFile()
	withTags.Put(box.FieldTags, []string{"gamma"})
	_, err = svc.UpdateItem(ctx, "alice", "f1", withTags)
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma"}, repo.tags["f1"])
}

func TestDeleteItemRemovesSubtree(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "docs")
	repo.mustFile("f1", "d1", "note.txt")
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.DeleteItem(ctx, "alice", "d1"))
	assert.NotContains(t, repo.byID, "d1")
	assert.NotContains(t, repo.byID, "f1")

	err := svc.DeleteItem(ctx, "alice", "d1")
	var nf *box.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestListChildrenPageAndFields(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "docs")
	repo.mustFile("f1", "d1", "one.txt")
	f2 := repo.mustFile("f2", "d1", "two.txt")
	f2.ContentDigest = "deadbeef"
	repo.mustFolder("d2", "d1", "sub")
	svc := newTestService(repo)
	ctx := context.Background()

	// The reported total covers the returned page, not the child set.
	page, err := svc.ListChildren(ctx, "alice", "d1", 2, 0, "*")
	require.NoError(t, err)
	entries := page.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 2, page.TotalCount())
	assert.Equal(t, "f1", entries[0].Properties().ID())
	assert.Equal(t, "deadbeef", entries[1].Properties().GetString(box.FieldSHA1))

	rest, err := svc.ListChildren(ctx, "alice", "d1", 2, 2, "*")
	require.NoError(t, err)
	require.Len(t, rest.Entries(), 1)
	assert.Equal(t, box.TypeFolder, rest.Entries()[0].ResourceType())

	filtered, err := svc.ListChildren(ctx, "alice", "d1", 10, 0, "id,name,foo")
	require.NoError(t, err)
	first := filtered.Entries()[0].Properties()
	assert.Equal(t, "f1", first.ID())
	assert.Equal(t, "one.txt", first.Name())
	assert.False(t, first.Contains(box.FieldEtag))
	require.True(t, first.Contains("foo"))
	assert.Nil(t, first.Get("foo"))
}

func TestListChildrenOfNonFolder(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFile("f1", repo.rootID, "note.txt")
	svc := newTestService(repo)

	_, err := svc.ListChildren(context.Background(), "alice", "f1", 10, 0, "*")
	var nf *box.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "folder", nf.Kind)
}

func TestSearchBuildsFullItems(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "reports")
	repo.mustFile("f1", "d1", "report-q1.txt")
	repo.mustFile("f2", "d1", "notes.txt")
	svc := newTestService(repo)
	ctx := context.Background()

	coll, err := svc.Search(ctx, "alice", "report", 10, 0, "*")
	require.NoError(t, err)
	entries := coll.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 2, coll.TotalCount())

	// Search entries are fully built, ancestry included.
	hit := entries[1].Properties()
	assert.Equal(t, "report-q1.txt", hit.Name())
	assert.True(t, hit.Contains(box.FieldPathCollection))

	filtered, err := svc.Search(ctx, "alice", "report", 10, 0, "id,name")
	require.NoError(t, err)
	props := filtered.Entries()[0].Properties()
	assert.True(t, props.Contains(box.FieldID))
	assert.False(t, props.Contains(box.FieldPathCollection))
}

func TestCollaborationLifecycle(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "shared")
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.CreateCollaboration(ctx, "alice", "d1", "bob", RoleEditor)
	require.NoError(t, err)
	props := created.Properties()

	collabID := props.ID()
	assert.Contains(t, collabID, CollabDelim)
	assert.Equal(t, "active", props.GetString(box.FieldStatus))
	assert.Equal(t, RoleEditor, props.GetString(box.FieldRole))

	accessible, ok := props.Get(box.FieldAccessibleBy).(*box.User)
	require.True(t, ok)
	assert.Equal(t, "bob", accessible.ID())

	folderStub, ok := props.Get(box.FieldFolder).(*box.Folder)
	require.True(t, ok)
	assert.Equal(t, "d1", folderStub.ID())

	// Date fields are observable nulls.
	for _, field := range []string{box.FieldCreatedAt, box.FieldModifiedAt, box.FieldExpiresAt, box.FieldAcknowledgedAt} {
		require.True(t, props.Contains(field), field)
		assert.Nil(t, props.Get(field), field)
	}

	got, err := svc.GetCollaboration(ctx, "alice", collabID)
	require.NoError(t, err)
	assert.Equal(t, collabID, got.Properties().ID())

	updated, err := svc.UpdateCollaboration(ctx, "alice", collabID, RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, updated.Properties().GetString(box.FieldRole))
	assert.Equal(t, repository.PermissionRead, repo.aces["d1"][0].Permission)

	listed, err := svc.ListCollaborations(ctx, "alice", "d1")
	require.NoError(t, err)
	require.Len(t, listed.Entries(), 1)
	assert.Equal(t, 1, listed.TotalCount())

	require.NoError(t, svc.DeleteCollaboration(ctx, "alice", collabID))
	assert.Empty(t, repo.aces["d1"])

	_, err = svc.GetCollaboration(ctx, "alice", collabID)
	var nf *box.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCollaborationAccessibleByPrefersUsersThenGroups(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "shared")
	svc := newTestService(repo)
	ctx := context.Background()

	group, err := svc.CreateCollaboration(ctx, "alice", "d1", "members", RoleViewer)
	require.NoError(t, err)
	g, ok := group.Properties().Get(box.FieldAccessibleBy).(*box.Group)
	require.True(t, ok)
	assert.Equal(t, "members", g.ID())
	assert.Equal(t, "All Members", g.Name())

	// A name neither directory knows becomes the system group.
	unknown, err := svc.CreateCollaboration(ctx, "alice", "d1", "nobody", RoleViewer)
	require.NoError(t, err)
	sys, ok := unknown.Properties().Get(box.FieldAccessibleBy).(*box.Group)
	require.True(t, ok)
	assert.Equal(t, "system", sys.ID())
}

func TestCollaborationRejectsUnknownRole(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "shared")
	svc := newTestService(repo)

	_, err := svc.CreateCollaboration(context.Background(), "alice", "d1", "bob", "co-owner")
	var schema *box.SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Equal(t, box.FieldRole, schema.Field)
}

func TestCollaborationRoleNullForUnmappedPermission(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "shared")
	repo.aces["d1"] = []repository.ACE{{ID: "ace-raw", Principal: "bob", Permission: "Write"}}
	svc := newTestService(repo)

	got, err := svc.GetCollaboration(context.Background(), "alice", ComposeCollaborationID("d1", "ace-raw"))
	require.NoError(t, err)
	props := got.Properties()
	require.True(t, props.Contains(box.FieldRole))
	assert.Nil(t, props.Get(box.FieldRole))
}

func TestCollaborationMalformedID(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.GetCollaboration(ctx, "alice", "no-delimiter")
	var malformed *box.MalformedIDError
	require.ErrorAs(t, err, &malformed)

	err = svc.DeleteCollaboration(ctx, "alice", "still-bad")
	assert.ErrorAs(t, err, &malformed)
}

func TestReadsRollBackMutationsCommit(t *testing.T) {
	repo := newFakeRepo()
	repo.mustFolder("d1", repo.rootID, "docs")
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.GetItem(ctx, "alice", "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.rollbacks)
	assert.Zero(t, repo.commits)

	_, err = svc.CreateFolder(ctx, "alice", "d1", "sub")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.commits)
}
