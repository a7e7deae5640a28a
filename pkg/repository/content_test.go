package repository

import (
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentStorePutAndOpen(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs())

	blob, err := store.Put("doc-1", strings.NewReader("hello world"))
	require.NoError(t, err)

	// SHA-1 of "hello world".
	assert.Equal(t, "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", blob.Digest)
	assert.Equal(t, int64(11), blob.Size)

	r, err := store.Open("doc-1")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestContentStoreReadStringMissing(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs())
	assert.Equal(t, "", store.ReadString("nope"))
}

func TestContentStoreRemoveIsIdempotent(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs())
	_, err := store.Put("doc-1", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove("doc-1"))
	require.NoError(t, store.Remove("doc-1"))
	assert.Equal(t, "", store.ReadString("doc-1"))
}

func TestIndexQueryOrdering(t *testing.T) {
	idx, err := OpenIndex("")
	require.NoError(t, err)
	defer idx.Close()

	docs := []*Document{
		{ID: "a", Name: "quarterly report", Description: "财报"},
		{ID: "b", Name: "meeting notes", Description: "report follow-up"},
		{ID: "c", Name: "unrelated"},
	}
	for _, d := range docs {
		require.NoError(t, idx.IndexDocument(d, ""))
	}

	ids, err := idx.Query("report", 10, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, idx.Remove("a"))
	ids, err = idx.Query("report", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestQuotaFacetRoundTrip(t *testing.T) {
	doc := &Document{}
	_, ok := doc.Quota()
	assert.False(t, ok, "no facet means capability unavailable")

	doc.SetQuota(2048)
	facet, ok := doc.Quota()
	require.True(t, ok)
	assert.Equal(t, int64(2048), facet.InnerSize)
}
