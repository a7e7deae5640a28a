package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeedFixture(t *testing.T) {
	fixture, err := ParseSeedFixture([]byte(`
users:
  - id: u1
    login: jdoe
    first_name: John
    last_name: Doe
groups:
  - name: members
    label: Members
documents:
  - name: folder_1
    folderish: true
    creator: jdoe
    created: "2014-03-01 10:00"
    tags: [reports, q1]
    children:
      - name: file_1
        content: "hello world"
`))
	require.NoError(t, err)

	require.Len(t, fixture.Users, 1)
	assert.Equal(t, "jdoe", fixture.Users[0].Login)
	require.Len(t, fixture.Documents, 1)
	assert.True(t, fixture.Documents[0].Folderish)
	require.Len(t, fixture.Documents[0].Children, 1)
	assert.Equal(t, "hello world", fixture.Documents[0].Children[0].Content)
}

func TestParseSeedFixtureReportsEveryInvalidEntry(t *testing.T) {
	_, err := ParseSeedFixture([]byte(`
users:
  - first_name: Missing
documents:
  - name: ""
  - name: bad
    folderish: true
    content: "folders cannot have content"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users[0]")
	assert.Contains(t, err.Error(), "documents[0]")
	assert.Contains(t, err.Error(), "documents[1]")
}

func TestParseSeedFixtureRejectsMalformedYAML(t *testing.T) {
	_, err := ParseSeedFixture([]byte("documents: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing seed fixture")
}
