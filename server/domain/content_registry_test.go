package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id string) ContentItem {
	return ContentItem{
		ID:       id,
		Name:     id + ".txt",
		Size:     42,
		Kind:     ContentKindFile,
		MimeType: "text/plain",
	}
}

func ids(items []ContentItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestContentRegistry_UpsertAddsClaimant(t *testing.T) {
	r := NewContentRegistry()
	item := testItem("f1")
	item.Hosts = []string{"spoofed"}

	snapshot, err := r.Upsert(item, "p1")
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, []string{"p1"}, snapshot[0].Hosts)
	assert.Equal(t, "p1", snapshot[0].UploaderID)
	assert.False(t, snapshot[0].UploadedAt.IsZero())
	assert.Equal(t, []string{"p1"}, r.HostsOf("f1"))
}

func TestContentRegistry_UpsertReplaceKeepsHosts(t *testing.T) {
	r := NewContentRegistry()
	_, err := r.Upsert(testItem("f1"), "p1")
	require.NoError(t, err)
	first, _ := r.Get("f1")

	renamed := testItem("f1")
	renamed.Name = "renamed.txt"
	snapshot, err := r.Upsert(renamed, "p2")
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "renamed.txt", snapshot[0].Name)
	assert.Equal(t, []string{"p1", "p2"}, snapshot[0].Hosts)
	assert.Equal(t, first.UploadedAt, snapshot[0].UploadedAt)
	assert.Equal(t, "p2", snapshot[0].UploaderID)
}

func TestContentRegistry_UpsertRejectsInvalid(t *testing.T) {
	r := NewContentRegistry()
	_, err := r.Upsert(ContentItem{ID: "x"}, "p1")
	assert.ErrorIs(t, err, ErrInvalidContent)
	_, err = r.Upsert(testItem("x"), "")
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.Equal(t, 0, r.Len())
}

func TestContentRegistry_AddHost(t *testing.T) {
	r := NewContentRegistry()
	_, err := r.Upsert(testItem("f1"), "p1")
	require.NoError(t, err)

	_, err = r.AddHost("f1", "p2")
	require.NoError(t, err)
	_, err = r.AddHost("f1", "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, r.HostsOf("f1"))

	_, err = r.AddHost("missing", "p2")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestContentRegistry_RemoveHost(t *testing.T) {
	r := NewContentRegistry()
	_, err := r.Upsert(testItem("f1"), "p1")
	require.NoError(t, err)
	_, err = r.AddHost("f1", "p2")
	require.NoError(t, err)

	deleted, snapshot, err := r.RemoveHost("f1", "p1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, []string{"p2"}, snapshot[0].Hosts)

	deleted, snapshot, err = r.RemoveHost("f1", "p2")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, snapshot)

	_, _, err = r.RemoveHost("f1", "p2")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestContentRegistry_RemoveSessionHostingCascades(t *testing.T) {
	r := NewContentRegistry()
	for _, id := range []string{"a", "b", "c"} {
		_, err := r.Upsert(testItem(id), "p1")
		require.NoError(t, err)
	}
	_, err := r.AddHost("b", "p2")
	require.NoError(t, err)

	removed, snapshot := r.RemoveSessionHosting("p1")
	assert.Equal(t, []string{"a", "c"}, removed)
	assert.Equal(t, []string{"b"}, ids(snapshot))
	assert.Equal(t, []string{"p2"}, r.HostsOf("b"))
	assert.Nil(t, r.HostsOf("a"))
}

func TestContentRegistry_RemoveSessionHostingIdempotent(t *testing.T) {
	r := NewContentRegistry()
	_, err := r.Upsert(testItem("a"), "p1")
	require.NoError(t, err)
	_, err = r.Upsert(testItem("b"), "p2")
	require.NoError(t, err)

	removed, first := r.RemoveSessionHosting("p1")
	assert.Equal(t, []string{"a"}, removed)

	removed, second := r.RemoveSessionHosting("p1")
	assert.Empty(t, removed)
	assert.Equal(t, first, second)
}

func TestContentRegistry_DerivedExistence(t *testing.T) {
	r := NewContentRegistry()
	check := func() {
		for _, item := range r.Snapshot() {
			assert.NotEmpty(t, item.Hosts, "item %s present with empty host set", item.ID)
		}
	}

	_, err := r.Upsert(testItem("a"), "p1")
	require.NoError(t, err)
	check()
	_, err = r.AddHost("a", "p2")
	require.NoError(t, err)
	check()
	r.RemoveSessionHosting("p1")
	check()
	_, _, err = r.RemoveHost("a", "p2")
	require.NoError(t, err)
	check()
	assert.Equal(t, 0, r.Len())
}

func TestContentRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewContentRegistry()
	snapshot, err := r.Upsert(testItem("a"), "p1")
	require.NoError(t, err)
	snapshot[0].Hosts[0] = "mutated"

	assert.Equal(t, []string{"p1"}, r.HostsOf("a"))
}
