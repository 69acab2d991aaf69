package postgres

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowmetrics/internal/domain/workitem"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()

	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	decoder, err := zstd.NewReader(nil)
	require.NoError(t, err)

	return &SnapshotStore{
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}
}

func TestInsertSnapshotQuery(t *testing.T) {
	s := newTestStore(t)
	snap := Snapshot{
		ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Project:   "Fabrikam",
		QueryText: "SELECT [System.Id] FROM WorkItems",
		ItemCount: 2,
		CreatedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	sql, args, err := s.insertSnapshotQuery(snap).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO work_item_snapshots (id,project,query_text,item_count,created_at) VALUES ($1,$2,$3,$4,$5)",
		sql)
	assert.Len(t, args, 5)
	assert.Equal(t, "Fabrikam", args[1])
	assert.Equal(t, 2, args[3])
}

func TestLatestSnapshotQuery(t *testing.T) {
	s := newTestStore(t)

	sql, args, err := s.latestSnapshotQuery("Fabrikam").ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, project, query_text, item_count, created_at FROM work_item_snapshots WHERE project = $1 ORDER BY created_at DESC LIMIT 1",
		sql)
	assert.Equal(t, []interface{}{"Fabrikam"}, args)
}

func TestItemsQuery(t *testing.T) {
	s := newTestStore(t)
	id := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	sql, args, err := s.itemsQuery(id).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT snapshot_id, item_id, payload, payload_compressed, compression_algo FROM work_item_snapshot_items WHERE snapshot_id = $1 ORDER BY item_id",
		sql)
	assert.Equal(t, []interface{}{id}, args)
}

func TestListSnapshotsQuery_DefaultLimit(t *testing.T) {
	s := newTestStore(t)

	sql, _, err := s.listSnapshotsQuery("Fabrikam", 5).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT 5")
}

func TestToRow_SmallPayloadStaysPlain(t *testing.T) {
	s := newTestStore(t)
	item := workitem.WorkItem{ID: 42, Fields: map[string]any{
		"System.Title": "Fix login bug",
		"System.State": "Active",
	}}

	row, err := s.toRow(uuid.New(), item)
	require.NoError(t, err)

	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.Nil(t, row.PayloadCompressed)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(row.Payload, &fields))
	assert.Equal(t, "Fix login bug", fields["System.Title"])
}

func TestToRow_LargePayloadCompressed(t *testing.T) {
	s := newTestStore(t)
	item := workitem.WorkItem{ID: 7, Fields: map[string]any{
		"System.Description": strings.Repeat("steps to reproduce ", 1000),
	}}

	row, err := s.toRow(uuid.New(), item)
	require.NoError(t, err)

	assert.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Payload)
	assert.NotEmpty(t, row.PayloadCompressed)
	assert.Less(t, len(row.PayloadCompressed), 19*1000)
}

func TestRowRoundTrip(t *testing.T) {
	s := newTestStore(t)

	items := []workitem.WorkItem{
		{ID: 1, Fields: map[string]any{"System.Title": "small"}},
		{ID: 2, Fields: map[string]any{"System.Description": strings.Repeat("x", 10_000)}},
	}

	for _, item := range items {
		row, err := s.toRow(uuid.New(), item)
		require.NoError(t, err)

		got, err := s.fromRow(row)
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, item.Fields, got.Fields)
	}
}
