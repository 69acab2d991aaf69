package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"flowmetrics/internal/core/apperror"
	"flowmetrics/internal/domain/workitem"
	"flowmetrics/pkg/logger"
)

var tracer = otel.Tracer("flowmetrics/storage")

// CompressionAlgo specifies the compression algorithm used for payloads.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// Snapshot is one persisted fetch result for a project.
type Snapshot struct {
	ID        uuid.UUID `db:"id"`
	Project   string    `db:"project"`
	QueryText string    `db:"query_text"`
	ItemCount int       `db:"item_count"`
	CreatedAt time.Time `db:"created_at"`
}

// snapshotItem is the storage row for a single work item payload.
type snapshotItem struct {
	SnapshotID        uuid.UUID       `db:"snapshot_id"`
	ItemID            int             `db:"item_id"`
	Payload           []byte          `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
}

// SnapshotStore persists fetched work items so reports can be produced
// without re-querying the tracker. Large field payloads are zstd
// compressed.
type SnapshotStore struct {
	pool              *Pool
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	log               *logger.Logger
}

// NewSnapshotStore creates a SnapshotStore.
func NewSnapshotStore(pool *Pool) (*SnapshotStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &SnapshotStore{
		pool:              pool,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
		log:               logger.Default().WithComponent("snapshot-store"),
	}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS work_item_snapshots (
	id UUID PRIMARY KEY,
	project TEXT NOT NULL,
	query_text TEXT NOT NULL,
	item_count INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_project_created
	ON work_item_snapshots (project, created_at DESC);

CREATE TABLE IF NOT EXISTS work_item_snapshot_items (
	snapshot_id UUID NOT NULL REFERENCES work_item_snapshots (id) ON DELETE CASCADE,
	item_id INT NOT NULL,
	payload JSONB,
	payload_compressed BYTEA,
	compression_algo TEXT NOT NULL DEFAULT 'none',
	PRIMARY KEY (snapshot_id, item_id)
);
`

// EnsureSchema creates the snapshot tables when missing.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func (s *SnapshotStore) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Save persists a fetch result and returns the snapshot id.
func (s *SnapshotStore) Save(ctx context.Context, project, queryText string, items []workitem.WorkItem) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "snapshot.Save")
	span.SetAttributes(attribute.String("project", project), attribute.Int("items", len(items)))
	defer span.End()

	snap := Snapshot{
		ID:        uuid.New(),
		Project:   project,
		QueryText: queryText,
		ItemCount: len(items),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	sql, args, err := s.insertSnapshotQuery(snap).ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("build snapshot insert: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return uuid.Nil, fmt.Errorf("insert snapshot: %w", err)
	}

	for _, item := range items {
		row, err := s.toRow(snap.ID, item)
		if err != nil {
			return uuid.Nil, err
		}

		sql, args, err := s.insertItemQuery(row).ToSql()
		if err != nil {
			return uuid.Nil, fmt.Errorf("build item insert: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return uuid.Nil, fmt.Errorf("insert snapshot item %d: %w", row.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit snapshot: %w", err)
	}

	s.log.Infow("saved snapshot", "project", project, "snapshot_id", snap.ID, "items", len(items))
	return snap.ID, nil
}

// LoadLatest returns the items of the most recent snapshot for a project.
func (s *SnapshotStore) LoadLatest(ctx context.Context, project string) ([]workitem.WorkItem, error) {
	ctx, span := tracer.Start(ctx, "snapshot.LoadLatest")
	span.SetAttributes(attribute.String("project", project))
	defer span.End()

	sql, args, err := s.latestSnapshotQuery(project).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest snapshot query: %w", err)
	}

	var snap Snapshot
	if err := pgxscan.Get(ctx, s.pool, &snap, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("snapshot", project)
		}
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	sql, args, err = s.itemsQuery(snap.ID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build snapshot items query: %w", err)
	}

	var rows []snapshotItem
	if err := pgxscan.Select(ctx, s.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("load snapshot items: %w", err)
	}

	items := make([]workitem.WorkItem, 0, len(rows))
	for _, row := range rows {
		item, err := s.fromRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// List returns recent snapshots for a project, newest first.
func (s *SnapshotStore) List(ctx context.Context, project string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	sql, args, err := s.listSnapshotsQuery(project, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build snapshot list query: %w", err)
	}

	var snaps []Snapshot
	if err := pgxscan.Select(ctx, s.pool, &snaps, sql, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

func (s *SnapshotStore) insertSnapshotQuery(snap Snapshot) squirrel.InsertBuilder {
	return s.builder().
		Insert("work_item_snapshots").
		Columns("id", "project", "query_text", "item_count", "created_at").
		Values(snap.ID, snap.Project, snap.QueryText, snap.ItemCount, snap.CreatedAt)
}

func (s *SnapshotStore) insertItemQuery(row snapshotItem) squirrel.InsertBuilder {
	return s.builder().
		Insert("work_item_snapshot_items").
		Columns("snapshot_id", "item_id", "payload", "payload_compressed", "compression_algo").
		Values(row.SnapshotID, row.ItemID, row.Payload, row.PayloadCompressed, row.CompressionAlgo)
}

func (s *SnapshotStore) latestSnapshotQuery(project string) squirrel.SelectBuilder {
	return s.builder().
		Select("id", "project", "query_text", "item_count", "created_at").
		From("work_item_snapshots").
		Where(squirrel.Eq{"project": project}).
		OrderBy("created_at DESC").
		Limit(1)
}

func (s *SnapshotStore) itemsQuery(snapshotID uuid.UUID) squirrel.SelectBuilder {
	return s.builder().
		Select("snapshot_id", "item_id", "payload", "payload_compressed", "compression_algo").
		From("work_item_snapshot_items").
		Where(squirrel.Eq{"snapshot_id": snapshotID}).
		OrderBy("item_id")
}

func (s *SnapshotStore) listSnapshotsQuery(project string, limit int) squirrel.SelectBuilder {
	return s.builder().
		Select("id", "project", "query_text", "item_count", "created_at").
		From("work_item_snapshots").
		Where(squirrel.Eq{"project": project}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
}

// toRow serializes the item fields, compressing payloads above the
// threshold.
func (s *SnapshotStore) toRow(snapshotID uuid.UUID, item workitem.WorkItem) (snapshotItem, error) {
	payload, err := json.Marshal(item.Fields)
	if err != nil {
		return snapshotItem{}, fmt.Errorf("marshal item %d fields: %w", item.ID, err)
	}

	row := snapshotItem{
		SnapshotID:      snapshotID,
		ItemID:          item.ID,
		Payload:         payload,
		CompressionAlgo: CompressionNone,
	}

	if len(payload) > s.compressThreshold {
		row.PayloadCompressed = s.encoder.EncodeAll(payload, nil)
		row.Payload = nil
		row.CompressionAlgo = CompressionZstd
	}
	return row, nil
}

func (s *SnapshotStore) fromRow(row snapshotItem) (workitem.WorkItem, error) {
	payload := row.Payload
	if row.CompressionAlgo == CompressionZstd {
		decoded, err := s.decoder.DecodeAll(row.PayloadCompressed, nil)
		if err != nil {
			return workitem.WorkItem{}, fmt.Errorf("decompress item %d payload: %w", row.ItemID, err)
		}
		payload = decoded
	}

	var fields map[string]any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return workitem.WorkItem{}, fmt.Errorf("unmarshal item %d fields: %w", row.ItemID, err)
		}
	}
	return workitem.WorkItem{ID: row.ItemID, Fields: fields}, nil
}
