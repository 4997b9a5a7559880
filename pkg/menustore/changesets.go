package menustore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"github.com/goliatone/go-customize/pkg/changeset"
)

// Load implements changeset.Store. The payload digest is verified before the
// values are trusted.
func (s *Store) Load(ctx context.Context, ref changeset.Ref) (changeset.Changeset, changeset.Meta, bool, error) {
	scope, id, err := refKey(ref)
	if err != nil {
		return changeset.Changeset{}, changeset.Meta{}, false, err
	}

	var cs changeset.Changeset
	var meta changeset.Meta
	var publishAt sql.NullInt64
	var payload []byte
	var digest string
	var updatedAt int64
	err = s.db.QueryRowContext(ctx,
		"SELECT status, publish_at, revision, payload, digest, updated_at FROM changesets WHERE scope = ? AND uuid = ?",
		scope, id,
	).Scan(&cs.Status, &publishAt, &meta.Revision, &payload, &digest, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return changeset.Changeset{}, changeset.Meta{}, false, nil
	}
	if err != nil {
		return changeset.Changeset{}, changeset.Meta{}, false, fmt.Errorf("menustore: load changeset %s: %w", id, err)
	}

	raw, err := decompressPayload(payload)
	if err != nil {
		return changeset.Changeset{}, changeset.Meta{}, false, fmt.Errorf("menustore: load changeset %s: %w", id, err)
	}
	if got := payloadDigest(raw); got != digest {
		return changeset.Changeset{}, changeset.Meta{}, false, fmt.Errorf("menustore: changeset %s payload digest mismatch", id)
	}
	if err := json.Unmarshal(raw, &cs.Values); err != nil {
		return changeset.Changeset{}, changeset.Meta{}, false, fmt.Errorf("menustore: decode changeset %s: %w", id, err)
	}

	if publishAt.Valid {
		at := time.Unix(publishAt.Int64, 0).UTC()
		cs.PublishAt = &at
	}
	meta.ETag = digest
	meta.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return cs, meta, true, nil
}

// Save implements changeset.Store. The staged values are stored as a
// zstd-compressed JSON blob; the blake3 digest of the uncompressed JSON
// becomes the authoritative ETag.
func (s *Store) Save(ctx context.Context, ref changeset.Ref, cs changeset.Changeset, meta changeset.Meta) (changeset.Meta, error) {
	scope, id, err := refKey(ref)
	if err != nil {
		return changeset.Meta{}, err
	}

	values := cs.Values
	if values == nil {
		values = map[string]any{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return changeset.Meta{}, fmt.Errorf("menustore: encode changeset %s: %w", id, err)
	}
	payload, err := compressPayload(raw)
	if err != nil {
		return changeset.Meta{}, fmt.Errorf("menustore: encode changeset %s: %w", id, err)
	}
	digest := payloadDigest(raw)

	var publishAt sql.NullInt64
	if cs.PublishAt != nil {
		publishAt = sql.NullInt64{Int64: cs.PublishAt.Unix(), Valid: true}
	}
	updatedAt := meta.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO changesets (scope, uuid, status, publish_at, revision, payload, digest, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope, uuid) DO UPDATE SET
			status = excluded.status, publish_at = excluded.publish_at,
			revision = excluded.revision, payload = excluded.payload,
			digest = excluded.digest, updated_at = excluded.updated_at`,
		scope, id, cs.Status, publishAt, meta.Revision, payload, digest, updatedAt.Unix(),
	)
	if err != nil {
		return changeset.Meta{}, fmt.Errorf("menustore: save changeset %s: %w", id, err)
	}

	out := meta
	out.ETag = digest
	out.UpdatedAt = updatedAt
	return out, nil
}

// Delete implements changeset.Store. Deleting an absent changeset is a no-op.
func (s *Store) Delete(ctx context.Context, ref changeset.Ref) error {
	scope, id, err := refKey(ref)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM changesets WHERE scope = ? AND uuid = ?", scope, id,
	); err != nil {
		return fmt.Errorf("menustore: delete changeset %s: %w", id, err)
	}
	return nil
}

// ListChangesets returns the stored refs for scope, optionally filtered by
// status. Refs come back ordered by update time, oldest first.
func (s *Store) ListChangesets(ctx context.Context, scope, status string) ([]changeset.Ref, error) {
	query := "SELECT uuid FROM changesets WHERE scope = ? ORDER BY updated_at, uuid"
	args := []any{scope}
	if status != "" {
		query = "SELECT uuid FROM changesets WHERE scope = ? AND status = ? ORDER BY updated_at, uuid"
		args = append(args, status)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("menustore: list changesets: %w", err)
	}
	defer rows.Close()

	var out []changeset.Ref
	for rows.Next() {
		ref := changeset.Ref{Scope: scope}
		if err := rows.Scan(&ref.UUID); err != nil {
			return nil, fmt.Errorf("menustore: list changesets: %w", err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("menustore: list changesets: %w", err)
	}
	return out, nil
}

func refKey(ref changeset.Ref) (scope, id string, err error) {
	if _, err := ref.Identifier(); err != nil {
		return "", "", err
	}
	parsed, err := uuid.Parse(ref.UUID)
	if err != nil {
		return "", "", fmt.Errorf("menustore: invalid uuid %q: %w", ref.UUID, err)
	}
	return ref.Scope, parsed.String(), nil
}

func compressPayload(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := encoder.Write(raw); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressPayload(payload []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return raw, nil
}

func payloadDigest(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
