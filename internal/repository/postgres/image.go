package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amezhin/eduseek/internal/models"
)

type ImageRepo struct {
	DB DBTX
}

const saveImage = `-- name: SaveImage
INSERT INTO images (id, owner_kind, owner_id, filename, content_type, size_bytes, url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, owner_kind, owner_id, filename, content_type, size_bytes, url
`

func (r *ImageRepo) Save(ctx context.Context, image models.Image) (models.Image, error) {
	rows, _ := r.DB.Query(ctx, saveImage,
		image.ID, image.OwnerKind, image.OwnerID, image.Filename, image.ContentType, image.SizeBytes, image.URL,
	)
	saved, err := pgx.CollectOneRow(rows, rowToImage)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const listImagesByOwner = `-- name: ListImagesByOwner
SELECT id, created_at, owner_kind, owner_id, filename, content_type, size_bytes, url
FROM images
WHERE owner_kind = $1 AND owner_id = $2
ORDER BY created_at
`

func (r *ImageRepo) ListByOwner(ctx context.Context, ownerKind string, ownerID uuid.UUID) ([]models.Image, error) {
	rows, _ := r.DB.Query(ctx, listImagesByOwner, ownerKind, ownerID)
	images, err := pgx.CollectRows(rows, rowToImage)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return images, nil
}

func rowToImage(row pgx.CollectableRow) (models.Image, error) {
	var i models.Image
	err := row.Scan(&i.ID, &i.CreatedAt, &i.OwnerKind, &i.OwnerID, &i.Filename, &i.ContentType, &i.SizeBytes, &i.URL)
	return i, err
}
