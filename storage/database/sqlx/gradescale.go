package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/asprotests/hums-sub000/core/gradescale"
)

const scaleColumns = "id, name, description, is_default, created_at, updated_at"

type (
	scaleRepository struct {
		db *sqlx.DB
	}

	scaleRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		IsDefault   bool      `db:"is_default"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	definitionRow struct {
		ID            string  `db:"id"`
		ScaleID       string  `db:"scale_id"`
		Letter        string  `db:"letter"`
		MinPercentage float64 `db:"min_percentage"`
		MaxPercentage float64 `db:"max_percentage"`
		GradePoints   float64 `db:"grade_points"`
		Description   string  `db:"description"`
	}
)

var _ gradescale.Repository = (*scaleRepository)(nil) // interface compliance check

func NewScaleRepository(db *sqlx.DB) gradescale.Repository {
	return &scaleRepository{db: db}
}

func (r scaleRow) scale(defs []definitionRow) gradescale.Scale {
	scale := gradescale.Scale{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsDefault:   r.IsDefault,
		Definitions: make([]gradescale.Definition, 0, len(defs)),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	for _, d := range defs {
		scale.Definitions = append(scale.Definitions, gradescale.Definition{
			ID:            d.ID,
			Letter:        d.Letter,
			MinPercentage: d.MinPercentage,
			MaxPercentage: d.MaxPercentage,
			GradePoints:   d.GradePoints,
			Description:   d.Description,
		})
	}
	return scale
}

// definitions returns the definitions of the scales, by scale id, in lookup order.
func definitions(ctx context.Context, q sqlx.QueryerContext, scaleIDs ...string) (map[string][]definitionRow, error) {
	res := make(map[string][]definitionRow, len(scaleIDs))
	if len(scaleIDs) == 0 {
		return res, nil
	}
	query, args, err := sqlx.In(`SELECT id, scale_id, letter, min_percentage, max_percentage, grade_points, description
FROM grade_definitions WHERE scale_id IN (?) ORDER BY min_percentage DESC`, scaleIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building definitions query")
	}

	var rows []definitionRow
	if err = sqlx.SelectContext(ctx, q, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, errors.Wrap(err, "selecting definitions")
	}
	for _, r := range rows {
		res[r.ScaleID] = append(res[r.ScaleID], r)
	}
	return res, nil
}

func (repo *scaleRepository) getWhere(ctx context.Context, q sqlx.QueryerContext, notFound error, where string, args ...interface{}) (gradescale.Scale, error) {
	var row scaleRow
	if err := sqlx.GetContext(ctx, q, &row, "SELECT "+scaleColumns+" FROM grade_scales WHERE "+where, args...); err != nil {
		if err == sql.ErrNoRows {
			return gradescale.Scale{}, notFound
		}
		return gradescale.Scale{}, errors.Wrap(err, "selecting scale")
	}
	defs, err := definitions(ctx, q, row.ID)
	if err != nil {
		return gradescale.Scale{}, err
	}
	return row.scale(defs[row.ID]), nil
}

func (repo *scaleRepository) GetScale(ctx context.Context, id string) (gradescale.Scale, error) {
	if !validID(id) {
		return gradescale.Scale{}, gradescale.ErrNotFound
	}
	return repo.getWhere(ctx, repo.db, gradescale.ErrNotFound, "id = $1", id)
}

func (repo *scaleRepository) GetDefaultScale(ctx context.Context) (gradescale.Scale, error) {
	return repo.getWhere(ctx, repo.db, gradescale.ErrNoDefaultScale, "is_default")
}

func (repo *scaleRepository) QueryScales(ctx context.Context) ([]gradescale.Scale, error) {
	var rows []scaleRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+scaleColumns+" FROM grade_scales ORDER BY is_default DESC, name"); err != nil {
		return nil, errors.Wrap(err, "selecting scales")
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	defs, err := definitions(ctx, repo.db, ids...)
	if err != nil {
		return nil, err
	}

	scales := make([]gradescale.Scale, 0, len(rows))
	for _, r := range rows {
		scales = append(scales, r.scale(defs[r.ID]))
	}
	return scales, nil
}

func insertDefinitions(ctx context.Context, tx *sqlx.Tx, scaleID string, defs []gradescale.Definition) error {
	q := `INSERT INTO grade_definitions (id, scale_id, letter, min_percentage, max_percentage, grade_points, description)
VALUES (:id, :scale_id, :letter, :min_percentage, :max_percentage, :grade_points, :description)`
	for _, d := range defs {
		row := definitionRow{
			ID:            uuid.New().String(),
			ScaleID:       scaleID,
			Letter:        d.Letter,
			MinPercentage: d.MinPercentage,
			MaxPercentage: d.MaxPercentage,
			GradePoints:   d.GradePoints,
			Description:   d.Description,
		}
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrapf(err, "inserting definition %q", d.Letter)
		}
	}
	return nil
}

// commit maps a default scale constraint violation, deferred to commit time, to gradescale.ErrDefaultConflict.
func commit(tx *sqlx.Tx) error {
	if err := tx.Commit(); err != nil {
		if isConflict(err) {
			return gradescale.ErrDefaultConflict
		}
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

func (repo *scaleRepository) CreateScale(ctx context.Context, scale gradescale.Scale) (gradescale.Scale, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return gradescale.Scale{}, errors.Wrap(err, "beginning transaction")
	}

	now := time.Now().UTC()
	row := scaleRow{
		ID:          uuid.New().String(),
		Name:        scale.Name,
		Description: scale.Description,
		IsDefault:   scale.IsDefault,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if row.IsDefault {
		if _, err = tx.ExecContext(ctx, `UPDATE grade_scales SET is_default = false, updated_at = $1 WHERE is_default`, now); err != nil {
			return gradescale.Scale{}, rollback(tx, err, "clearing default scale")
		}
	}
	q := `INSERT INTO grade_scales (id, name, description, is_default, created_at, updated_at)
VALUES (:id, :name, :description, :is_default, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, q, row); err != nil {
		if isConflict(err) {
			_ = tx.Rollback()
			return gradescale.Scale{}, gradescale.ErrDefaultConflict
		}
		return gradescale.Scale{}, rollback(tx, err, "inserting scale")
	}
	if err = insertDefinitions(ctx, tx, row.ID, scale.Definitions); err != nil {
		return gradescale.Scale{}, rollback(tx, err, "inserting definitions")
	}
	if err = commit(tx); err != nil {
		return gradescale.Scale{}, err
	}
	return repo.GetScale(ctx, row.ID)
}

func (repo *scaleRepository) ReplaceScale(ctx context.Context, scale gradescale.Scale) (gradescale.Scale, error) {
	if !validID(scale.ID) {
		return gradescale.Scale{}, gradescale.ErrNotFound
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return gradescale.Scale{}, errors.Wrap(err, "beginning transaction")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE grade_scales SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		scale.Name, scale.Description, time.Now().UTC(), scale.ID,
	)
	if err != nil {
		return gradescale.Scale{}, rollback(tx, err, "updating scale")
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		_ = tx.Rollback()
		if err != nil {
			return gradescale.Scale{}, errors.Wrap(err, "updating scale")
		}
		return gradescale.Scale{}, gradescale.ErrNotFound
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM grade_definitions WHERE scale_id = $1`, scale.ID); err != nil {
		return gradescale.Scale{}, rollback(tx, err, "deleting definitions")
	}
	if err = insertDefinitions(ctx, tx, scale.ID, scale.Definitions); err != nil {
		return gradescale.Scale{}, rollback(tx, err, "inserting definitions")
	}
	if err = commit(tx); err != nil {
		return gradescale.Scale{}, err
	}
	return repo.GetScale(ctx, scale.ID)
}

// SetDefaultScale swaps the default flag in one statement; the constraint is only checked once it has completed.
func (repo *scaleRepository) SetDefaultScale(ctx context.Context, id string) (gradescale.Scale, error) {
	if !validID(id) {
		return gradescale.Scale{}, gradescale.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `
UPDATE grade_scales SET is_default = (id = $1), updated_at = $2
WHERE (id = $1 OR is_default) AND EXISTS (SELECT 1 FROM grade_scales WHERE id = $1)`,
		id, time.Now().UTC(),
	)
	if err != nil {
		if isConflict(err) {
			return gradescale.Scale{}, gradescale.ErrDefaultConflict
		}
		return gradescale.Scale{}, errors.Wrap(err, "setting default scale")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gradescale.Scale{}, errors.Wrap(err, "setting default scale")
	}
	if n == 0 {
		return gradescale.Scale{}, gradescale.ErrNotFound
	}
	return repo.GetScale(ctx, id)
}

func (repo *scaleRepository) DeleteScale(ctx context.Context, id string) error {
	if !validID(id) {
		return gradescale.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grade_scales WHERE id = $1 AND NOT is_default`, id)
	if err != nil {
		return errors.Wrap(err, "deleting scale")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting scale")
	}
	if n > 0 {
		return nil
	}

	// nothing deleted: unknown or default
	if _, err = repo.GetScale(ctx, id); err != nil {
		return err
	}
	return gradescale.ErrDeleteDefault
}
