package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/asprotests/hums-sub000/core/gradescale"
)

type scaleRepository struct {
	db *scaleTable
}

var _ gradescale.Repository = (*scaleRepository)(nil) // interface compliance check

func NewScaleRepository(db *DB) gradescale.Repository {
	return &scaleRepository{db: db.scale}
}

func copyScale(s *gradescale.Scale) gradescale.Scale {
	scale := *s
	scale.Definitions = append([]gradescale.Definition(nil), s.Definitions...)
	return scale
}

func withDefinitionIDs(defs []gradescale.Definition) []gradescale.Definition {
	res := make([]gradescale.Definition, 0, len(defs))
	for _, def := range defs {
		def.ID = uuid.New().String()
		res = append(res, def)
	}
	return res
}

func (repo *scaleRepository) GetScale(_ context.Context, id string) (gradescale.Scale, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if scale, ok := repo.db.table[id]; ok {
		return copyScale(scale), nil
	}
	return gradescale.Scale{}, gradescale.ErrNotFound
}

func (repo *scaleRepository) GetDefaultScale(_ context.Context) (gradescale.Scale, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, scale := range repo.db.table {
		if scale.IsDefault {
			return copyScale(scale), nil
		}
	}
	return gradescale.Scale{}, gradescale.ErrNoDefaultScale
}

func (repo *scaleRepository) QueryScales(_ context.Context) ([]gradescale.Scale, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	scales := make([]gradescale.Scale, 0, len(repo.db.table))
	for _, scale := range repo.db.table {
		scales = append(scales, copyScale(scale))
	}
	sort.Slice(scales, func(i, j int) bool {
		if scales[i].IsDefault != scales[j].IsDefault {
			return scales[i].IsDefault
		}
		return scales[i].Name < scales[j].Name
	})
	return scales, nil
}

func (repo *scaleRepository) CreateScale(_ context.Context, scale gradescale.Scale) (gradescale.Scale, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	scale.ID = uuid.New().String()
	scale.Definitions = withDefinitionIDs(scale.Definitions)
	scale.CreatedAt = now
	scale.UpdatedAt = now
	if scale.IsDefault {
		for _, s := range repo.db.table {
			s.IsDefault = false
		}
	}
	repo.db.table[scale.ID] = &scale
	return copyScale(&scale), nil
}

func (repo *scaleRepository) ReplaceScale(_ context.Context, scale gradescale.Scale) (gradescale.Scale, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[scale.ID]
	if !ok {
		return gradescale.Scale{}, gradescale.ErrNotFound
	}
	orig.Name = scale.Name
	orig.Description = scale.Description
	orig.Definitions = withDefinitionIDs(scale.Definitions)
	orig.UpdatedAt = time.Now().UTC()
	return copyScale(orig), nil
}

func (repo *scaleRepository) SetDefaultScale(_ context.Context, id string) (gradescale.Scale, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	scale, ok := repo.db.table[id]
	if !ok {
		return gradescale.Scale{}, gradescale.ErrNotFound
	}
	for _, s := range repo.db.table {
		s.IsDefault = s.ID == id
	}
	scale.UpdatedAt = time.Now().UTC()
	return copyScale(scale), nil
}

func (repo *scaleRepository) DeleteScale(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	scale, ok := repo.db.table[id]
	if !ok {
		return gradescale.ErrNotFound
	}
	if scale.IsDefault {
		return gradescale.ErrDeleteDefault
	}
	delete(repo.db.table, id)
	return nil
}
