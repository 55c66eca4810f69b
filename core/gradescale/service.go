package gradescale

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/asprotests/hums-sub000/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("grade scale")
	ErrNoDefaultScale  = core.NewNotFoundError("default grade scale")
	ErrDeleteDefault   = core.NewBadRequestError("cannot delete the default grade scale")
	ErrDefaultConflict = errors.New("another default grade scale was set concurrently")
)

type (
	Repository interface {
		GetScale(ctx context.Context, id string) (Scale, error)
		GetDefaultScale(ctx context.Context) (Scale, error)
		// QueryScales lists all scales, the default one first then by name.
		QueryScales(ctx context.Context) ([]Scale, error)
		// CreateScale inserts scale and its definitions.
		// If scale.IsDefault, the previous default is cleared in the same transaction.
		CreateScale(ctx context.Context, scale Scale) (Scale, error)
		// ReplaceScale updates name & description and replaces ALL definitions in one transaction.
		ReplaceScale(ctx context.Context, scale Scale) (Scale, error)
		// SetDefaultScale clears the old default and sets the new one in a single atomic write.
		SetDefaultScale(ctx context.Context, id string) (Scale, error)
		DeleteScale(ctx context.Context, id string) error
	}

	// Registry owns the grade scales and resolves percentages to letter grades.
	Registry struct {
		repo     Repository
		validate *validator.Validate
		audit    core.AuditSink
		logger   core.Logger
	}
)

func NewRegistry(repo Repository, validate *validator.Validate, audit core.AuditSink, logger core.Logger) *Registry {
	return &Registry{
		repo:     repo,
		validate: validate,
		audit:    audit,
		logger:   logger,
	}
}

// EnsureDefaultScale returns the default scale, installing DefaultScale() if there is none.
// It is idempotent and safe to race: the loser of a concurrent install reads the winner's scale.
func (reg *Registry) EnsureDefaultScale(ctx context.Context) (Scale, error) {
	scale, err := reg.repo.GetDefaultScale(ctx)
	if err == nil {
		return scale, nil
	}
	if pkgerrors.Cause(err) != ErrNoDefaultScale {
		return Scale{}, pkgerrors.Wrap(err, "getting default scale")
	}

	scale, err = reg.repo.CreateScale(ctx, DefaultScale())
	if err != nil {
		if pkgerrors.Cause(err) == ErrDefaultConflict {
			return reg.repo.GetDefaultScale(ctx)
		}
		return Scale{}, pkgerrors.Wrap(err, "creating default scale")
	}
	reg.logger.Info(fmt.Sprintf("installed default grade scale %q (%s)", scale.Name, scale.ID))
	return scale, nil
}

func (reg *Registry) GetScale(ctx context.Context, id string) (Scale, error) {
	return reg.repo.GetScale(ctx, id)
}

// GetDefaultScale never writes; see EnsureDefaultScale.
func (reg *Registry) GetDefaultScale(ctx context.Context) (Scale, error) {
	return reg.repo.GetDefaultScale(ctx)
}

func (reg *Registry) QueryScales(ctx context.Context) ([]Scale, error) {
	return reg.repo.QueryScales(ctx)
}

// ResolveLetter resolves pct against the scale identified by scaleID, or the default scale if empty.
// Only the scale lookup can fail; any percentage resolves.
func (reg *Registry) ResolveLetter(ctx context.Context, pct float64, scaleID string) (Resolution, error) {
	var scale Scale
	var err error
	if scaleID != "" {
		scale, err = reg.repo.GetScale(ctx, scaleID)
	} else {
		scale, err = reg.repo.GetDefaultScale(ctx)
	}
	if err != nil {
		return Resolution{}, err
	}
	return scale.Resolve(pct), nil
}

func (reg *Registry) CreateScale(ctx context.Context, ns NewScale, actorID string) (Scale, error) {
	if err := ns.Validate(reg.validate); err != nil {
		return Scale{}, err
	}
	defs := append([]Definition(nil), ns.Definitions...)
	SortDefinitions(defs)

	scale, err := reg.repo.CreateScale(ctx, Scale{
		Name:        ns.Name,
		Description: ns.Description,
		IsDefault:   ns.IsDefault,
		Definitions: defs,
	})
	if err != nil {
		return Scale{}, pkgerrors.Wrap(err, "creating scale")
	}

	core.RecordAudit(ctx, reg.audit, reg.logger, core.AuditEvent{
		Action:   core.AuditCreateScale,
		Entity:   "grade_scale",
		EntityID: scale.ID,
		ActorID:  actorID,
		After:    scale,
	})
	return scale, nil
}

// UpdateScale replaces the name, description and every definition of the scale.
func (reg *Registry) UpdateScale(ctx context.Context, id string, us UpdateScale, actorID string) (Scale, error) {
	if err := us.Validate(reg.validate); err != nil {
		return Scale{}, err
	}
	orig, err := reg.repo.GetScale(ctx, id)
	if err != nil {
		return Scale{}, err
	}

	defs := append([]Definition(nil), us.Definitions...)
	SortDefinitions(defs)
	upd := orig
	upd.Name = us.Name
	upd.Description = us.Description
	upd.Definitions = defs

	scale, err := reg.repo.ReplaceScale(ctx, upd)
	if err != nil {
		return Scale{}, pkgerrors.Wrap(err, "replacing scale")
	}

	core.RecordAudit(ctx, reg.audit, reg.logger, core.AuditEvent{
		Action:   core.AuditUpdateScale,
		Entity:   "grade_scale",
		EntityID: scale.ID,
		ActorID:  actorID,
		Before:   orig,
		After:    scale,
	})
	return scale, nil
}

func (reg *Registry) SetDefault(ctx context.Context, id, actorID string) (Scale, error) {
	var prevID string
	if prev, err := reg.repo.GetDefaultScale(ctx); err == nil {
		prevID = prev.ID
	} else if pkgerrors.Cause(err) != ErrNoDefaultScale {
		return Scale{}, pkgerrors.Wrap(err, "getting default scale")
	}

	scale, err := reg.repo.SetDefaultScale(ctx, id)
	if err != nil {
		return Scale{}, err
	}

	core.RecordAudit(ctx, reg.audit, reg.logger, core.AuditEvent{
		Action:   core.AuditSetDefaultScale,
		Entity:   "grade_scale",
		EntityID: scale.ID,
		ActorID:  actorID,
		Before:   map[string]string{"default_scale_id": prevID},
		After:    map[string]string{"default_scale_id": scale.ID},
	})
	return scale, nil
}

func (reg *Registry) DeleteScale(ctx context.Context, id, actorID string) error {
	scale, err := reg.repo.GetScale(ctx, id)
	if err != nil {
		return err
	}
	if scale.IsDefault {
		return ErrDeleteDefault
	}
	if err = reg.repo.DeleteScale(ctx, id); err != nil {
		return err
	}

	core.RecordAudit(ctx, reg.audit, reg.logger, core.AuditEvent{
		Action:   core.AuditDeleteScale,
		Entity:   "grade_scale",
		EntityID: id,
		ActorID:  actorID,
		Before:   scale,
	})
	return nil
}
