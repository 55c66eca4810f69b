package grading

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gradescale"
)

var NowFunc = time.Now // mockable

type (
	// ScaleProvider provides the scale final grades are resolved against.
	ScaleProvider interface {
		GetDefaultScale(ctx context.Context) (gradescale.Scale, error)
	}

	// Service resolves final grades and finalizes them.
	Service struct {
		repo   Repository
		scales ScaleProvider
		audit  core.AuditSink
		logger core.Logger
	}

	// finalState is the audited snapshot of an enrollment's finalize fields.
	finalState struct {
		EnrollmentID    string     `json:"enrollment_id"`
		FinalPercentage *float64   `json:"final_percentage"`
		FinalGrade      *string    `json:"final_grade"`
		GradePoints     *float64   `json:"grade_points"`
		IsFinalized     bool       `json:"is_finalized"`
		FinalizedAt     *time.Time `json:"finalized_at"`
		FinalizedByID   *string    `json:"finalized_by_id"`
	}
)

func NewService(repo Repository, scales ScaleProvider, audit core.AuditSink, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		scales: scales,
		audit:  audit,
		logger: logger,
	}
}

func snapshot(enrs []Enrollment) []finalState {
	states := make([]finalState, 0, len(enrs))
	for _, e := range enrs {
		states = append(states, finalState{
			EnrollmentID:    e.ID,
			FinalPercentage: e.FinalPercentage,
			FinalGrade:      e.FinalGrade,
			GradePoints:     e.GradePoints,
			IsFinalized:     e.IsFinalized,
			FinalizedAt:     e.FinalizedAt,
			FinalizedByID:   e.FinalizedByID,
		})
	}
	return states
}

func badRequest(err error) error {
	if err == nil {
		return nil
	}
	return core.NewBadRequestError(err.Error())
}

func calculate(enr Enrollment, scale gradescale.Scale) (CalculatedGrade, error) {
	scores, err := ScoreComponents(enr.Class.Components, enr.Entries)
	if err != nil {
		return CalculatedGrade{}, errors.Wrapf(err, "scoring enrollment %s", enr.ID)
	}
	total := TotalPercentage(scores)
	res := scale.Resolve(total)
	return CalculatedGrade{
		EnrollmentID:    enr.ID,
		StudentID:       enr.StudentID,
		ClassID:         enr.ClassID,
		Components:      scores,
		TotalPercentage: total,
		Letter:          res.Letter,
		GradePoints:     res.GradePoints,
		Description:     res.Description,
	}, nil
}

// ComputeFinalGrade computes the enrollment's grade from its current entries, against the default scale.
// Nothing is cached nor written.
func (svc *Service) ComputeFinalGrade(ctx context.Context, enrollmentID string) (CalculatedGrade, error) {
	enr, err := svc.repo.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return CalculatedGrade{}, err
	}
	scale, err := svc.scales.GetDefaultScale(ctx)
	if err != nil {
		return CalculatedGrade{}, errors.Wrap(err, "getting default scale")
	}
	return calculate(enr, scale)
}

// ComputeClassGrades computes the grades of the class's REGISTERED enrollments, best first.
// Ties keep enrollment order. An enrollment that fails to compute is logged and left out.
func (svc *Service) ComputeClassGrades(ctx context.Context, classID string) ([]CalculatedGrade, error) {
	grades, _, err := svc.computeClassGrades(ctx, classID)
	return grades, err
}

func (svc *Service) computeClassGrades(ctx context.Context, classID string) ([]CalculatedGrade, []Enrollment, error) {
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return nil, nil, err
	}
	enrs, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{ClassID: classID, Statuses: []Status{StatusRegistered}})
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying class enrollments")
	}
	scale, err := svc.scales.GetDefaultScale(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting default scale")
	}

	grades := make([]CalculatedGrade, 0, len(enrs))
	for _, e := range enrs {
		if err = ctx.Err(); err != nil {
			return nil, nil, err
		}
		enr, err := svc.repo.GetEnrollment(ctx, e.ID)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("skipping enrollment %s of class %s: %v", e.ID, classID, err), err)
			continue
		}
		grade, err := calculate(enr, scale)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("skipping enrollment %s of class %s: %v", e.ID, classID, err), err)
			continue
		}
		grades = append(grades, grade)
	}

	sort.SliceStable(grades, func(i, j int) bool { return grades[i].TotalPercentage > grades[j].TotalPercentage })
	return grades, enrs, nil
}

// FinalizeClass computes the class grades and locks them into their enrollments.
// All writes happen in one transaction; re-running with unchanged entries rewrites the same values.
// Enrollments that failed to compute are neither written nor returned.
func (svc *Service) FinalizeClass(ctx context.Context, classID, actorID string) ([]CalculatedGrade, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(classID, "classID"),
		vala.StringNotEmpty(actorID, "actorID"),
	).Check(); err != nil {
		return nil, badRequest(err)
	}

	grades, enrs, err := svc.computeClassGrades(ctx, classID)
	if err != nil {
		return nil, err
	}

	now := NowFunc().UTC()
	fins := make([]Finalization, 0, len(grades))
	for _, g := range grades {
		fins = append(fins, Finalization{
			EnrollmentID:    g.EnrollmentID,
			FinalPercentage: g.TotalPercentage,
			FinalGrade:      g.Letter,
			GradePoints:     g.GradePoints,
			FinalizedAt:     now,
			FinalizedByID:   actorID,
		})
	}
	if len(fins) > 0 {
		if err = svc.repo.FinalizeEnrollments(ctx, fins); err != nil {
			return nil, errors.Wrapf(err, "finalizing class %s", classID)
		}
	}

	svc.logger.Info(fmt.Sprintf("finalized %d of %d enrollments of class %s", len(fins), len(enrs), classID))
	core.RecordAudit(ctx, svc.audit, svc.logger, core.AuditEvent{
		Action:   core.AuditFinalizeClass,
		Entity:   "class",
		EntityID: classID,
		ActorID:  actorID,
		Before:   snapshot(enrs),
		After:    fins,
		At:       now,
	})
	return grades, nil
}

// UnfinalizeClass unlocks every enrollment of the class, keeping their last computed values.
// reason is required; it is only passed on to the audit sink.
func (svc *Service) UnfinalizeClass(ctx context.Context, classID, reason, actorID string) (int, error) {
	reason = strings.TrimSpace(reason)
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(classID, "classID"),
		vala.StringNotEmpty(reason, "reason"),
		vala.StringNotEmpty(actorID, "actorID"),
	).Check(); err != nil {
		return 0, badRequest(err)
	}

	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return 0, err
	}
	enrs, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{ClassID: classID})
	if err != nil {
		return 0, errors.Wrap(err, "querying class enrollments")
	}

	n, err := svc.repo.UnfinalizeClass(ctx, classID)
	if err != nil {
		return 0, errors.Wrapf(err, "unfinalizing class %s", classID)
	}

	svc.logger.Info(fmt.Sprintf("unfinalized %d enrollments of class %s", n, classID))
	core.RecordAudit(ctx, svc.audit, svc.logger, core.AuditEvent{
		Action:   core.AuditUnfinalizeClass,
		Entity:   "class",
		EntityID: classID,
		ActorID:  actorID,
		Reason:   reason,
		Before:   snapshot(enrs),
	})
	return n, nil
}
