package owner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/syllabus/core"
)

var (
	// errors
	ErrNotFound = errors.New("owner not found")
	ErrExists   = errors.New("an owner with this id already exists")
)

type (
	Repository interface {
		// CreateOwner returns ErrExists when the ID is taken.
		CreateOwner(ctx context.Context, o Owner, exec ...core.DBExecutor) (Owner, error)
		GetOwner(ctx context.Context, id string, exec ...core.DBExecutor) (Owner, error)
		// QueryOwners applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Owner.Name or Owner.ID.
		QueryOwners(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Owner, error)
		UpdateOwner(ctx context.Context, o Owner, exec ...core.DBExecutor) (Owner, error)
	}

	Service interface {
		Create(ctx context.Context, no NewOwner) (Owner, error)
		Get(ctx context.Context, id string) (Owner, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Owner, error)
		Update(ctx context.Context, id string, uo UpdateOwner) (Owner, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, no NewOwner) (Owner, error) {
	now := time.Now().UTC()
	o := Owner{
		ID:             no.ID,
		Kind:           no.Kind,
		Name:           no.Name,
		TeacherIDs:     no.TeacherIDs,
		ReviewerEmails: no.ReviewerEmails,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.TeacherIDs == nil {
		o.TeacherIDs = []string{}
	}
	if o.ReviewerEmails == nil {
		o.ReviewerEmails = []string{}
	}
	return svc.repo.CreateOwner(ctx, o)
}

func (svc *service) Get(ctx context.Context, id string) (Owner, error) {
	return svc.repo.GetOwner(ctx, core.CleanString(id))
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Owner, error) {
	return svc.repo.QueryOwners(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, uo UpdateOwner) (Owner, error) {
	o, err := svc.repo.GetOwner(ctx, id)
	if err != nil {
		return Owner{}, err
	}
	if uo.Name != "" {
		o.Name = uo.Name
	}
	if uo.TeacherIDs != nil {
		o.TeacherIDs = uo.TeacherIDs
	}
	if uo.ReviewerEmails != nil {
		o.ReviewerEmails = uo.ReviewerEmails
	}
	o.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateOwner(ctx, o)
}
