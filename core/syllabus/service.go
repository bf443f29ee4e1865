package syllabus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/core/user"
)

type (
	// Repository persists documents and their audit trail.
	// exec optionally runs the statement inside a transaction started by the caller.
	Repository interface {
		CreateDocument(ctx context.Context, d Document, exec ...core.DBExecutor) (Document, error)
		GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (Document, error)
		FindDocument(ctx context.Context, key Key, exec ...core.DBExecutor) (Document, error)
		// UpdateDocument stores d only if the stored version still equals prevVersion,
		// returns ErrVersionConflict otherwise.
		UpdateDocument(ctx context.Context, d Document, prevVersion int, exec ...core.DBExecutor) (Document, error)
		AddEvent(ctx context.Context, ev Event, exec ...core.DBExecutor) error
		ListEvents(ctx context.Context, documentID string, exec ...core.DBExecutor) ([]Event, error)
	}

	// Cache keeps documents by Key. Implementations must not cache failures, and a document loaded by
	// Fetch must never replace one put by Store.
	Cache interface {
		Fetch(ctx context.Context, key Key, load func(ctx context.Context) (Document, error)) (Document, error)
		Store(ctx context.Context, d Document) error
		Invalidate(ctx context.Context, key Key) error
	}

	// Key addresses the document of one owner for one month.
	Key struct {
		OwnerKind string
		OwnerID   string
		Month     string
	}

	Service interface {
		Get(ctx context.Context, p user.Principal, key Key) (Document, error)
		Create(ctx context.Context, p user.Principal, nd NewDocument) (Document, error)
		Update(ctx context.Context, p user.Principal, id string, ud UpdateDocument) (Document, error)
		CompleteSubtopic(ctx context.Context, p user.Principal, id string, ref Ref) (Document, error)
		ApproveSubtopic(ctx context.Context, p user.Principal, id string, ref Ref) (Document, error)
		ApproveTopic(ctx context.Context, p user.Principal, id string, weekNumber, topicIndex int) (Document, error)
		ApproveAll(ctx context.Context, p user.Principal, id string) (Document, error)
		History(ctx context.Context, p user.Principal, id string) ([]Event, error)
	}

	Deps struct {
		DB     core.DB
		Repo   Repository
		Owners owner.Service
		Mail   core.EmailService
		Logger core.Logger
		Cache  Cache // optional
		Conf   *core.Config
	}

	service struct {
		Deps
	}
)

func (k Key) String() string { return k.OwnerKind + "/" + k.OwnerID + "/" + k.Month }

// KeyOf returns the Key addressing d.
func KeyOf(d Document) Key { return Key{OwnerKind: d.OwnerKind, OwnerID: d.OwnerID, Month: d.Month} }

var _ Service = (*service)(nil)

func NewService(deps Deps) Service {
	if deps.Cache == nil {
		deps.Cache = NopCache{}
	}
	if deps.Logger == nil {
		deps.Logger = core.NopLogger{}
	}
	return &service{Deps: deps}
}

func (svc *service) Get(ctx context.Context, p user.Principal, key Key) (Document, error) {
	if !p.CanRead() {
		return Document{}, ErrForbidden
	}
	key.OwnerKind = core.CleanString(key.OwnerKind, true /* lower */)
	key.OwnerID = core.CleanString(key.OwnerID)
	if key.OwnerKind != svc.Conf.OwnerKind || !core.IsValidMonth(key.Month) {
		return Document{}, ErrNotFound
	}
	return svc.Cache.Fetch(ctx, key, func(ctx context.Context) (Document, error) {
		return svc.Repo.FindDocument(ctx, key)
	})
}

func (svc *service) Create(ctx context.Context, p user.Principal, nd NewDocument) (Document, error) {
	if !p.CanEdit() {
		return Document{}, ErrForbidden
	}

	nd.OwnerID = core.CleanString(nd.OwnerID)
	nd.Month = core.CleanString(nd.Month)
	o, err := svc.Owners.Get(ctx, nd.OwnerID)
	if err != nil {
		if errors.Cause(err) == owner.ErrNotFound {
			return Document{}, core.NewValidationError(nil, core.FieldError{Field: "ownerId", Error: "unknown " + svc.Conf.OwnerKind})
		}
		return Document{}, errors.Wrap(err, "getting owner")
	}
	if o.Kind != svc.Conf.OwnerKind {
		return Document{}, core.NewValidationError(nil, core.FieldError{Field: "ownerId", Error: "must be a " + svc.Conf.OwnerKind})
	}

	FoldLegacy(nd.Weeks)
	if err = ValidateShape(nd.Weeks); err != nil {
		return Document{}, err
	}
	if err = checkProgressPreserved(nil, nd.Weeks); err != nil {
		return Document{}, err
	}

	key := Key{OwnerKind: o.Kind, OwnerID: o.ID, Month: nd.Month}
	existing, err := svc.Repo.FindDocument(ctx, key)
	switch {
	case err == nil:
		return Document{}, errors.Wrapf(ErrExists, "syllabus %s", existing.ID)
	case errors.Cause(err) != ErrNotFound:
		return Document{}, errors.Wrap(err, "looking up syllabus")
	}

	now := NowFunc().UTC()
	d := Document{
		ID:        uuid.New().String(),
		OwnerKind: key.OwnerKind,
		OwnerID:   key.OwnerID,
		Month:     key.Month,
		Weeks:     nd.Weeks,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ev := newEvent(ActionCreated, p)
	err = core.InTx(ctx, svc.DB, func(exec core.DBExecutor) error {
		if d, err = svc.Repo.CreateDocument(ctx, d, exec); err != nil {
			return err
		}
		ev.DocumentID, ev.Version = d.ID, d.Version
		return svc.Repo.AddEvent(ctx, ev, exec)
	})
	if err != nil {
		return Document{}, errors.Wrap(err, "creating syllabus")
	}
	svc.store(ctx, d)
	return d, nil
}

func (svc *service) Update(ctx context.Context, p user.Principal, id string, ud UpdateDocument) (Document, error) {
	if !p.CanEdit() {
		return Document{}, ErrForbidden
	}
	FoldLegacy(ud.Weeks)
	if err := ValidateShape(ud.Weeks); err != nil {
		return Document{}, err
	}
	return svc.mutate(ctx, p, id, nil, func(d *Document) (Event, bool, error) {
		if err := checkProgressPreserved(d.Weeks, ud.Weeks); err != nil {
			return Event{}, false, err
		}
		d.Weeks = CloneWeeks(ud.Weeks)
		return newEvent(ActionUpdated, p), true, nil
	})
}

func (svc *service) CompleteSubtopic(ctx context.Context, p user.Principal, id string, ref Ref) (Document, error) {
	var o owner.Owner
	authorize := func(ow owner.Owner) error {
		if !p.IsTeacher() || !ow.HasTeacher(p.ID) {
			return ErrForbidden
		}
		o = ow
		return nil
	}
	d, err := svc.mutate(ctx, p, id, authorize, func(d *Document) (Event, bool, error) {
		if err := CompleteSubtopic(d, ref); err != nil {
			return Event{}, false, err
		}
		return newEvent(ActionCompleted, p).atSubtopic(ref), true, nil
	})
	if err != nil {
		return Document{}, err
	}
	svc.notifyPendingApproval(p, o, d, ref)
	return d, nil
}

func (svc *service) ApproveSubtopic(ctx context.Context, p user.Principal, id string, ref Ref) (Document, error) {
	return svc.mutate(ctx, p, id, svc.reviewer(p), func(d *Document) (Event, bool, error) {
		if err := ApproveSubtopic(d, ref); err != nil {
			return Event{}, false, err
		}
		return newEvent(ActionApproved, p).atSubtopic(ref), true, nil
	})
}

func (svc *service) ApproveTopic(ctx context.Context, p user.Principal, id string, weekNumber, topicIndex int) (Document, error) {
	return svc.mutate(ctx, p, id, svc.reviewer(p), func(d *Document) (Event, bool, error) {
		changed, err := ApproveTopic(d, weekNumber, topicIndex)
		if err != nil {
			return Event{}, false, err
		}
		return newEvent(ActionTopicApproved, p).atTopic(weekNumber, topicIndex), changed, nil
	})
}

func (svc *service) ApproveAll(ctx context.Context, p user.Principal, id string) (Document, error) {
	return svc.mutate(ctx, p, id, svc.reviewer(p), func(d *Document) (Event, bool, error) {
		return newEvent(ActionAllApproved, p), ApproveAll(d), nil
	})
}

func (svc *service) History(ctx context.Context, p user.Principal, id string) ([]Event, error) {
	if !p.CanReview() && !p.CanEdit() {
		return nil, ErrForbidden
	}
	d, err := svc.Repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerKind != svc.Conf.OwnerKind {
		return nil, ErrNotFound
	}
	return svc.Repo.ListEvents(ctx, id)
}

func (svc *service) reviewer(p user.Principal) func(owner.Owner) error {
	return func(owner.Owner) error {
		if !p.CanReview() {
			return ErrForbidden
		}
		return nil
	}
}

// mutate loads the document, applies fn to a copy and stores it with an audit event in one transaction.
// A lost optimistic-concurrency race reloads and reapplies fn, up to Conf.MaxSaveRetries retries.
// authorize, when set, runs once against the document's owner before anything is applied; otherwise
// the caller is expected to have checked the principal already.
func (svc *service) mutate(
	ctx context.Context,
	p user.Principal,
	id string,
	authorize func(owner.Owner) error,
	fn func(d *Document) (ev Event, changed bool, err error),
) (Document, error) {
	attempts := svc.Conf.MaxSaveRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		current, err := svc.Repo.GetDocument(ctx, id)
		if err != nil {
			return Document{}, err
		}
		if current.OwnerKind != svc.Conf.OwnerKind {
			return Document{}, ErrNotFound
		}

		if attempt == 0 && authorize != nil {
			o, err := svc.Owners.Get(ctx, current.OwnerID)
			if err != nil && errors.Cause(err) != owner.ErrNotFound {
				return Document{}, errors.Wrap(err, "getting owner")
			}
			if err = authorize(o); err != nil {
				return Document{}, err
			}
		}

		next := current.Clone()
		ev, changed, err := fn(&next)
		if err != nil {
			return Document{}, err
		}
		if !changed {
			return current, nil
		}

		next.Version = current.Version + 1
		next.UpdatedAt = NowFunc().UTC()
		ev.DocumentID, ev.Version = next.ID, next.Version

		var saved Document
		err = core.InTx(ctx, svc.DB, func(exec core.DBExecutor) error {
			if saved, err = svc.Repo.UpdateDocument(ctx, next, current.Version, exec); err != nil {
				return err
			}
			return svc.Repo.AddEvent(ctx, ev, exec)
		})
		if errors.Cause(err) == ErrVersionConflict {
			svc.Logger.Debug(fmt.Sprintf("syllabus %s: version %d is stale, retrying", id, current.Version), p)
			continue
		}
		if err != nil {
			return Document{}, errors.Wrap(err, "saving syllabus")
		}
		svc.store(ctx, saved)
		return saved, nil
	}
	return Document{}, errors.Wrapf(ErrVersionConflict, "syllabus %s: gave up after %d attempts", id, attempts)
}

// store puts a freshly written document in the cache. When that fails the key is dropped so that
// the previous version is not served.
func (svc *service) store(ctx context.Context, d Document) {
	err := svc.Cache.Store(ctx, d)
	if err == nil {
		return
	}
	svc.Logger.Warn(fmt.Sprintf("caching syllabus %s: %v", d.ID, err), err)
	if err = svc.Cache.Invalidate(ctx, KeyOf(d)); err != nil {
		svc.Logger.Error(fmt.Sprintf("invalidating syllabus %s: %v", d.ID, err), err)
	}
}

// NopCache always loads from the repository.
type NopCache struct{}

var _ Cache = NopCache{}

func (NopCache) Fetch(ctx context.Context, _ Key, load func(ctx context.Context) (Document, error)) (Document, error) {
	return load(ctx)
}

func (NopCache) Store(context.Context, Document) error { return nil }

func (NopCache) Invalidate(context.Context, Key) error { return nil }
