package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/tests"
)

func newOwner(id, kind, name string, teachers ...string) owner.Owner {
	now := time.Now().UTC().Truncate(time.Second)
	return owner.Owner{
		ID:             id,
		Kind:           kind,
		Name:           name,
		TeacherIDs:     teachers,
		ReviewerEmails: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestOwnerRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewOwnerRepository(db)
	ctx := context.Background()

	math, err := repo.CreateOwner(ctx, newOwner("math", core.OwnerKindSubject, "Mathematics", "t1", "t2"))
	require.NoError(t, err)
	_, err = repo.CreateOwner(ctx, newOwner("bio", core.OwnerKindSubject, "Biology", "t2"))
	require.NoError(t, err)
	_, err = repo.CreateOwner(ctx, newOwner("cs-101", core.OwnerKindCourse, "Intro to CS"))
	require.NoError(t, err)

	_, err = repo.CreateOwner(ctx, newOwner("math", core.OwnerKindSubject, "Maths again"))
	assert.Equal(t, owner.ErrExists, err)

	got, err := repo.GetOwner(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, math.TeacherIDs, got.TeacherIDs)
	assert.Equal(t, []string{}, got.ReviewerEmails)
	assert.True(t, math.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.GetOwner(ctx, "nope")
	assert.Equal(t, owner.ErrNotFound, err)

	ids := func(owners []owner.Owner) []string {
		out := make([]string, 0, len(owners))
		for _, o := range owners {
			out = append(out, o.ID)
		}
		return out
	}
	tests := []struct {
		name     string
		filter   *owner.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all, by name", want: []string{"bio", "cs-101", "math"}},
		{name: "by kind", filter: &owner.QueryFilter{Kind: core.OwnerKindSubject}, want: []string{"bio", "math"}},
		{name: "search name", filter: &owner.QueryFilter{Search: "MATH"}, want: []string{"math"}},
		{name: "search id", filter: &owner.QueryFilter{Search: "cs-"}, want: []string{"cs-101"}},
		{name: "by teacher", filter: &owner.QueryFilter{TeacherID: "t2"}, want: []string{"bio", "math"}},
		{name: "by teacher (prefix is not a match)", filter: &owner.QueryFilter{TeacherID: "t"}, want: []string{}},
		{
			name:     "ordering",
			ordering: []core.DBOrdering{{Field: "kind", Ascending: true}, {Field: "name", Ascending: false}},
			want:     []string{"cs-101", "math", "bio"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owners, err := repo.QueryOwners(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(owners))
		})
	}

	math.Name = "Maths"
	math.ReviewerEmails = []string{"rev@test.cd"}
	_, err = repo.UpdateOwner(ctx, math)
	require.NoError(t, err)
	got, err = repo.GetOwner(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, "Maths", got.Name)
	assert.Equal(t, []string{"rev@test.cd"}, got.ReviewerEmails)

	_, err = repo.UpdateOwner(ctx, newOwner("nope", core.OwnerKindSubject, "Nope"))
	assert.Equal(t, owner.ErrNotFound, err)
}
