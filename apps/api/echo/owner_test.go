package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/syllabus/core/owner"
	testutil "github.com/trezcool/syllabus/tests"
)

func TestOwnerApi(t *testing.T) {
	f := setup(t)
	admin := getToken(t, f.conf, testutil.Admin)
	coord := getToken(t, f.conf, testutil.Coordinator)

	rec := f.do(http.MethodPost, "/v1/owners", admin, []byte(`{
		"id": "math",
		"kind": "subject",
		"name": " Mathematics ",
		"teacherIds": ["teacher-1"],
		"reviewerEmails": ["Reviewer@Test.cd"]
	}`))
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var math owner.Owner
	decode(t, rec, &math)
	assert.Equal(t, "Mathematics", math.Name)
	assert.Equal(t, []string{"reviewer@test.cd"}, math.ReviewerEmails)

	testutil.CreateOwner(t, f.ownerRepo, "bio", "Biology", nil, nil)

	runHTTPTests(t, f, []httpTest{
		{
			name:     "coordinators do not manage owners",
			method:   http.MethodGet,
			path:     "/v1/owners",
			token:    coord,
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "duplicate id",
			method:   http.MethodPost,
			path:     "/v1/owners",
			body:     []byte(`{"id": "math", "kind": "subject", "name": "Maths again"}`),
			token:    admin,
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: owner.ErrExists.Error()}),
		},
		{
			name:     "invalid kind",
			method:   http.MethodPost,
			path:     "/v1/owners",
			body:     []byte(`{"id": "chem", "kind": "class", "name": "Chemistry"}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{
				Error:  "kind: must be one of: course, subject",
				Fields: map[string]string{"kind": "must be one of: course, subject"},
			}),
		},
		{
			name:     "unknown owner",
			method:   http.MethodGet,
			path:     "/v1/owners/physics",
			token:    admin,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: owner.ErrNotFound.Error()}),
		},
		{
			name:     "unknown ordering",
			method:   http.MethodGet,
			path:     "/v1/owners?ordering=password",
			token:    admin,
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("query", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/owners?ordering=-name", admin)
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
		var owners []owner.Owner
		decode(t, rec, &owners)
		if assert.Len(t, owners, 2) {
			assert.Equal(t, "math", owners[0].ID)
			assert.Equal(t, "bio", owners[1].ID)
		}

		rec = f.do(http.MethodGet, "/v1/owners?teacherId=teacher-1", admin)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &owners)
		if assert.Len(t, owners, 1) {
			assert.Equal(t, "math", owners[0].ID)
		}
	})

	t.Run("assign teachers", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/v1/owners/bio", admin, []byte(`{"teacherIds": ["teacher-2", "teacher-3"]}`))
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
		var bio owner.Owner
		decode(t, rec, &bio)
		assert.Equal(t, "Biology", bio.Name)
		assert.Equal(t, []string{"teacher-2", "teacher-3"}, bio.TeacherIDs)

		rec = f.do(http.MethodGet, "/v1/owners/bio", admin)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &bio)
		assert.True(t, bio.HasTeacher("teacher-3"))
	})
}
