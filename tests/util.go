package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/core/user"
	"github.com/trezcool/syllabus/storage/database"
)

// Principals used across tests.
var (
	Admin       = user.Principal{ID: "admin-1", Name: "Ada Admin", Email: "admin@test.cd", Roles: []string{user.RoleAdmin}}
	Coordinator = user.Principal{ID: "coord-1", Name: "Cody Coordinator", Email: "coord@test.cd", Roles: []string{user.RoleCoordinator}}
	Teacher     = user.Principal{ID: "teacher-1", Name: "Tina Teacher", Email: "tina@test.cd", Roles: []string{user.RoleTeacher}}
	Outsider    = user.Principal{ID: "teacher-2", Name: "Otto Outsider", Email: "otto@test.cd", Roles: []string{user.RoleTeacher}}
	Student     = user.Principal{ID: "student-1", Name: "Sam Student", Email: "sam@test.cd", Roles: []string{user.RoleStudent}}
)

// Config returns the configuration used by tests, in subject addressing mode.
func Config() *core.Config {
	return &core.Config{
		Env:                "TEST",
		TestMode:           true,
		AppName:            "Syllabus",
		SecretKey:          "test-secret",
		JWTExpirationDelta: time.Hour,
		OwnerKind:          core.OwnerKindSubject,
		MaxSaveRetries:     3,
		FrontendBaseURL:    "http://localhost:3000",
		DefaultFromEmail:   "Syllabus <noreply@test.cd>",
	}
}

// OpenDB opens a migrated in-memory database, closed when the test ends.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err, "OpenInMemory()")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateOwner registers a subject owner with the given teachers and reviewer emails.
func CreateOwner(t *testing.T, repo owner.Repository, id, name string, teacherIDs, reviewerEmails []string) owner.Owner {
	t.Helper()
	svc := owner.NewService(repo)
	o, err := svc.Create(context.Background(), owner.NewOwner{
		ID:             id,
		Kind:           core.OwnerKindSubject,
		Name:           name,
		TeacherIDs:     teacherIDs,
		ReviewerEmails: reviewerEmails,
	})
	require.NoError(t, err, "CreateOwner()")
	return o
}
