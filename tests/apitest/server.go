// Package apitest runs the real API over HTTP for client-side tests.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/syllabus/apps/api/echo"
	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/core/user"
	emailsvc "github.com/trezcool/syllabus/services/email"
	sqlxrepos "github.com/trezcool/syllabus/storage/database/sqlx"
	testutil "github.com/trezcool/syllabus/tests"
)

type Server struct {
	*httptest.Server
	Conf      *core.Config
	OwnerRepo owner.Repository
	Mail      *emailsvc.ConsoleServiceMock

	hits int64
}

// NewServer starts the API on an in-memory database with the subject "math" taught by testutil.Teacher.
func NewServer(t *testing.T) *Server {
	t.Helper()
	conf := testutil.Config()

	db := testutil.OpenDB(t)
	ownerRepo := sqlxrepos.NewOwnerRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	ownerSvc := owner.NewService(ownerRepo)
	syllabusSvc := syllabus.NewService(syllabus.Deps{
		DB:     db,
		Repo:   sqlxrepos.NewSyllabusRepository(db),
		Owners: ownerSvc,
		Mail:   mailSvc,
		Conf:   conf,
	})
	translator := core.NewTranslator()

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		DB:             db,
		Validate:       core.NewValidate(translator),
		Translator:     translator,
		OwnerSvc:       ownerSvc,
		SyllabusSvc:    syllabusSvc,
		DisableReqLogs: true,
	})

	testutil.CreateOwner(t, ownerRepo, "math", "Mathematics", []string{testutil.Teacher.ID}, []string{"reviewer@test.cd"})

	s := &Server{Conf: conf, OwnerRepo: ownerRepo, Mail: mailSvc}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.hits, 1)
		app.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the root of the versioned API.
func (s *Server) BaseURL() string { return s.URL + "/v1" }

// Hits is the number of requests served so far.
func (s *Server) Hits() int64 { return atomic.LoadInt64(&s.hits) }

// Token issues a bearer token for p.
func (s *Server) Token(t *testing.T, p user.Principal) string {
	t.Helper()
	token, err := echoapi.GenerateToken(s.Conf, echoapi.GetPrincipalClaims(s.Conf, p))
	require.NoError(t, err, "GenerateToken()")
	return token
}
