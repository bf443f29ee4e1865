package client

import (
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core/user"
)

// Role is what a session may do with a syllabus, resolved once from the token.
type Role string

const (
	RoleReader   Role = "reader"
	RoleProducer Role = "producer"
	RoleReviewer Role = "reviewer"
)

// Session carries the caller's bearer token and the principal it was issued for.
// It is passed explicitly to the Client and to the views; nothing re-reads the token afterwards.
type Session struct {
	Token     string
	Principal user.Principal
	Role      Role
}

type tokenClaims struct {
	jwt.StandardClaims
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// NewSession reads the principal out of token. The signature is not verified here: the API does that
// on every request, the session only needs to know which affordances to offer.
func NewSession(token string) (*Session, error) {
	var claims tokenClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return nil, errors.Wrap(err, "reading token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	p := user.Principal{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Roles: claims.Roles,
	}
	return &Session{Token: token, Principal: p, Role: roleOf(p)}, nil
}

// roleOf resolves the session role from the principal's highest-priority role.
func roleOf(p user.Principal) Role {
	switch primary := p.PrimaryRole(); {
	case strings.HasPrefix(primary, user.RoleAdmin), strings.HasPrefix(primary, user.RoleCoordinator):
		return RoleReviewer
	case strings.HasPrefix(primary, user.RoleTeacher):
		return RoleProducer
	default:
		return RoleReader
	}
}

// CanEdit reports whether the session may author syllabus structure.
func (s *Session) CanEdit() bool { return s.Principal.CanEdit() }
