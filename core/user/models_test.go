package user_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/syllabus/core/user"
)

func TestRolePriority(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{role: user.RoleAdminOwner, want: 50},
		{role: user.RoleAdmin, want: 41},
		{role: "admin:deputy", want: 41},
		{role: user.RoleCoordinator, want: 31},
		{role: "teacher:math", want: 21},
		{role: user.RoleStudent, want: 1},
		{role: "janitor:", want: 0},
		{role: "teacher", want: 0},
		{role: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, user.RolePriority(tt.role))
		})
	}
}

func TestPrincipal_PrimaryRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{name: "none", want: ""},
		{name: "unknown only", roles: []string{"janitor:"}, want: ""},
		{name: "single", roles: []string{user.RoleParent}, want: user.RoleParent},
		{name: "highest wins", roles: []string{user.RoleStudent, user.RoleCoordinator, user.RoleTeacher}, want: user.RoleCoordinator},
		{name: "scoped role", roles: []string{user.RoleParent, "teacher:math"}, want: "teacher:math"},
		{name: "admin owner over admin", roles: []string{user.RoleAdmin, user.RoleAdminOwner}, want: user.RoleAdminOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, user.Principal{Roles: tt.roles}.PrimaryRole())
		})
	}
}

func TestRoles(t *testing.T) {
	assert.Len(t, user.Roles, len(user.AllRoles))
	prev := 0
	for _, r := range user.Roles {
		assert.True(t, user.IsValidRole(r.Value), r.Value)
		assert.Greater(t, user.RolePriority(r.Value), prev, "Roles are listed lowest priority first")
		prev = user.RolePriority(r.Value)
	}

	choices := user.RoleChoices()
	assert.True(t, strings.HasPrefix(choices, "student: (Student), parent: (Parent), "), choices)
	assert.True(t, strings.HasSuffix(choices, "admin:owner (Admin Owner)"), choices)
}
