package user

import (
	"sort"
	"strings"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Coordinator
	RoleCoordinator = "coordinator:"

	// Teacher
	RoleTeacher = "teacher:"

	// Parent
	RoleParent = "parent:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles       = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	CoordinatorRoles = []string{RoleCoordinator}
	TeacherRoles     = []string{RoleTeacher}
	ParentRoles      = []string{RoleParent}
	StudentRoles     = []string{RoleStudent}
	AllRoles         = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 50 - 41
		RoleAdminOwner:     50,
		RoleAdminPrincipal: 49,
		RoleAdmin:          41,

		// Coordinators: 40 - 31
		RoleCoordinator: 31,

		// Teachers: 30 - 21
		RoleTeacher: 21,

		// Parents: 20 - 11
		RoleParent: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Parent", Value: RoleParent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Coordinator", Value: RoleCoordinator},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Principal", Value: RoleAdminPrincipal},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, len(rolePriorities))
	all = append(all, AdminRoles...)
	all = append(all, CoordinatorRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, ParentRoles...)
	all = append(all, StudentRoles...)
	sort.Strings(all)
	return all
}

// RolePriority ranks role. Scoped roles such as "teacher:math" rank with their base role.
func RolePriority(role string) int {
	if prio, ok := rolePriorities[role]; ok {
		return prio
	}
	if i := strings.IndexByte(role, ':'); i >= 0 {
		return rolePriorities[role[:i+1]]
	}
	return 0
}

// RoleChoices lists the known roles as "value (Name)", lowest priority first.
func RoleChoices() string {
	choices := make([]string, 0, len(Roles))
	for _, r := range Roles {
		choices = append(choices, r.String())
	}
	return strings.Join(choices, ", ")
}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	idx := sort.SearchStrings(AllRoles, role)
	return idx < len(AllRoles) && AllRoles[idx] == role
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (r Role) String() string { return r.Value + " (" + r.Name + ")" }

// Principal is the authenticated caller as asserted by the identity provider's token.
// Accounts themselves live with the identity provider; only the claims are known here.
type Principal struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (p Principal) RoleStartsWith(prefix string) bool {
	for _, role := range p.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool       { return p.RoleStartsWith(RoleAdmin) }
func (p Principal) IsCoordinator() bool { return p.RoleStartsWith(RoleCoordinator) }
func (p Principal) IsTeacher() bool     { return p.RoleStartsWith(RoleTeacher) }
func (p Principal) IsParent() bool      { return p.RoleStartsWith(RoleParent) }
func (p Principal) IsStudent() bool     { return p.RoleStartsWith(RoleStudent) }

// CanReview reports whether p may approve completed syllabus items.
func (p Principal) CanReview() bool { return p.IsAdmin() || p.IsCoordinator() }

// CanEdit reports whether p may author syllabus structure.
func (p Principal) CanEdit() bool { return p.IsAdmin() || p.IsCoordinator() }

// CanRead reports whether p may view syllabi at all.
func (p Principal) CanRead() bool {
	return p.CanReview() || p.IsTeacher() || p.IsParent() || p.IsStudent()
}

// PrimaryRole returns the role with the highest priority, "" if p has none.
func (p Principal) PrimaryRole() string {
	var primary string
	for _, role := range p.Roles {
		if RolePriority(role) > RolePriority(primary) {
			primary = role
		}
	}
	return primary
}
