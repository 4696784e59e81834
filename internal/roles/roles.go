package roles

import "errors"

const (
	SuperAdmin      = "super_admin"
	SubAdmin        = "sub_admin"
	DepartmentAdmin = "department_admin"
	ChildAdmin      = "child_admin"
	Teacher         = "teacher"
	Student         = "student"
)

const (
	UserTypeStudent = "student"
	UserTypeTeacher = "teacher"
	UserTypeAdmin   = "admin"
)

var ErrRoleMismatch = errors.New("role mismatch")
var ErrNotAdmin = errors.New("account has no admin role")

// adminOrder fixes which admin role wins for multi-role accounts,
// most privileged first.
var adminOrder = []string{SuperAdmin, SubAdmin, DepartmentAdmin, ChildAdmin}

var landingPaths = map[string]string{
	SuperAdmin:      "/admin/dashboard",
	SubAdmin:        "/admin/dashboard",
	DepartmentAdmin: "/admin/department",
	ChildAdmin:      "/admin/overview",
	Teacher:         "/teacher/dashboard",
	Student:         "/student/dashboard",
}

func ValidUserType(userType string) bool {
	switch userType {
	case UserTypeStudent, UserTypeTeacher, UserTypeAdmin:
		return true
	}
	return false
}

// Membership checks that the assigned roles permit logging in as userType
// without picking an effective role yet.
func Membership(userType string, assigned []string) error {
	_, err := Effective(userType, assigned)
	return err
}

// Effective maps the coarse userType onto the stored role vocabulary.
// student and teacher require that exact role; admin requires any of the
// admin roles and selects the first match in adminOrder.
func Effective(userType string, assigned []string) (string, error) {
	switch userType {
	case UserTypeStudent:
		if !contains(assigned, Student) {
			return "", ErrRoleMismatch
		}
		return Student, nil
	case UserTypeTeacher:
		if !contains(assigned, Teacher) {
			return "", ErrRoleMismatch
		}
		return Teacher, nil
	case UserTypeAdmin:
		for _, r := range adminOrder {
			if contains(assigned, r) {
				return r, nil
			}
		}
		return "", ErrNotAdmin
	}
	return "", ErrRoleMismatch
}

// LandingPath returns the default post-login path for a role.
func LandingPath(role string) string {
	if p, ok := landingPaths[role]; ok {
		return p
	}
	return "/"
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
