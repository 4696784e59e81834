package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		userType string
		assigned []string
		want     string
		wantErr  error
	}{
		{name: "student with student role", userType: UserTypeStudent, assigned: []string{Student}, want: Student},
		{name: "student without student role", userType: UserTypeStudent, assigned: []string{Teacher}, wantErr: ErrRoleMismatch},
		{name: "teacher with teacher role", userType: UserTypeTeacher, assigned: []string{Teacher}, want: Teacher},
		{name: "student-only account as teacher", userType: UserTypeTeacher, assigned: []string{Student}, wantErr: ErrRoleMismatch},
		{name: "admin with one admin role", userType: UserTypeAdmin, assigned: []string{ChildAdmin}, want: ChildAdmin},
		{name: "admin picks fixed order", userType: UserTypeAdmin, assigned: []string{ChildAdmin, SubAdmin, DepartmentAdmin}, want: SubAdmin},
		{name: "admin with no admin role", userType: UserTypeAdmin, assigned: []string{Student, Teacher}, wantErr: ErrNotAdmin},
		{name: "unknown user type", userType: "manager", assigned: []string{Student}, wantErr: ErrRoleMismatch},
		{name: "empty assignments", userType: UserTypeStudent, assigned: nil, wantErr: ErrRoleMismatch},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Effective(tt.userType, tt.assigned)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMembership_MatchesEffective(t *testing.T) {
	t.Parallel()

	require.NoError(t, Membership(UserTypeAdmin, []string{SuperAdmin, Student}))
	require.ErrorIs(t, Membership(UserTypeAdmin, []string{Student}), ErrNotAdmin)
	require.ErrorIs(t, Membership(UserTypeTeacher, []string{Student}), ErrRoleMismatch)
}

func TestLandingPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/student/dashboard", LandingPath(Student))
	assert.Equal(t, "/teacher/dashboard", LandingPath(Teacher))
	assert.Equal(t, "/admin/dashboard", LandingPath(SuperAdmin))
	assert.Equal(t, "/", LandingPath("something_else"))
}

func TestValidUserType(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidUserType(UserTypeStudent))
	assert.True(t, ValidUserType(UserTypeTeacher))
	assert.True(t, ValidUserType(UserTypeAdmin))
	assert.False(t, ValidUserType("super_admin"), "stored roles are not user types")
	assert.False(t, ValidUserType(""))
}
