package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		err  error
	}{
		{"student", RoleStudent, nil},
		{"Tutor", RoleTutor, nil},
		{" STAFF ", RoleStaff, nil},
		{"admin", "", ErrUnknownRole},
		{"", "", ErrUnknownRole},
	}

	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if !errors.Is(err, tc.err) {
			t.Errorf("ParseRole(%q): expected err %v, got %v", tc.in, tc.err, err)
		}
		if got != tc.want {
			t.Errorf("ParseRole(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("Student").Valid() {
		t.Error("roles are stored lower-case")
	}
}
