package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is the kind of account a request acts as.
type Role string

const (
	RoleSchool  Role = "SCHOOL"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

var Roles = []Role{RoleSchool, RoleTeacher, RoleStudent}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, role := range Roles {
		if r == role {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// Permission is a capability checked at the API boundary.
type Permission int

const (
	PermManageSchool Permission = iota + 1
	PermViewSelf
	PermManageTeachers
	PermViewTeachers
	PermManageStudents
	PermViewStudents
	PermManageClasses
	PermViewClasses
	PermManageSubjects
	PermViewSubjects
	PermManageSchedules
	PermViewSchedules
	PermCleanupSchedules
	PermViewTeacherSubjects
	PermMarkAttendance
	PermViewAttendance
	PermManageExams
	PermViewExams
	PermPostNotices
	PermViewNotices
)

var permNames = map[Permission]string{
	PermManageSchool:        "manage school",
	PermViewSelf:            "view own profile",
	PermManageTeachers:      "manage teachers",
	PermViewTeachers:        "view teachers",
	PermManageStudents:      "manage students",
	PermViewStudents:        "view students",
	PermManageClasses:       "manage classes",
	PermViewClasses:         "view classes",
	PermManageSubjects:      "manage subjects",
	PermViewSubjects:        "view subjects",
	PermManageSchedules:     "manage schedules",
	PermViewSchedules:       "view schedules",
	PermCleanupSchedules:    "cleanup schedules",
	PermViewTeacherSubjects: "view teacher subjects",
	PermMarkAttendance:      "mark attendance",
	PermViewAttendance:      "view attendance",
	PermManageExams:         "manage examinations",
	PermViewExams:           "view examinations",
	PermPostNotices:         "post notices",
	PermViewNotices:         "view notices",
}

func (p Permission) String() string {
	if name, ok := permNames[p]; ok {
		return name
	}
	return "unknown permission"
}

// Grants maps every role to what it may do.
var Grants = map[Role][]Permission{
	RoleSchool: {
		PermManageSchool, PermViewSelf,
		PermManageTeachers, PermViewTeachers,
		PermManageStudents, PermViewStudents,
		PermManageClasses, PermViewClasses,
		PermManageSubjects, PermViewSubjects,
		PermManageSchedules, PermViewSchedules, PermCleanupSchedules, PermViewTeacherSubjects,
		PermMarkAttendance, PermViewAttendance,
		PermManageExams, PermViewExams,
		PermPostNotices, PermViewNotices,
	},
	RoleTeacher: {
		PermViewSelf,
		PermViewTeachers, PermViewStudents, PermViewClasses, PermViewSubjects,
		PermManageSchedules, PermViewSchedules,
		PermMarkAttendance, PermViewAttendance,
		PermManageExams, PermViewExams,
		PermPostNotices, PermViewNotices,
	},
	RoleStudent: {
		PermViewSelf,
		PermViewClasses, PermViewSubjects,
		PermViewExams,
		PermViewNotices,
	},
}

// Principal is the authenticated account behind a request.
type Principal struct {
	ID       string
	SchoolID string
	Role     Role
	Name     string
	Email    string
}

func (p Principal) Is(role Role) bool { return p.Role == role }

// Author returns the principal as the author of a record.
func (p Principal) Author() Author {
	return Author{ID: p.ID, Role: p.Role}
}

// Author identifies who created a record.
type Author struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p Principal) Can(perm Permission) bool {
	for _, granted := range Grants[p.Role] {
		if granted == perm {
			return true
		}
	}
	return false
}

// HashPassword returns the bcrypt hash of `pwd`.
func HashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
}

func CheckPassword(hash []byte, pwd string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd))
}
