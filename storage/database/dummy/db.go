package dummydb

import (
	"strings"
	"sync"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
)

type (
	// DB is an in-memory store used by tests and `memory` engine local runs.
	DB struct {
		user         *userTable
		course       *courseTable
		enrollment   *enrollmentTable
		grade        *gradeTable
		attendance   *attendanceTable
		announcement *announcementTable
		audit        *auditTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enrollment.Enrollment
	}

	gradeTable struct {
		sync.RWMutex
		table map[string]*grade.Grade
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	announcementTable struct {
		sync.RWMutex
		table map[string]*announcement.Announcement
	}

	auditTable struct {
		sync.RWMutex
		table []audit.Entry
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		course:       &courseTable{table: make(map[string]*course.Course)},
		enrollment:   &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		grade:        &gradeTable{table: make(map[string]*grade.Grade)},
		attendance:   &attendanceTable{table: make(map[string]*attendance.Record)},
		announcement: &announcementTable{table: make(map[string]*announcement.Announcement)},
		audit:        &auditTable{},
	}
}

func containsStr(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ascending reports the direction of the first ordering; listings default to newest first.
func ascending(ordering []core.DBOrdering) bool {
	return len(ordering) > 0 && ordering[0].Ascending
}
