package database

import (
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/notice"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/teacher"
)

// Repositories bundles one repository per entity, from the same backend.
type Repositories struct {
	Schools     school.Repository
	Classes     class.Repository
	Subjects    subject.Repository
	Teachers    teacher.Repository
	Students    student.Repository
	Schedules   schedule.Repository
	Exams       exam.Repository
	Attendances attendance.Repository
	Notices     notice.Repository
}
