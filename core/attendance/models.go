package attendance

import (
	"encoding/json"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

const dateLayout = "2006-01-02"

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Attendance is the status of one student in one class for one calendar day.
type Attendance struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school"`
	StudentID string    `json:"student"`
	ClassID   string    `json:"class"`
	Date      time.Time `json:"date"` // UTC midnight
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	MarkedBy  string    `json:"markedBy"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

// Day truncates `t` to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD day; an empty string means the current day.
func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return Day(nowFunc()), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
	}
	return t, nil
}

// NewAttendance marks one student.
type NewAttendance struct {
	Student string `json:"student" validate:"required"`
	Class   string `json:"class" validate:"required"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status  Status `json:"status" validate:"required,attendance_status"`
	Notes   string `json:"notes" validate:"max=500"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.Student = core.CleanString(na.Student)
	na.Class = core.CleanString(na.Class)
	na.Date = core.CleanString(na.Date)
	na.Notes = core.CleanString(na.Notes)
	return validate.Struct(na)
}

// UnmarshalJSON also accepts "studentId" and "classId" for Student and Class.
func (na *NewAttendance) UnmarshalJSON(data []byte) error {
	type plain NewAttendance
	aux := struct {
		*plain
		StudentID string `json:"studentId"`
		ClassID   string `json:"classId"`
	}{plain: (*plain)(na)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	na.Student = firstNonEmpty(na.Student, aux.StudentID)
	na.Class = firstNonEmpty(na.Class, aux.ClassID)
	return nil
}

type Record struct {
	Student string `json:"student" validate:"required"`
	Status  Status `json:"status" validate:"required,attendance_status"`
	Notes   string `json:"notes" validate:"max=500"`
}

// UnmarshalJSON also accepts "studentId" for Student.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		StudentID string `json:"studentId"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Student = firstNonEmpty(r.Student, aux.StudentID)
	return nil
}

// NewBulkAttendance marks a whole class for one day.
type NewBulkAttendance struct {
	Class   string   `json:"class" validate:"required"`
	Date    string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Records []Record `json:"records" validate:"required,min=1,dive"`
}

// UnmarshalJSON also accepts "classId" for Class and "attendanceData" for Records.
func (nb *NewBulkAttendance) UnmarshalJSON(data []byte) error {
	type plain NewBulkAttendance
	aux := struct {
		*plain
		ClassID        string   `json:"classId"`
		AttendanceData []Record `json:"attendanceData"`
	}{plain: (*plain)(nb)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	nb.Class = firstNonEmpty(nb.Class, aux.ClassID)
	if nb.Records == nil {
		nb.Records = aux.AttendanceData
	}
	return nil
}

func firstNonEmpty(s, alt string) string {
	if s != "" {
		return s
	}
	return alt
}

func (nb *NewBulkAttendance) Validate(validate *validator.Validate) error {
	nb.Class = core.CleanString(nb.Class)
	nb.Date = core.CleanString(nb.Date)
	for i := range nb.Records {
		nb.Records[i].Student = core.CleanString(nb.Records[i].Student)
		nb.Records[i].Notes = core.CleanString(nb.Records[i].Notes)
	}
	return validate.Struct(nb)
}

type BulkResult struct {
	Created int `json:"created"`
}

// StudentsRequest asks for the attendance of several students.
type StudentsRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,max=500"`
}

func (sr StudentsRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(sr)
}

type Stats struct {
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}

func NewStats(records []Attendance) Stats {
	var st Stats
	for _, r := range records {
		st.Total++
		if r.Status == StatusPresent {
			st.Present++
		} else {
			st.Absent++
		}
	}
	if st.Total > 0 {
		st.Percentage = math.Round(float64(st.Present)/float64(st.Total)*10000) / 100
	}
	return st
}

type StudentAttendance struct {
	StudentID string       `json:"student"`
	Records   []Attendance `json:"records"`
	Stats     Stats        `json:"stats"`
}
