package exam

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

const (
	dateLayout = "2006-01-02"
	hhmmLayout = "15:04"
)

type Type string

const (
	TypeMidterm    Type = "Midterm"
	TypeFinal      Type = "Final"
	TypeQuiz       Type = "Quiz"
	TypeUnitTest   Type = "Unit Test"
	TypePractical  Type = "Practical"
	TypeAssignment Type = "Assignment"
)

var typesByRole = map[auth.Role][]Type{
	auth.RoleSchool:  {TypeMidterm, TypeFinal, TypeQuiz, TypeUnitTest, TypePractical, TypeAssignment},
	auth.RoleTeacher: {TypeQuiz, TypeUnitTest, TypePractical, TypeAssignment},
}

// TypesFor returns the exam types `role` may schedule.
func TypesFor(role auth.Role) []Type {
	types := typesByRole[role]
	if types == nil {
		return []Type{}
	}
	return types
}

func (t Type) AllowedFor(role auth.Role) bool {
	for _, typ := range typesByRole[role] {
		if typ == t {
			return true
		}
	}
	return false
}

// Examination is class-scoped: it is not subject to the teacher overlap invariant.
type Examination struct {
	ID        string      `json:"id"`
	SchoolID  string      `json:"school"`
	ClassID   string      `json:"class"`
	SubjectID string      `json:"subject"`
	ExamType  Type        `json:"examType"`
	ExamDate  time.Time   `json:"examDate"`          // UTC midnight
	StartTime string      `json:"startTime"`         // HH:MM
	EndTime   string      `json:"endTime,omitempty"` // HH:MM
	Duration  int         `json:"duration"`          // minutes
	CreatedBy auth.Author `json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"` // UTC
}

// CalculateDuration returns the minutes between two HH:MM times of the same day.
func CalculateDuration(start, end string) (int, error) {
	s, err := time.Parse(hhmmLayout, start)
	if err != nil {
		return 0, errors.Wrap(err, "parsing startTime")
	}
	e, err := time.Parse(hhmmLayout, end)
	if err != nil {
		return 0, errors.Wrap(err, "parsing endTime")
	}
	if !e.After(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s).Minutes()), nil
}

// endFromDuration returns the HH:MM end of an exam, or "" when it would spill over to the next day.
func endFromDuration(start string, minutes int) string {
	s, err := time.Parse(hhmmLayout, start)
	if err != nil {
		return ""
	}
	e := s.Add(time.Duration(minutes) * time.Minute)
	if e.Day() != s.Day() {
		return ""
	}
	return e.Format(hhmmLayout)
}

// NewExamination contains information needed to schedule an Examination.
// One of EndTime or Duration is required; with both times, the duration is computed.
type NewExamination struct {
	Class     string `json:"class" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	ExamType  Type   `json:"examType" validate:"required"`
	ExamDate  string `json:"examDate" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"omitempty,hhmm"`
	Duration  int    `json:"duration" validate:"omitempty,gt=0,lte=1440"`

	date time.Time
}

func (ne *NewExamination) Validate(validate *validator.Validate) error {
	ne.Class = core.CleanString(ne.Class)
	ne.Subject = core.CleanString(ne.Subject)
	ne.ExamType = Type(core.CleanString(string(ne.ExamType)))
	ne.ExamDate = core.CleanString(ne.ExamDate)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.EndTime == "" && ne.Duration == 0 {
		return ErrEndOrDuration
	}

	ne.date, _ = time.ParseInLocation(dateLayout, ne.ExamDate, time.UTC)
	return ne.resolveTimes()
}

func (ne *NewExamination) resolveTimes() error {
	var err error
	ne.EndTime, ne.Duration, err = resolveTimes(ne.StartTime, ne.EndTime, ne.Duration)
	return err
}

func resolveTimes(start, end string, duration int) (string, int, error) {
	if end != "" {
		d, err := CalculateDuration(start, end)
		if err != nil {
			return "", 0, err
		}
		return end, d, nil
	}
	return endFromDuration(start, duration), duration, nil
}

// UpdateExamination replaces the provided fields only.
type UpdateExamination struct {
	Class     string `json:"class"`
	Subject   string `json:"subject"`
	ExamType  Type   `json:"examType"`
	ExamDate  string `json:"examDate" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"omitempty,hhmm"`
	EndTime   string `json:"endTime" validate:"omitempty,hhmm"`
	Duration  int    `json:"duration" validate:"omitempty,gt=0,lte=1440"`
}

func (ue *UpdateExamination) Validate(validate *validator.Validate) error {
	ue.Class = core.CleanString(ue.Class)
	ue.Subject = core.CleanString(ue.Subject)
	ue.ExamType = Type(core.CleanString(string(ue.ExamType)))
	ue.ExamDate = core.CleanString(ue.ExamDate)
	ue.StartTime = core.CleanString(ue.StartTime)
	ue.EndTime = core.CleanString(ue.EndTime)
	return validate.Struct(ue)
}

// DurationRequest asks for the duration between two times of day.
type DurationRequest struct {
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

func (dr DurationRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(dr)
}
