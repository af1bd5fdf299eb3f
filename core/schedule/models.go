package schedule

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const (
	dateLayout = "2006-01-02"
	hhmmLayout = "15:04"
)

// Schedule is a teacher's period with a class for a subject.
type Schedule struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school"`
	TeacherID string    `json:"teacher"`
	SubjectID string    `json:"subject"`
	ClassID   string    `json:"class"`
	StartTime time.Time `json:"startTime"` // UTC
	EndTime   time.Time `json:"endTime"`   // UTC
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// NewSchedule contains information needed to book a Schedule.
// With a Date, StartTime and EndTime are HH:MM times of that day (UTC); without, they are RFC3339 timestamps.
type NewSchedule struct {
	Teacher   string `json:"teacher" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Class     string `json:"class" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`

	start, end time.Time
}

// UnmarshalJSON also accepts "selectedClass" for Class.
func (ns *NewSchedule) UnmarshalJSON(data []byte) error {
	type plain NewSchedule
	aux := struct {
		*plain
		SelectedClass string `json:"selectedClass"`
	}{plain: (*plain)(ns)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if ns.Class == "" {
		ns.Class = aux.SelectedClass
	}
	return nil
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.Teacher = core.CleanString(ns.Teacher)
	ns.Subject = core.CleanString(ns.Subject)
	ns.Class = core.CleanString(ns.Class)
	ns.Date = core.CleanString(ns.Date)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	if err := validate.Struct(ns); err != nil {
		return err
	}

	var err error
	ns.start, ns.end, err = ParseSlot(ns.Date, ns.StartTime, ns.EndTime)
	return err
}

// Slot returns the parsed time range. Only valid after Validate.
func (ns NewSchedule) Slot() (time.Time, time.Time) {
	return ns.start, ns.end
}

// UpdateSchedule replaces the provided fields only.
// StartTime and EndTime go together; Date is required with HH:MM times.
type UpdateSchedule struct {
	Teacher   string `json:"teacher"`
	Subject   string `json:"subject"`
	Class     string `json:"class"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required_with=EndTime"`
	EndTime   string `json:"endTime" validate:"required_with=StartTime"`
	Status    string `json:"status" validate:"omitempty,oneof=active cancelled completed"`

	start, end time.Time
}

func (us *UpdateSchedule) Validate(validate *validator.Validate) error {
	us.Teacher = core.CleanString(us.Teacher)
	us.Subject = core.CleanString(us.Subject)
	us.Class = core.CleanString(us.Class)
	us.Date = core.CleanString(us.Date)
	us.StartTime = core.CleanString(us.StartTime)
	us.EndTime = core.CleanString(us.EndTime)
	us.Status = core.CleanString(us.Status, true /* lower */)
	if err := validate.Struct(us); err != nil {
		return err
	}

	if us.StartTime != "" {
		var err error
		us.start, us.end, err = ParseSlot(us.Date, us.StartTime, us.EndTime)
		return err
	}
	if us.Date != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "startTime", Error: "startTime and endTime are required with date"})
	}
	return nil
}

func (us UpdateSchedule) reschedules() bool {
	return !us.start.IsZero()
}

// ParseSlot parses a booking range and checks that it ends after it starts.
func ParseSlot(date, start, end string) (time.Time, time.Time, error) {
	parse := func(fld, val string) (time.Time, error) {
		var (
			t   time.Time
			err error
		)
		if date != "" {
			t, err = time.ParseInLocation(dateLayout+" "+hhmmLayout, date+" "+val, time.UTC)
		} else {
			t, err = time.Parse(time.RFC3339, val)
		}
		if err != nil {
			msg := fld + " must be an RFC3339 timestamp"
			if date != "" {
				msg = fld + " must be a time of day formatted as HH:MM"
			}
			return time.Time{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: fld, Error: msg})
		}
		return t.UTC(), nil
	}

	s, err := parse("startTime", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parse("endTime", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return s, e, nil
}

// CleanupResult reports what a cleanup run changed.
type CleanupResult struct {
	Completed int64 `json:"completed"`
	Deleted   int64 `json:"deleted"`
}
