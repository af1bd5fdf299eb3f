package notice

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

type Audience string

const (
	AudienceStudent Audience = "Student"
	AudienceTeacher Audience = "Teacher"
	AudienceAll     Audience = "All"
)

type Notice struct {
	ID          string      `json:"id"`
	SchoolID    string      `json:"school"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Audience    Audience    `json:"audience"`
	IsImportant bool        `json:"isImportant"`
	ExpiryDate  *time.Time  `json:"expiryDate,omitempty"` // UTC
	CreatedBy   auth.Author `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"` // UTC
}

// Expired reports whether the notice expired at `now`.
func (n Notice) Expired(now time.Time) bool {
	return n.ExpiryDate != nil && !n.ExpiryDate.After(now)
}

// ParseExpiry accepts YYYY-MM-DD (end of that day, UTC) or RFC3339.
func ParseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		t = t.Add(24*time.Hour - time.Second)
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errInvalidExpiry
	}
	t = t.UTC()
	return &t, nil
}

type NewNotice struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Message     string   `json:"message" validate:"required,max=5000"`
	Audience    Audience `json:"audience" validate:"required,audience"`
	IsImportant bool     `json:"isImportant"`
	ExpiryDate  string   `json:"expiryDate"`

	expiry *time.Time
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.ExpiryDate = core.CleanString(nn.ExpiryDate)
	if err := validate.Struct(nn); err != nil {
		return err
	}
	var err error
	nn.expiry, err = parseFutureExpiry(nn.ExpiryDate)
	return err
}

// UpdateNotice replaces the provided fields only. An empty ExpiryDate string removes the expiry.
type UpdateNotice struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Message     *string   `json:"message" validate:"omitempty,min=1,max=5000"`
	Audience    *Audience `json:"audience" validate:"omitempty,audience"`
	IsImportant *bool     `json:"isImportant"`
	ExpiryDate  *string   `json:"expiryDate"`

	expiry *time.Time
}

func (un *UpdateNotice) Validate(validate *validator.Validate) error {
	if un.Title != nil {
		title := core.CleanString(*un.Title)
		un.Title = &title
	}
	if un.Message != nil {
		msg := core.CleanString(*un.Message)
		un.Message = &msg
	}
	if err := validate.Struct(un); err != nil {
		return err
	}
	if un.ExpiryDate != nil {
		var err error
		un.expiry, err = parseFutureExpiry(core.CleanString(*un.ExpiryDate))
		return err
	}
	return nil
}

func parseFutureExpiry(s string) (*time.Time, error) {
	expiry, err := ParseExpiry(s)
	if err != nil {
		return nil, err
	}
	if expiry != nil && !expiry.After(nowFunc()) {
		return nil, errPastExpiry
	}
	return expiry, nil
}

// QueryFilter narrows a notice listing. Search is a case-insensitive match on the title or message.
type QueryFilter struct {
	Audience  Audience `query:"audience"`
	Search    string   `query:"search"`
	Important *bool    `query:"important"`
	Page      int      `query:"page"`
	Limit     int      `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Audience = Audience(core.CleanString(string(qf.Audience)))
	qf.Search = core.CleanString(qf.Search)
}

func (qf QueryFilter) page() core.Page {
	p := core.Page{Number: qf.Page, Limit: qf.Limit}
	p.Clean()
	return p
}

// Visibility restricts a query to what a principal may see.
type Visibility struct {
	// Audiences allowed; nil means any.
	Audiences []Audience
	// AuthorID also matches notices created by this author, whatever their audience.
	AuthorID string
	// ActiveAt hides the notices expired at that time when not zero.
	ActiveAt time.Time
}

// Matches applies the visibility rules to a single notice.
func (v Visibility) Matches(n Notice) bool {
	if !v.ActiveAt.IsZero() && n.Expired(v.ActiveAt) {
		return false
	}
	if v.Audiences == nil || (v.AuthorID != "" && n.CreatedBy.ID == v.AuthorID) {
		return true
	}
	for _, a := range v.Audiences {
		if n.Audience == a {
			return true
		}
	}
	return false
}

type Page struct {
	Notices    []Notice        `json:"notices"`
	Pagination core.Pagination `json:"pagination"`
}
