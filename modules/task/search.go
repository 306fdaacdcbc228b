package task

import (
	"math"
	"strconv"
	"strings"
	"time"

	domain "github.com/kaiodadalt/task-management-system/domain/task"
)

// Search defaults and limits.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// SearchQuery is the raw, unvalidated search input as received from a client.
type SearchQuery struct {
	Status    string `json:"status,omitempty"`
	Priority  string `json:"priority,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Page      string `json:"page,omitempty"`
	PerPage   string `json:"per_page,omitempty"`
}

// SearchCriteria is a validated search. Nil filters impose no constraint.
type SearchCriteria struct {
	Status   *domain.Status
	Priority *domain.Priority
	Start    *time.Time
	End      *time.Time
	Page     int
	PerPage  int
}

// Offset returns the number of rows before the requested page. Pages too
// far out for an int64 offset saturate at math.MaxInt64.
func (c SearchCriteria) Offset() int64 {
	if c.Page <= 1 || c.PerPage <= 0 {
		return 0
	}
	skipped := int64(c.Page - 1)
	if skipped > math.MaxInt64/int64(c.PerPage) {
		return math.MaxInt64
	}
	return skipped * int64(c.PerPage)
}

// ParseSearchQuery validates q. Bounds without a zone are read in loc; a
// date-only end bound covers that whole day.
func ParseSearchQuery(q SearchQuery, loc *time.Location) (SearchCriteria, error) {
	verr := &domain.ValidationError{}
	c := SearchCriteria{Page: 1, PerPage: DefaultPerPage}

	if q.Status != "" {
		if s, err := domain.ParseStatus(q.Status); err != nil {
			verr.Add("status", "The selected status is invalid.")
		} else {
			c.Status = &s
		}
	}
	if q.Priority != "" {
		if p, err := domain.ParsePriority(q.Priority); err != nil {
			verr.Add("priority", "The selected priority is invalid.")
		} else {
			c.Priority = &p
		}
	}

	if q.StartDate != "" {
		if start, err := domain.ParseDate(q.StartDate, loc); err != nil {
			verr.Add("start_date", "The start date field must be a valid date.")
		} else {
			start = start.UTC()
			c.Start = &start
		}
	}
	if q.EndDate != "" {
		if end, err := domain.ParseDate(q.EndDate, loc); err != nil {
			verr.Add("end_date", "The end date field must be a valid date.")
		} else {
			if isDateOnly(q.EndDate) {
				end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
			end = end.UTC()
			c.End = &end
		}
	}
	if c.Start != nil && c.End != nil && c.End.Before(*c.Start) {
		verr.Add("end_date", "The end date field must be a date after or equal to start date.")
	}

	if q.Page != "" {
		n, err := strconv.Atoi(strings.TrimSpace(q.Page))
		switch {
		case err != nil:
			verr.Add("page", "The page field must be an integer.")
		case n < 1:
			verr.Add("page", "The page field must be at least 1.")
		default:
			c.Page = n
		}
	}
	if q.PerPage != "" {
		n, err := strconv.Atoi(strings.TrimSpace(q.PerPage))
		switch {
		case err != nil:
			verr.Add("per_page", "The per page field must be an integer.")
		case n < 1 || n > MaxPerPage:
			verr.Add("per_page", "The per page field must be between 1 and 100.")
		default:
			c.PerPage = n
		}
	}

	if err := verr.Err(); err != nil {
		return SearchCriteria{}, err
	}
	return c, nil
}

func isDateOnly(s string) bool {
	_, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	return err == nil
}

// Page is one page of search results with its position in the full set.
type Page struct {
	Items       []domain.Task `json:"items"`
	Total       int64         `json:"total"`
	CurrentPage int           `json:"current_page"`
	PerPage     int           `json:"per_page"`
}

// LastPage returns the number of pages, never less than 1.
func (p Page) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// From returns the 1-based index of the first item on the page, or nil
// when the page is empty.
func (p Page) From() *int {
	if len(p.Items) == 0 {
		return nil
	}
	if p.CurrentPage < 1 || p.PerPage < 1 {
		return nil
	}
	if int64(p.CurrentPage-1) > p.Total/int64(p.PerPage) {
		return nil
	}
	skipped := int64(p.CurrentPage-1) * int64(p.PerPage)
	if skipped >= p.Total {
		return nil
	}
	from := int(skipped) + 1
	return &from
}

// To returns the 1-based index of the last item on the page, or nil when
// the page is empty.
func (p Page) To() *int {
	from := p.From()
	if from == nil {
		return nil
	}
	to := *from + len(p.Items) - 1
	return &to
}

// PrevPage returns the previous page number, or nil on page 1.
func (p Page) PrevPage() *int {
	if p.CurrentPage <= 1 {
		return nil
	}
	prev := p.CurrentPage - 1
	return &prev
}

// NextPage returns the next page number, or nil on or past the last page.
func (p Page) NextPage() *int {
	if p.CurrentPage >= p.LastPage() {
		return nil
	}
	next := p.CurrentPage + 1
	return &next
}
