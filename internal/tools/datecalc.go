package tools

import (
	"context"
	"strconv"
	"time"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
	"github.com/assistantgpt/voice-task-bot/internal/model"
)

// CalculateDateName is the function name exposed to the model.
const CalculateDateName = "calculate_date"

// DateRequest holds the parameters of a date calculation. Nil fields are
// absent.
type DateRequest struct {
	Days    int  `json:"days"`
	Hours   *int `json:"hours"`
	Minutes *int `json:"minutes"`

	// WeekDay counts from Monday (0) to Sunday (6).
	WeekDay *int `json:"week_day"`
}

// CalculateDate resolves req relative to now and returns the result as Unix
// epoch milliseconds in decimal. The result keeps now's location.
func CalculateDate(now time.Time, req DateRequest) (string, error) {
	if req.WeekDay != nil && (*req.WeekDay < 0 || *req.WeekDay > 6) {
		return "", errs.ValidationErrorf("week_day must be between 0 and 6, got %d", *req.WeekDay)
	}
	if req.Hours != nil && (*req.Hours < 0 || *req.Hours > 23) {
		return "", errs.ValidationErrorf("hours must be between 0 and 23, got %d", *req.Hours)
	}
	if req.Minutes != nil && (*req.Minutes < 0 || *req.Minutes > 59) {
		return "", errs.ValidationErrorf("minutes must be between 0 and 59, got %d", *req.Minutes)
	}

	target := now
	if req.Hours != nil || req.Minutes != nil {
		var h, m int
		if req.Hours != nil {
			h = *req.Hours
		}
		if req.Minutes != nil {
			m = *req.Minutes
		}
		target = time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	}

	target = target.AddDate(0, 0, req.Days)

	if req.WeekDay != nil {
		target = target.AddDate(0, 0, daysUntil(mondayIndex(now.Weekday()), *req.WeekDay))
	}

	return strconv.FormatInt(target.UnixMilli(), 10), nil
}

// mondayIndex converts Go's Sunday-based weekday to a Monday-based index.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func daysUntil(from, to int) int {
	return ((to-from)%7 + 7) % 7
}

// DateCalculator exposes CalculateDate as a registry tool bound to a clock
// and a time zone.
type DateCalculator struct {
	now      func() time.Time
	location *time.Location
}

// NewDateCalculator creates a date calculator. A nil clock uses time.Now and
// a nil location uses time.Local.
func NewDateCalculator(now func() time.Time, location *time.Location) *DateCalculator {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.Local
	}
	return &DateCalculator{now: now, location: location}
}

// Calculate resolves req against the current time.
func (c *DateCalculator) Calculate(req DateRequest) (string, error) {
	return CalculateDate(c.now().In(c.location), req)
}

// Tool returns the calculate_date registry entry.
func (c *DateCalculator) Tool() Tool {
	return Tool{
		Spec: model.FunctionSpec{
			Name: CalculateDateName,
			Description: "Calculates a date relative to now and returns it as a Unix timestamp in milliseconds. " +
				"Use it for every relative date before creating a task.",
			Parameters: model.Schema{
				Type: "object",
				Properties: map[string]model.Schema{
					"days": {
						Type:        "integer",
						Description: "Days to add to the current date, may be negative.",
					},
					"hours": {
						Type:        "integer",
						Description: "Hour of day to set, 0-23.",
						Minimum:     model.IntPtr(0),
						Maximum:     model.IntPtr(23),
					},
					"minutes": {
						Type:        "integer",
						Description: "Minute of hour to set, 0-59.",
						Minimum:     model.IntPtr(0),
						Maximum:     model.IntPtr(59),
					},
					"week_day": {
						Type:        "integer",
						Description: "Move forward to this weekday, Monday=0 through Sunday=6.",
						Minimum:     model.IntPtr(0),
						Maximum:     model.IntPtr(6),
					},
				},
			},
		},
		Handler: func(ctx context.Context, args Arguments) (string, error) {
			var req DateRequest
			if err := args.Decode(&req); err != nil {
				return "", err
			}
			return c.Calculate(req)
		},
	}
}
