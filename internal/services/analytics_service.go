package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/formhive/formhive/internal/models"
	"github.com/formhive/formhive/internal/store"
	"github.com/formhive/formhive/internal/validation"
)

// AnalyticsService computes per-form submission statistics and exports.
type AnalyticsService struct {
	store *store.Store
	forms *FormService
}

func NewAnalyticsService(st *store.Store, forms *FormService) *AnalyticsService {
	return &AnalyticsService{store: st, forms: forms}
}

// DailyStat is one day of the dense submission time series.
type DailyStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ValueCount is one entry of a field's top-value histogram.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FieldStat summarizes responses for one field defined on the form.
type FieldStat struct {
	FieldID       string           `json:"fieldId"`
	Label         string           `json:"label"`
	Type          models.FieldType `json:"type"`
	ResponseCount int              `json:"responseCount"`
	ResponseRate  float64          `json:"responseRate"`
	TopValues     []ValueCount     `json:"topValues"`
}

// Report is the full analytics aggregate for a form over a period.
type Report struct {
	FormID            string      `json:"formId"`
	PeriodStart       time.Time   `json:"periodStart"`
	PeriodEnd         time.Time   `json:"periodEnd"`
	TotalSubmissions  int64       `json:"totalSubmissions"`
	PeriodSubmissions int         `json:"periodSubmissions"`
	DailyStats        []DailyStat `json:"dailyStats"`
	FieldStats        []FieldStat `json:"fieldStats"`
}

const topValueLimit = 5

// Aggregate computes the daily series and per-field statistics for
// submissions in [periodStart, periodEnd]. The daily series covers every
// calendar day of the period, zero-filled. Per-field response rates divide
// by the form's lifetime submission counter, not the period count; clients
// depend on that denominator.
func (as *AnalyticsService) Aggregate(formID string, periodStart, periodEnd time.Time) (*Report, error) {
	form, err := as.forms.Get(formID)
	if err != nil {
		return nil, err
	}

	subs, err := as.store.ListSubmissionsBetween(formID, periodStart, periodEnd)
	if err != nil {
		return nil, &PersistenceError{Op: "scan submissions", Err: err}
	}

	report := &Report{
		FormID:            formID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		TotalSubmissions:  form.Submissions,
		PeriodSubmissions: len(subs),
	}

	report.DailyStats = dailySeries(subs, periodStart, periodEnd)
	report.FieldStats = fieldStats(form, subs)
	return report, nil
}

func dailySeries(subs []*models.Submission, start, end time.Time) []DailyStat {
	counts := make(map[string]int)
	for _, sub := range subs {
		counts[sub.Metadata.SubmittedAt.UTC().Format("2006-01-02")]++
	}

	var series []DailyStat
	startDay := start.UTC().Truncate(24 * time.Hour)
	endDay := end.UTC().Truncate(24 * time.Hour)
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, DailyStat{Date: key, Count: counts[key]})
	}
	return series
}

// fieldStats builds the per-field breakdown for the fields currently on the
// form. Answers referencing deleted fields stay in the submission totals but
// get no breakdown entry.
func fieldStats(form *models.Form, subs []*models.Submission) []FieldStat {
	stats := make([]FieldStat, 0, len(form.Fields))
	for _, field := range form.Fields {
		stat := FieldStat{
			FieldID: field.ID,
			Label:   field.Label,
			Type:    field.Type,
		}
		valueCounts := make(map[string]int)
		for _, sub := range subs {
			value, ok := sub.FieldValue(field.ID)
			if !ok || validation.IsEmpty(value) {
				continue
			}
			stat.ResponseCount++
			valueCounts[displayValue(value)]++
		}
		if form.Submissions > 0 {
			stat.ResponseRate = float64(stat.ResponseCount) / float64(form.Submissions) * 100
		}
		stat.TopValues = topValues(valueCounts, topValueLimit)
		stats = append(stats, stat)
	}
	return stats
}

func topValues(counts map[string]int, limit int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// displayValue flattens a submitted value to the string used for counting
// and export. Array values are joined with ", ".
func displayValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []interface{}:
		s := ""
		for i, item := range v {
			if i > 0 {
				s += ", "
			}
			s += displayValue(item)
		}
		return s
	case []string:
		s := ""
		for i, item := range v {
			if i > 0 {
				s += ", "
			}
			s += item
		}
		return s
	case float64:
		// JSON numbers decode as float64; keep integers undecorated.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ExportCSV streams every submission of a form as CSV: fixed metadata
// columns followed by one column per field label currently on the form.
// Quoting follows RFC 4180 (embedded quotes doubled). The caller resolves
// the form; no extra lookup happens here.
func (as *AnalyticsService) ExportCSV(form *models.Form, w io.Writer) error {
	subs, err := as.store.ListSubmissionsBetween(form.ID, time.Time{}, time.Now().UTC())
	if err != nil {
		return &PersistenceError{Op: "scan submissions", Err: err}
	}

	writer := csv.NewWriter(w)
	header := []string{"Submission ID", "Submitted At", "IP Address", "User Agent", "Status"}
	for _, field := range form.Fields {
		header = append(header, field.Label)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sub := range subs {
		row := []string{
			sub.ID,
			sub.Metadata.SubmittedAt.UTC().Format(time.RFC3339),
			sub.Metadata.IPAddress,
			sub.Metadata.UserAgent,
			string(sub.Status),
		}
		for _, field := range form.Fields {
			value, ok := sub.FieldValue(field.ID)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, displayValue(value))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ParsePeriod maps an analytics period token to its day span. Unknown
// tokens fall back to 30 days.
func ParsePeriod(period string) int {
	switch period {
	case "7d":
		return 7
	case "30d":
		return 30
	case "90d":
		return 90
	case "1y":
		return 365
	default:
		return 30
	}
}
