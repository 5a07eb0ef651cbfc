package validate

import (
	"regexp"
	"strconv"
	"strings"

	"jobscout-engine/internal/domain"
)

// reAmount matches figures like $120,000 / 85k / 120000.50, with an
// optional currency symbol.
var reAmount = regexp.MustCompile(`[$£€]?\s*(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*([kK])?`)

// ParseSalary pulls a numeric range out of free-form salary text.
// Unparsable input yields nil, never a rejection. A single figure becomes a
// degenerate range (Min == Max). Hourly rates are annualized at 2080 hours
// so ranges are comparable across postings.
func ParseSalary(text string) *domain.SalaryRange {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	matches := reAmount.FindAllStringSubmatch(text, -1)
	var amounts []float64
	for _, m := range matches {
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			v *= 1000
		}
		// small bare numbers ("5+ years", "401") are not salaries
		if v < 10 {
			continue
		}
		amounts = append(amounts, v)
	}
	if len(amounts) == 0 {
		return nil
	}

	r := &domain.SalaryRange{Min: amounts[0], Max: amounts[0]}
	for _, v := range amounts[1:] {
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}

	if isHourly(text) {
		r.Min *= 2080
		r.Max *= 2080
	}

	// drop noise like "401(k)" captured alongside nothing real
	if r.Max < 1000 {
		return nil
	}
	return r
}

func isHourly(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "/hr") ||
		strings.Contains(t, "/hour") ||
		strings.Contains(t, "per hour") ||
		strings.Contains(t, "hourly")
}
