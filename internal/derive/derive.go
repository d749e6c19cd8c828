// Package derive holds the pure attribute and measure derivations applied
// during warehouse loads. Every function is total: unrecognized inputs fall
// through to a defined default rather than failing.
package derive

import (
	"fmt"
	"time"
)

// Region labels. Districts not in any recognized list fall into Western,
// matching the source system's catch-all branch.
const (
	RegionCentral  = "Central"
	RegionEastern  = "Eastern"
	RegionNorthern = "Northern"
	RegionWestern  = "Western"
)

var districtRegions = map[string]string{
	"Kampala": RegionCentral,
	"Wakiso":  RegionCentral,
	"Mukono":  RegionCentral,
	"Masaka":  RegionCentral,
	"Luwero":  RegionCentral,
	"Jinja":   RegionEastern,
	"Mbale":   RegionEastern,
	"Tororo":  RegionEastern,
	"Iganga":  RegionEastern,
	"Soroti":  RegionEastern,
	"Pallisa": RegionEastern,
	"Kamuli":  RegionEastern,
	"Gulu":    RegionNorthern,
	"Lira":    RegionNorthern,
	"Kitgum":  RegionNorthern,
	"Arua":    RegionNorthern,
	"Nebbi":   RegionNorthern,
	"Apac":    RegionNorthern,
	"Moroto":  RegionNorthern,
}

// Region maps a district to its region bucket.
func Region(district string) string {
	if r, ok := districtRegions[district]; ok {
		return r
	}
	return RegionWestern
}

// FarmSizeCategory buckets acreage at the {2, 10} breakpoints.
func FarmSizeCategory(acres float64) string {
	switch {
	case acres < 2:
		return "Small (< 2 acres)"
	case acres < 10:
		return "Medium (2-10 acres)"
	default:
		return "Large (10+ acres)"
	}
}

// AgeGroup buckets a birth date by whole years of age as of the given date.
func AgeGroup(birth, asOf time.Time) string {
	years := asOf.Year() - birth.Year()
	if asOf.Month() < birth.Month() || (asOf.Month() == birth.Month() && asOf.Day() < birth.Day()) {
		years--
	}
	switch {
	case years < 30:
		return "Youth (18-29)"
	case years < 50:
		return "Adult (30-49)"
	default:
		return "Senior (50+)"
	}
}

// CapacityCategory buckets market capacity at the {10t, 50t} breakpoints.
func CapacityCategory(capacityKG float64) string {
	switch {
	case capacityKG < 10000:
		return "Small (< 10 tons)"
	case capacityKG < 50000:
		return "Medium (10-50 tons)"
	default:
		return "Large (50+ tons)"
	}
}

// GrowingPeriodCategory buckets average growing days at {90, 180}.
func GrowingPeriodCategory(days int) string {
	switch {
	case days < 90:
		return "Short (< 3 months)"
	case days < 180:
		return "Medium (3-6 months)"
	default:
		return "Long (6+ months)"
	}
}

// CategoryGroup rolls product categories up into reporting groups.
func CategoryGroup(category string) string {
	switch category {
	case "Cereals", "Legumes":
		return "Grains & Legumes"
	case "Root Crops", "Plantains":
		return "Roots & Tubers"
	case "Vegetables", "Fruits":
		return "Horticulture"
	default:
		return "Cash Crops"
	}
}

// PerishabilityCategory labels the perishable flag.
func PerishabilityCategory(perishable bool) string {
	if perishable {
		return "Perishable"
	}
	return "Non-Perishable"
}

// Season names the agricultural season for a calendar month.
func Season(month time.Month) string {
	switch month {
	case time.March, time.April, time.May:
		return "First Season"
	case time.September, time.October, time.November:
		return "Second Season"
	default:
		return "Off Season"
	}
}

// FiscalYear returns the July-start fiscal year containing the date.
func FiscalYear(d time.Time) int {
	if d.Month() >= time.July {
		return d.Year() + 1
	}
	return d.Year()
}

// FiscalQuarter returns the quarter within the July-start fiscal year.
func FiscalQuarter(d time.Time) int {
	switch d.Month() {
	case time.July, time.August, time.September:
		return 1
	case time.October, time.November, time.December:
		return 2
	case time.January, time.February, time.March:
		return 3
	default:
		return 4
	}
}

// FiscalMonth returns the month within the July-start fiscal year (July = 1).
func FiscalMonth(d time.Time) int {
	m := int(d.Month())
	if m >= 7 {
		return m - 6
	}
	return m + 6
}

// DateKey encodes a date as yyyymmdd, the warehouse date dimension key.
func DateKey(d time.Time) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}

// NetQuantity applies a post-harvest loss percentage to a raw quantity.
func NetQuantity(quantityKG, lossPct float64) float64 {
	return quantityKG - quantityKG*lossPct/100
}

// LossQuantity is the share of a quantity lost post harvest.
func LossQuantity(quantityKG, lossPct float64) float64 {
	return quantityKG * lossPct / 100
}

// PaymentFee computes the payment processing fee on an amount.
func PaymentFee(amount, feePct float64) float64 {
	return amount * feePct / 100
}

// NetAmount is the amount remaining after the payment fee.
func NetAmount(amount, feePct float64) float64 {
	return amount - PaymentFee(amount, feePct)
}

// PriceSpread is the retail/wholesale gap.
func PriceSpread(wholesale, retail float64) float64 {
	return retail - wholesale
}

// PriceSpreadPct is the spread as a percentage of the wholesale price.
// A zero wholesale price has no defined spread percentage; callers skip and
// report the row.
func PriceSpreadPct(wholesale, retail float64) (float64, error) {
	if wholesale == 0 {
		return 0, fmt.Errorf("price spread pct undefined for zero wholesale price")
	}
	return PriceSpread(wholesale, retail) / wholesale * 100, nil
}
