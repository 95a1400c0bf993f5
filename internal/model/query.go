package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinYear = 1900
	MaxYear = 2100
)

// Country is one of the supported ISO 3166-1 alpha-2 codes.
type Country string

const (
	CountryJP Country = "JP"
	CountryUS Country = "US"
	CountryGB Country = "GB"
	CountryDE Country = "DE"
	CountryFR Country = "FR"
	CountrySG Country = "SG"
	CountryAU Country = "AU"
	CountryCA Country = "CA"
)

// Countries lists the selectable countries in display order.
var Countries = []Country{
	CountryJP, CountryUS, CountryGB, CountryDE, CountryFR, CountrySG, CountryAU, CountryCA,
}

var countryNames = map[Country]string{
	CountryJP: "日本",
	CountryUS: "アメリカ",
	CountryGB: "イギリス",
	CountryDE: "ドイツ",
	CountryFR: "フランス",
	CountrySG: "シンガポール",
	CountryAU: "オーストラリア",
	CountryCA: "カナダ",
}

// Label returns the selector label, e.g. "日本（JP）".
func (c Country) Label() string {
	name, ok := countryNames[c]
	if !ok {
		return string(c)
	}
	return fmt.Sprintf("%s（%s）", name, c)
}

// ViewKind selects which data category is shown.
type ViewKind string

const (
	ViewPublicHolidays ViewKind = "publicHolidays"
	ViewFestivals      ViewKind = "festivals"
	ViewExtendedBreaks ViewKind = "extendedBreaks"
)

// ViewKinds lists the selectable views in display order.
var ViewKinds = []ViewKind{ViewPublicHolidays, ViewFestivals, ViewExtendedBreaks}

// Label returns the selector label.
func (v ViewKind) Label() string {
	switch v {
	case ViewPublicHolidays:
		return "祝日（公休日）"
	case ViewFestivals:
		return "伝統的な祭り・行事"
	case ViewExtendedBreaks:
		return "長期休暇"
	default:
		return string(v)
	}
}

// NoDataMessage is shown when a fetch for this view yields no data.
// Extended breaks are optional in the source data, so their absence is
// informational rather than an error.
func (v ViewKind) NoDataMessage() (message string, isError bool) {
	switch v {
	case ViewPublicHolidays:
		return "祝日のデータが取得できませんでした。", true
	case ViewFestivals:
		return "祭りデータが取得できませんでした。", true
	default:
		return "※ 長期休暇データが取得できませんでした。", false
	}
}

// Query holds the parameters of one fetch.
type Query struct {
	Country Country  `json:"country" validate:"required,oneof=JP US GB DE FR SG AU CA"`
	Year    int      `json:"year" validate:"min=1900,max=2100"`
	View    ViewKind `json:"view" validate:"required,oneof=publicHolidays festivals extendedBreaks"`
}

var validate = validator.New()

// Normalize upper-cases the country code.
func (q Query) Normalize() Query {
	q.Country = Country(strings.ToUpper(strings.TrimSpace(string(q.Country))))
	q.View = ViewKind(strings.TrimSpace(string(q.View)))
	return q
}

// Validate checks the query against the supported enumerations and year bounds.
func (q Query) Validate() error {
	return validate.Struct(q)
}
