package source

import (
	"fmt"
	"strings"

	"holiday-viewer/internal/model"
)

// Field aliases seen in festival records, in order of preference.
var (
	nameKeys        = []string{"名称", "名前", "name"}
	dateKeys        = []string{"日付情報", "日にち", "date"}
	kindKeys        = []string{"種類", "kind", "type"}
	descriptionKeys = []string{"説明", "description"}
)

// normalizeRecord maps a free-form festival record to an Event. Dates stay
// as text; the upcoming selector parses them relative to the current year.
func normalizeRecord(rec map[string]any) model.Event {
	return model.Event{
		Name:        firstString(rec, nameKeys),
		DateText:    firstString(rec, dateKeys),
		Kind:        firstString(rec, kindKeys),
		Description: firstString(rec, descriptionKeys),
	}
}

// firstString returns the first non-empty value among keys.
func firstString(rec map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64, bool:
			s = fmt.Sprint(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
