package meter

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wattmon/wattmon/pkg/model"
)

// ErrMissingRequiredField is returned when the remaining-energy field
// cannot be located in the payload or does not parse as a non-negative
// number. Every other field degrades to its zero value instead.
var ErrMissingRequiredField = errors.New("payload missing remaining-energy field")

// The meter backend is not a stable API; field names vary between
// firmware revisions, so each field is located by any of its known
// labels, in any order.
var fieldAliases = map[string][]string{
	"remaining_energy":  {"shengyu", "remaining_energy", "remainingEnergy"},
	"total_consumption": {"leiji", "total_consumption", "totalConsumption"},
	"price":             {"price", "danjia"},
	"meter_status":      {"zhuangtai", "meter_status", "status"},
	"update_time":       {"gengxin", "update_time", "updateTime"},
}

// labelPattern recovers key/value pairs from payloads that look like
// JSON but do not parse as JSON (truncated responses, stray markup).
var labelPattern = regexp.MustCompile(`"(\w+)"\s*:\s*"?([^",}\]]*)"?`)

// Extract parses a raw meter response into a Reading stamped with now.
// Extraction is tolerant: fields may appear in any order and at any
// nesting depth, and only remaining energy is required.
func Extract(raw []byte, now time.Time) (*model.Reading, error) {
	fields := scanFields(raw)

	energy, ok := lookupNumber(fields, "remaining_energy")
	if !ok || energy < 0 {
		return nil, fmt.Errorf("extract: %w", ErrMissingRequiredField)
	}

	r := &model.Reading{
		ID:              uuid.New().String(),
		RemainingEnergy: energy,
		ObservedAt:      now,
	}

	if v, ok := lookupNumber(fields, "total_consumption"); ok && v >= 0 {
		r.TotalConsumption = v
	}
	if v, ok := lookupNumber(fields, "price"); ok && v > 0 {
		r.Price = v
		r.RemainingAmount = energy * v
	}
	if s, ok := lookupString(fields, "meter_status"); ok {
		r.MeterStatus = s
	}
	if s, ok := lookupString(fields, "update_time"); ok && s != "" {
		r.SourceUpdateTime = s
	} else {
		r.SourceUpdateTime = now.Format("2006-01-02 15:04:05")
	}

	return r, nil
}

// scanFields flattens the payload into a single key/value map. Nested
// objects are walked depth-first; the first occurrence of a key wins.
func scanFields(raw []byte) map[string]any {
	out := make(map[string]any)

	var doc any
	if err := json.Unmarshal(raw, &doc); err == nil {
		flatten(doc, out)
		return out
	}

	for _, m := range labelPattern.FindAllSubmatch(raw, -1) {
		key := string(m[1])
		if _, seen := out[key]; !seen {
			out[key] = strings.TrimSpace(string(m[2]))
		}
	}
	return out
}

func flatten(node any, out map[string]any) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			switch child.(type) {
			case map[string]any, []any:
				flatten(child, out)
			default:
				if _, seen := out[key]; !seen {
					out[key] = child
				}
			}
		}
	case []any:
		for _, child := range v {
			flatten(child, out)
		}
	}
}

func lookupNumber(fields map[string]any, name string) (float64, bool) {
	for _, alias := range fieldAliases[name] {
		raw, ok := fields[alias]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				// Malformed numeric text counts as absent, not fatal.
				continue
			}
			return f, true
		}
	}
	return 0, false
}

func lookupString(fields map[string]any, name string) (string, bool) {
	for _, alias := range fieldAliases[name] {
		raw, ok := fields[alias]
		if !ok {
			continue
		}
		if s, ok := raw.(string); ok {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
