package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSendTime is used whenever a subscriber has no usable slot stored.
var DefaultSendTime = SendTime{DayOfWeek: int(time.Monday), Hour: 9}

type SendTime struct {
	DayOfWeek int `json:"dayOfWeek"`
	Hour      int `json:"hour"`
}

func (s SendTime) Valid() bool {
	return s.DayOfWeek >= 0 && s.DayOfWeek <= 6 && s.Hour >= 0 && s.Hour <= 23
}

type CityRef struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type Subscriber struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"firstName"`
	IsActive           bool       `json:"isActive"`
	Interests          string     `json:"interests,omitempty"`
	Timezone           string     `json:"timezone"`
	PreferredSendTimes []SendTime `json:"preferredSendTimes"`
	SelectedCounties   []string   `json:"selectedCounties"`
	SelectedCities     []CityRef  `json:"selectedCities"`
	LastSentAt         *time.Time `json:"lastSentAt,omitempty"`
}

// Location resolves the subscriber timezone, falling back to UTC when it is unknown.
func (s Subscriber) Location() *time.Location {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NormalizeSendTimes drops out-of-range and duplicate slots. The result is never empty.
func NormalizeSendTimes(times []SendTime) []SendTime {
	seen := make(map[SendTime]struct{}, len(times))
	out := make([]SendTime, 0, len(times))
	for _, t := range times {
		if !t.Valid() {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return []SendTime{DefaultSendTime}
	}
	return out
}

// ParseSendTimes decodes a stored JSON value. Anything malformed yields the default slot.
func ParseSendTimes(raw []byte) []SendTime {
	if len(raw) == 0 {
		return []SendTime{DefaultSendTime}
	}
	var times []SendTime
	if err := json.Unmarshal(raw, &times); err != nil {
		return []SendTime{DefaultSendTime}
	}
	return NormalizeSendTimes(times)
}

// ParseCities decodes stored city selections, skipping entries without a name.
func ParseCities(raw []byte) []CityRef {
	if len(raw) == 0 {
		return nil
	}
	var cities []CityRef
	if err := json.Unmarshal(raw, &cities); err != nil {
		return nil
	}
	out := cities[:0]
	for _, c := range cities {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
