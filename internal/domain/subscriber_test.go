package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriber_Location(t *testing.T) {
	assert.Equal(t, time.UTC, Subscriber{}.Location())
	assert.Equal(t, time.UTC, Subscriber{Timezone: "Mars/Olympus_Mons"}.Location())
	assert.Equal(t, "America/Los_Angeles", Subscriber{Timezone: " America/Los_Angeles "}.Location().String())
}

func TestParseSendTimes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []SendTime
	}{
		{"empty", ``, []SendTime{DefaultSendTime}},
		{"malformed", `{"dayOfWeek":5}`, []SendTime{DefaultSendTime}},
		{"only invalid slots", `[{"dayOfWeek":7,"hour":9},{"dayOfWeek":1,"hour":24}]`, []SendTime{DefaultSendTime}},
		{
			"drops invalid and duplicates",
			`[{"dayOfWeek":5,"hour":9},{"dayOfWeek":-1,"hour":9},{"dayOfWeek":5,"hour":9},{"dayOfWeek":0,"hour":0}]`,
			[]SendTime{{DayOfWeek: 5, Hour: 9}, {DayOfWeek: 0, Hour: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSendTimes([]byte(tt.raw)))
		})
	}
}

func TestParseCities(t *testing.T) {
	assert.Nil(t, ParseCities(nil))
	assert.Nil(t, ParseCities([]byte(`not json`)))
	assert.Equal(t,
		[]CityRef{{Name: "Miami", State: "FL"}},
		ParseCities([]byte(`[{"name":"Miami","state":"FL"},{"name":"  ","state":"FL"}]`)))
}
