package ingest

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseSensorCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[DailyKey]float64
		epsilon  float64
	}{
		{
			name: "same day readings averaged",
			input: "collect_time,location_info_x,location_info_y,soil_humidity(%)\n" +
				"202407010800,86.0592,41.1891,40.0\n" +
				"202407011400,86.0592,41.1891,50.0\n" +
				"202407012000,86.0592,41.1891,60.0\n",
			expected: map[DailyKey]float64{
				{Date: day(2024, 7, 1), Loc: Location{X: 86.0592, Y: 41.1891}}: 50.0,
			},
			epsilon: 1e-9,
		},
		{
			name: "coordinate jitter collapses to one location",
			input: "collect_time,location_info_x,location_info_y,soil_humidity(%)\n" +
				"202407010800,86.05920001,41.18909999,30.0\n" +
				"202407011400,86.05919999,41.18910001,50.0\n",
			expected: map[DailyKey]float64{
				{Date: day(2024, 7, 1), Loc: Location{X: 86.0592, Y: 41.1891}}: 40.0,
			},
			epsilon: 1e-9,
		},
		{
			name: "distinct locations stay distinct",
			input: "collect_time,location_info_x,location_info_y,soil_humidity(%)\n" +
				"202407010800,86.0592,41.1891,30.0\n" +
				"202407010800,86.0601,41.1891,70.0\n",
			expected: map[DailyKey]float64{
				{Date: day(2024, 7, 1), Loc: Location{X: 86.0592, Y: 41.1891}}: 30.0,
				{Date: day(2024, 7, 1), Loc: Location{X: 86.0601, Y: 41.1891}}: 70.0,
			},
			epsilon: 1e-9,
		},
		{
			name: "unparsable rows dropped not fatal",
			input: "collect_time,location_info_x,location_info_y,soil_humidity(%)\n" +
				"not-a-time,86.0592,41.1891,30.0\n" +
				"202407010800,86.0592,41.1891,not-a-number\n" +
				"202407010800,86.0592,41.1891,42.0\n",
			expected: map[DailyKey]float64{
				{Date: day(2024, 7, 1), Loc: Location{X: 86.0592, Y: 41.1891}}: 42.0,
			},
			epsilon: 1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSensorCSV(strings.NewReader(tt.input), "soil_humidity(%)")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d keys, expected %d", len(got), len(tt.expected))
			}
			for key, want := range tt.expected {
				v, ok := got[key]
				if !ok {
					t.Errorf("missing key %v", key)
					continue
				}
				if math.Abs(v-want) > tt.epsilon {
					t.Errorf("key %v: got %v, expected %v", key, v, want)
				}
			}
		})
	}
}

func TestParseSensorCSVEmptyStream(t *testing.T) {
	input := "collect_time,location_info_x,location_info_y,soil_humidity(%)\n" +
		"garbage,x,y,z\n"
	_, err := ParseSensorCSV(strings.NewReader(input), "soil_humidity(%)")
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("got %v, expected ErrNoRows", err)
	}
}

func TestParseSensorCSVMissingColumn(t *testing.T) {
	input := "collect_time,location_info_x,location_info_y\n"
	_, err := ParseSensorCSV(strings.NewReader(input), "soil_humidity(%)")
	if err == nil {
		t.Error("expected an error for a missing value column")
	}
}

func TestParseWeatherCSV(t *testing.T) {
	input := "date,rain(mm/day),daily_mean_temperature(°C)\n" +
		"20240701,0.0,28.5\n" +
		"20240702,12.4,22.0\n"
	got, err := ParseWeatherCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d days, expected 2", len(got))
	}
	d2 := got[day(2024, 7, 2)]
	if d2.Rain != 12.4 || d2.AirTemperature != 22.0 {
		t.Errorf("got %+v, expected rain=12.4 temp=22.0", d2)
	}
}

func TestParseIrrigationCSVSumsPerDate(t *testing.T) {
	input := "irrigation_time,irrigation_amount(m3/mu)\n" +
		"20240701,15.0\n" +
		"20240701,10.0\n" +
		"20240705,20.0\n"
	got, err := ParseIrrigationCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[day(2024, 7, 1)] != 25.0 {
		t.Errorf("2024-07-01: got %v, expected 25.0", got[day(2024, 7, 1)])
	}
	if got[day(2024, 7, 5)] != 20.0 {
		t.Errorf("2024-07-05: got %v, expected 20.0", got[day(2024, 7, 5)])
	}
}

func TestRoundCoord(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{name: "rounds up", input: 86.05926, expected: 86.0593},
		{name: "rounds down", input: 41.18914, expected: 41.1891},
		{name: "already rounded", input: 86.0592, expected: 86.0592},
		{name: "negative", input: -1.23456, expected: -1.2346},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundCoord(tt.input); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("RoundCoord(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}
