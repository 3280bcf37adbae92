package ingest

import (
	"sort"
	"time"

	"github.com/agromesh/cottonwatch/internal/log"
)

// JoinOptions bounds the imputation applied during the space-time join
type JoinOptions struct {
	// MaxFillGapDays limits how far forward/backward fill may reach when a
	// date has no weather record. Rows whose gap exceeds it are dropped.
	MaxFillGapDays int
}

// BuildDailyDataset performs the space-time join: humidity is the driving
// stream (a location that never reports humidity is silently absent),
// temperature joins on (date, location), and the date-keyed weather and
// irrigation series broadcast to every location sharing the date. Missing
// irrigation defaults to zero; missing weather and soil temperature are
// forward- then backward-filled along the date axis within the gap bound.
// Output is one row per (date, location), sorted by date then location,
// without the days-since-irrigation feature (see DeriveDaysSince).
func BuildDailyDataset(
	humidity map[DailyKey]float64,
	temperature map[DailyKey]float64,
	weather map[time.Time]WeatherDay,
	irrigation map[time.Time]float64,
	opts JoinOptions,
) ([]DailyRecord, error) {
	if len(humidity) == 0 {
		return nil, ErrNoRows
	}

	keys := make([]DailyKey, 0, len(humidity))
	for key := range humidity {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Date.Equal(keys[j].Date) {
			return keys[i].Date.Before(keys[j].Date)
		}
		if keys[i].Loc.X != keys[j].Loc.X {
			return keys[i].Loc.X < keys[j].Loc.X
		}
		return keys[i].Loc.Y < keys[j].Loc.Y
	})

	tempByLocation := indexDatesByLocation(temperature)

	dropped := 0
	records := make([]DailyRecord, 0, len(keys))
	for _, key := range keys {
		record := DailyRecord{
			Date:         key.Date,
			LocX:         key.Loc.X,
			LocY:         key.Loc.Y,
			SoilHumidity: humidity[key],
		}

		soilTemp, ok := lookupWithFill(key, temperature, tempByLocation[key.Loc], opts.MaxFillGapDays)
		if !ok {
			dropped++
			continue
		}
		record.SoilTemperature = soilTemp

		day, ok := lookupWeatherWithFill(key.Date, weather, opts.MaxFillGapDays)
		if !ok {
			dropped++
			continue
		}
		record.Rain = day.Rain
		record.AirTemperature = day.AirTemperature

		// No irrigation record means none was applied that day
		record.IrrigationAmount = irrigation[key.Date]

		records = append(records, record)
	}

	if dropped > 0 {
		log.Warnf("space-time join dropped %d rows with gaps beyond %d days", dropped, opts.MaxFillGapDays)
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records, nil
}

// indexDatesByLocation builds, per location, the sorted list of dates the
// stream reported on
func indexDatesByLocation(series map[DailyKey]float64) map[Location][]time.Time {
	byLocation := make(map[Location][]time.Time)
	for key := range series {
		byLocation[key.Loc] = append(byLocation[key.Loc], key.Date)
	}
	for loc := range byLocation {
		dates := byLocation[loc]
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	}
	return byLocation
}

// lookupWithFill resolves a per-location series value for a date, falling
// back to the nearest earlier sample, then the nearest later one, each
// within maxGap days
func lookupWithFill(key DailyKey, series map[DailyKey]float64, locDates []time.Time, maxGap int) (float64, bool) {
	if v, ok := series[key]; ok {
		return v, true
	}

	// nearest earlier date
	i := sort.Search(len(locDates), func(i int) bool { return !locDates[i].Before(key.Date) })
	if i > 0 {
		prev := locDates[i-1]
		if daysBetween(prev, key.Date) <= maxGap {
			return series[DailyKey{Date: prev, Loc: key.Loc}], true
		}
	}
	// nearest later date
	if i < len(locDates) {
		next := locDates[i]
		if daysBetween(key.Date, next) <= maxGap {
			return series[DailyKey{Date: next, Loc: key.Loc}], true
		}
	}
	return 0, false
}

// lookupWeatherWithFill applies the same forward-then-backward policy to the
// date-keyed weather series; the fill assumes environmental conditions are
// locally smooth across short sensor outages
func lookupWeatherWithFill(date time.Time, weather map[time.Time]WeatherDay, maxGap int) (WeatherDay, bool) {
	if day, ok := weather[date]; ok {
		return day, true
	}
	for gap := 1; gap <= maxGap; gap++ {
		if day, ok := weather[date.AddDate(0, 0, -gap)]; ok {
			return day, true
		}
	}
	for gap := 1; gap <= maxGap; gap++ {
		if day, ok := weather[date.AddDate(0, 0, gap)]; ok {
			return day, true
		}
	}
	return WeatherDay{}, false
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
