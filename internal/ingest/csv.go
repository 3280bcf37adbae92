package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/agromesh/cottonwatch/internal/log"
)

// Sensor exports carry minute-resolution timestamps; weather and irrigation
// files carry bare dates.
const (
	sensorTimeLayout = "200601021504"
	dateLayout       = "20060102"
)

// header returns a column-name -> index map for a CSV header row
func header(record []string) map[string]int {
	idx := make(map[string]int, len(record))
	for i, name := range record {
		idx[name] = i
	}
	return idx
}

func requireColumns(idx map[string]int, names ...string) error {
	for _, name := range names {
		if _, ok := idx[name]; !ok {
			return fmt.Errorf("missing required column %q", name)
		}
	}
	return nil
}

// ParseSensorCSV reads one raw sensor stream and aggregates it to one mean
// value per (date, location). Rows with unparsable timestamps or values are
// dropped, not fatal. A stream with zero usable rows returns ErrNoRows.
func ParseSensorCSV(r io.Reader, valueColumn string) (map[DailyKey]float64, error) {
	reader := csv.NewReader(r)
	headerRow, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading sensor CSV header: %w", err)
	}
	idx := header(headerRow)
	if err := requireColumns(idx, "collect_time", "location_info_x", "location_info_y", valueColumn); err != nil {
		return nil, err
	}

	sums := make(map[DailyKey]float64)
	counts := make(map[DailyKey]int)
	dropped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading sensor CSV row: %w", err)
		}

		ts, err := time.ParseInLocation(sensorTimeLayout, record[idx["collect_time"]], time.UTC)
		if err != nil {
			dropped++
			continue
		}
		x, errX := strconv.ParseFloat(record[idx["location_info_x"]], 64)
		y, errY := strconv.ParseFloat(record[idx["location_info_y"]], 64)
		value, errV := strconv.ParseFloat(record[idx[valueColumn]], 64)
		if errX != nil || errY != nil || errV != nil {
			dropped++
			continue
		}

		key := DailyKey{
			Date: DateOnly(ts),
			Loc:  Location{X: RoundCoord(x), Y: RoundCoord(y)},
		}
		sums[key] += value
		counts[key]++
	}

	if dropped > 0 {
		log.Warnf("dropped %d unparsable rows from %s stream", dropped, valueColumn)
	}
	if len(sums) == 0 {
		return nil, ErrNoRows
	}

	series := make(map[DailyKey]float64, len(sums))
	for key, sum := range sums {
		series[key] = sum / float64(counts[key])
	}
	return series, nil
}

// ParseWeatherCSV reads the date-keyed weather series
func ParseWeatherCSV(r io.Reader) (map[time.Time]WeatherDay, error) {
	reader := csv.NewReader(r)
	headerRow, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading weather CSV header: %w", err)
	}
	idx := header(headerRow)
	if err := requireColumns(idx, "date", "rain(mm/day)", "daily_mean_temperature(°C)"); err != nil {
		return nil, err
	}

	weather := make(map[time.Time]WeatherDay)
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading weather CSV row: %w", err)
		}

		date, err := time.ParseInLocation(dateLayout, record[idx["date"]], time.UTC)
		if err != nil {
			dropped++
			continue
		}
		rain, errR := strconv.ParseFloat(record[idx["rain(mm/day)"]], 64)
		temp, errT := strconv.ParseFloat(record[idx["daily_mean_temperature(°C)"]], 64)
		if errR != nil || errT != nil {
			dropped++
			continue
		}

		weather[DateOnly(date)] = WeatherDay{Rain: rain, AirTemperature: temp}
	}

	if dropped > 0 {
		log.Warnf("dropped %d unparsable weather rows", dropped)
	}
	return weather, nil
}

// ParseIrrigationCSV reads the management log and sums irrigation volume
// per date. Absence of a date means no irrigation was applied, not unknown.
func ParseIrrigationCSV(r io.Reader) (map[time.Time]float64, error) {
	reader := csv.NewReader(r)
	headerRow, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading irrigation CSV header: %w", err)
	}
	idx := header(headerRow)
	if err := requireColumns(idx, "irrigation_time", "irrigation_amount(m3/mu)"); err != nil {
		return nil, err
	}

	irrigation := make(map[time.Time]float64)
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading irrigation CSV row: %w", err)
		}

		date, err := time.ParseInLocation(dateLayout, record[idx["irrigation_time"]], time.UTC)
		if err != nil {
			dropped++
			continue
		}
		amount, err := strconv.ParseFloat(record[idx["irrigation_amount(m3/mu)"]], 64)
		if err != nil {
			dropped++
			continue
		}

		irrigation[DateOnly(date)] += amount
	}

	if dropped > 0 {
		log.Warnf("dropped %d unparsable irrigation rows", dropped)
	}
	return irrigation, nil
}
