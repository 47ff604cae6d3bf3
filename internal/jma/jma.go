// Package jma reads the Japan Meteorological Agency fixed-width hourly tide
// format: 24 three-column heights in centimeters followed by YYMMDD and a
// two-letter station code.
package jma

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/tidecalc/internal/domain"
)

// JSTLocation is a fixed +09:00 zone used by JMA hourly records.
var JSTLocation = time.FixedZone("JST", 9*60*60)

// missing marks an hour without an observation.
const missing = 999

const lineLength = 80

// HourlyRecord is one station day of 24 hourly heights.
type HourlyRecord struct {
	Station   string
	Day       time.Time // Start of day in JST.
	HeightsCm [24]float64
	Valid     [24]bool
}

// ParseHourlyLine parses a single fixed-width JMA line into an HourlyRecord.
func ParseHourlyLine(line string) (*HourlyRecord, error) {
	if len(line) < lineLength {
		return nil, fmt.Errorf("line too short: %d", len(line))
	}
	var rec HourlyRecord

	for i := 0; i < 24; i++ {
		chunk := strings.ReplaceAll(line[3*i:3*i+3], " ", "")
		if chunk == "" {
			continue
		}
		v, err := strconv.Atoi(chunk)
		if err != nil {
			return nil, fmt.Errorf("invalid hourly value '%s' at %d: %w", chunk, i, err)
		}
		if v == missing {
			continue
		}
		rec.HeightsCm[i] = float64(v)
		rec.Valid[i] = true
	}

	var ymd [3]int
	for i := range ymd {
		field := strings.TrimSpace(line[72+2*i : 74+2*i])
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid date field '%s': %w", field, err)
		}
		ymd[i] = v
	}

	year := 2000 + ymd[0]
	if ymd[0] >= 70 {
		year = 1900 + ymd[0]
	}
	if ymd[1] < 1 || ymd[1] > 12 || ymd[2] < 1 || ymd[2] > 31 {
		return nil, fmt.Errorf("invalid date %02d-%02d-%02d", ymd[0], ymd[1], ymd[2])
	}

	rec.Station = strings.TrimSpace(line[78:80])
	rec.Day = time.Date(year, time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, JSTLocation)
	return &rec, nil
}

// FormatHourlyLine renders rec in the fixed-width format. Invalid hours and
// heights outside [-99, 998] cm are written as 999.
func FormatHourlyLine(rec HourlyRecord) string {
	var b strings.Builder
	b.Grow(lineLength)
	for i := 0; i < 24; i++ {
		v := missing
		if h := math.Round(rec.HeightsCm[i]); rec.Valid[i] && h >= -99 && h < missing {
			v = int(h)
		}
		fmt.Fprintf(&b, "%3d", v)
	}
	day := rec.Day.In(JSTLocation)
	fmt.Fprintf(&b, "%02d%2d%2d%2s", day.Year()%100, int(day.Month()), day.Day(), rec.Station)
	return b.String()
}

// LoadStationRecords scans r for lines belonging to the given station code.
// Unparseable lines are skipped.
func LoadStationRecords(r io.Reader, station string) ([]HourlyRecord, error) {
	station = strings.TrimSpace(station)
	scanner := bufio.NewScanner(r)
	records := make([]HourlyRecord, 0, 366)

	for scanner.Scan() {
		rec, err := ParseHourlyLine(scanner.Text())
		if err != nil {
			continue
		}
		if rec.Station == station {
			records = append(records, *rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan JMA data: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records found for station %s", station)
	}
	return records, nil
}

// LoadStationRecordsFromPath loads data from a local path or HTTP URL.
func LoadStationRecordsFromPath(ctx context.Context, pathOrURL, station string) ([]HourlyRecord, error) {
	rc, err := open(ctx, pathOrURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return LoadStationRecords(rc, station)
}

func open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		return os.Open(path)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return &cancelCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelCloser) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// Samples flattens the valid hours of records into UTC samples within
// [from, to). Zero bounds are open.
func Samples(records []HourlyRecord, from, to time.Time) []domain.Sample {
	samples := make([]domain.Sample, 0, len(records)*24)
	for _, rec := range records {
		for hour := 0; hour < 24; hour++ {
			if !rec.Valid[hour] {
				continue
			}
			t := rec.Day.Add(time.Duration(hour) * time.Hour)
			if !from.IsZero() && t.Before(from) {
				continue
			}
			if !to.IsZero() && !t.Before(to) {
				continue
			}
			samples = append(samples, domain.Sample{Time: t.UTC(), HeightCm: rec.HeightsCm[hour]})
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })
	return samples
}
