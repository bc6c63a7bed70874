// Package catalog loads the curated mouse dataset and exposes it as an
// immutable, index-addressed list of specs. Row position is the stable key
// used by the vector store, ranker and graph builder.
package catalog

import (
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MouseSpec is one catalog entry. Every field except Name and Brand may be
// absent; numeric and boolean fields use pointers so "unknown" is
// distinguishable from zero.
type MouseSpec struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
	URL   string `json:"url,omitempty"`

	PriceUSD    *float64 `json:"price,omitempty"`
	WeightGrams *float64 `json:"weight,omitempty"`
	LengthMM    *float64 `json:"length,omitempty"`
	WidthMM     *float64 `json:"width,omitempty"`
	HeightMM    *float64 `json:"height,omitempty"`
	Shape       string   `json:"shape,omitempty"`
	Hump        string   `json:"hump,omitempty"`

	MaxDPI        *int     `json:"dpi_max,omitempty"`
	PollingRateHz *int     `json:"polling_rate,omitempty"`
	TrackingIPS   *int     `json:"tracking_speed,omitempty"`
	AccelerationG *float64 `json:"acceleration,omitempty"`

	Wireless *bool `json:"wireless,omitempty"`

	HandCompatibility string   `json:"hand_compatibility,omitempty"` // right, left, ambidextrous
	GripCompatibility []string `json:"grip_compatibility,omitempty"`
	SideButtons       *int     `json:"side_buttons,omitempty"`

	Sensor   string `json:"sensor,omitempty"`
	Switches string `json:"switches,omitempty"`
	Genre    string `json:"genre,omitempty"`
}

// Catalog is the full dataset, ordered as loaded. Immutable after Load.
type Catalog struct {
	Mice []MouseSpec
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.Mice) }

// ConfigError reports a dataset problem that makes startup impossible.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "catalog: " + e.Reason
}

// requiredColumns must be present in the CSV header.
var requiredColumns = []string{"name", "brand"}

// Load reads the curated dataset from path. Missing required columns and
// negative price/weight/DPI values are configuration errors; any other
// absent cell simply leaves the field unset.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses the dataset from r. Split from Load for testability.
func Read(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("dataset missing required column %q", required)}
		}
	}

	var mice []MouseSpec
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset row %d: %w", row, err)
		}

		m, err := parseRow(cols, record)
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("row %d: %v", row, err)}
		}
		mice = append(mice, m)
		row++
	}

	return &Catalog{Mice: mice}, nil
}

func parseRow(cols map[string]int, record []string) (MouseSpec, error) {
	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	m := MouseSpec{
		Name:              cell("name"),
		Brand:             cell("brand"),
		URL:               cell("url"),
		Shape:             cell("shape"),
		Hump:              cell("hump"),
		HandCompatibility: strings.ToLower(cell("hand_compatibility")),
		Sensor:            cell("sensor"),
		Switches:          cell("switches"),
		Genre:             strings.ToLower(cell("genre")),
	}

	var err error
	if m.PriceUSD, err = parseFloat(cell("price")); err != nil {
		return m, fmt.Errorf("price: %w", err)
	}
	if m.WeightGrams, err = parseFloat(cell("weight")); err != nil {
		return m, fmt.Errorf("weight: %w", err)
	}
	if m.LengthMM, err = parseFloat(cell("length")); err != nil {
		return m, fmt.Errorf("length: %w", err)
	}
	if m.WidthMM, err = parseFloat(cell("width")); err != nil {
		return m, fmt.Errorf("width: %w", err)
	}
	if m.HeightMM, err = parseFloat(cell("height")); err != nil {
		return m, fmt.Errorf("height: %w", err)
	}
	if m.AccelerationG, err = parseFloat(cell("acceleration")); err != nil {
		return m, fmt.Errorf("acceleration: %w", err)
	}
	if m.MaxDPI, err = parseInt(cell("dpi_max")); err != nil {
		return m, fmt.Errorf("dpi_max: %w", err)
	}
	if m.PollingRateHz, err = parseInt(cell("polling_rate")); err != nil {
		return m, fmt.Errorf("polling_rate: %w", err)
	}
	if m.TrackingIPS, err = parseInt(cell("tracking_speed")); err != nil {
		return m, fmt.Errorf("tracking_speed: %w", err)
	}
	if m.SideButtons, err = parseInt(cell("side_buttons")); err != nil {
		return m, fmt.Errorf("side_buttons: %w", err)
	}
	if m.Wireless, err = parseBool(cell("wireless")); err != nil {
		return m, fmt.Errorf("wireless: %w", err)
	}

	if grips := cell("grip_compatibility"); grips != "" {
		for _, g := range strings.FieldsFunc(grips, func(r rune) bool { return r == ';' || r == ',' || r == '|' }) {
			g = strings.ToLower(strings.TrimSpace(g))
			if g != "" {
				m.GripCompatibility = append(m.GripCompatibility, g)
			}
		}
	}

	if m.PriceUSD != nil && *m.PriceUSD < 0 {
		return m, fmt.Errorf("price must be non-negative, got %v", *m.PriceUSD)
	}
	if m.WeightGrams != nil && *m.WeightGrams < 0 {
		return m, fmt.Errorf("weight must be non-negative, got %v", *m.WeightGrams)
	}
	if m.MaxDPI != nil && *m.MaxDPI < 0 {
		return m, fmt.Errorf("dpi_max must be non-negative, got %v", *m.MaxDPI)
	}

	return m, nil
}

func parseFloat(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt(s string) (*int, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	// Some datasets carry integer columns as floats ("26000.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	v := int(f)
	return &v, nil
}

func parseBool(s string) (*bool, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes", "wireless":
		v := true
		return &v, nil
	case "false", "0", "no", "wired":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("unrecognized boolean %q", s)
}

// Fingerprint returns a content identifier for the catalog: row count plus
// a hash of a stable serialization of every row. Any change to any row
// changes the fingerprint, which invalidates downstream caches.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()
	for i := range c.Mice {
		io.WriteString(h, c.Mice[i].stableString())
		io.WriteString(h, "\n")
	}
	return fmt.Sprintf("%d:%x", len(c.Mice), h.Sum(nil))
}

// stableString serializes a spec field by field, with explicit markers for
// absent values so that "" and unset hash differently from zero values.
func (m *MouseSpec) stableString() string {
	var b strings.Builder
	w := func(s string) {
		b.WriteString(s)
		b.WriteByte(0x1f)
	}
	w(m.Name)
	w(m.Brand)
	w(m.URL)
	w(floatStr(m.PriceUSD))
	w(floatStr(m.WeightGrams))
	w(floatStr(m.LengthMM))
	w(floatStr(m.WidthMM))
	w(floatStr(m.HeightMM))
	w(m.Shape)
	w(m.Hump)
	w(intStr(m.MaxDPI))
	w(intStr(m.PollingRateHz))
	w(intStr(m.TrackingIPS))
	w(floatStr(m.AccelerationG))
	w(boolStr(m.Wireless))
	w(m.HandCompatibility)
	w(strings.Join(m.GripCompatibility, ","))
	w(intStr(m.SideButtons))
	w(m.Sensor)
	w(m.Switches)
	w(m.Genre)
	return b.String()
}

func floatStr(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func intStr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func boolStr(v *bool) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatBool(*v)
}
