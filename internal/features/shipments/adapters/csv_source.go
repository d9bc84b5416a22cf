package adapter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"freight-tracker/internal/features/tracking/domain"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNoHeader is returned for an empty input.
	ErrNoHeader = errors.New("csv has no header row")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("csv is missing a required column")
)

var requiredColumns = []string{domain.FieldBOL}

// CSVSource reads shipment exports. UTF-8 and UTF-16 files with a byte order
// mark are decoded accordingly; BOM-less input that is not valid UTF-8 is
// treated as Windows-1252, which is what spreadsheet exports usually are.
type CSVSource struct{}

// NewCSVSource creates a CSVSource.
func NewCSVSource() *CSVSource {
	return &CSVSource{}
}

// ReadFile reads the CSV file at path.
func (s *CSVSource) ReadFile(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shipments file: %w", err)
	}
	defer f.Close()

	records, err := s.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read parses header-keyed rows. Blank rows are skipped; header names and
// values are trimmed.
func (s *CSVSource) Read(r io.Reader) ([]domain.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read shipments: %w", err)
	}

	decoded, err := decode(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(decoded))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkColumns(header); err != nil {
		return nil, err
	}

	var records []domain.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if blank(row) {
			continue
		}

		rec := make(domain.Record, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// LoadShipments maps records to shipments, keeping their order.
func LoadShipments(records []domain.Record) []domain.Shipment {
	shipments := make([]domain.Shipment, 0, len(records))
	for _, r := range records {
		shipments = append(shipments, domain.NewShipmentFromRecord(r))
	}
	return shipments
}

func decode(raw []byte) ([]byte, error) {
	hasBOM := bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) ||
		bytes.HasPrefix(raw, []byte{0xFE, 0xFF})

	var t transform.Transformer
	switch {
	case hasBOM:
		t = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case utf8.Valid(raw):
		return raw, nil
	default:
		t = charmap.Windows1252.NewDecoder()
	}

	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		return nil, fmt.Errorf("decode shipments: %w", err)
	}
	return out, nil
}

func checkColumns(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
