package ports

import (
	"io"

	"freight-tracker/internal/features/tracking/domain"
)

// RecordSource turns an exported shipment list into raw records.
type RecordSource interface {
	Read(r io.Reader) ([]domain.Record, error)
}
