package report

import (
	"io"

	"github.com/redactyl/bextract/pkg/bulk"
)

// WriteJSON writes records as newline-delimited JSON in position order.
func WriteJSON(w io.Writer, rs []bulk.Record) error {
	Sort(rs)
	return bulk.MarshalRecords(w, rs)
}
