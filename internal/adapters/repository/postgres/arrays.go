package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uuidArray adapts a uuid slice to a postgres uuid[] parameter.
func uuidArray(ids []uuid.UUID) interface{} {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return pq.Array(values)
}

// uuidArrayScanner scans a postgres uuid[] column into dst.
type uuidArrayScanner struct {
	dst *[]uuid.UUID
}

func (s uuidArrayScanner) Scan(src interface{}) error {
	var values pq.StringArray
	if err := values.Scan(src); err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("failed to parse uuid array element %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	*s.dst = ids
	return nil
}

func scanUUIDs(dst *[]uuid.UUID) uuidArrayScanner {
	return uuidArrayScanner{dst: dst}
}
