package history

import (
	"codelens/internal/core/ports"
)

// Adapter exposes the sqlite store through the driving port.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) Save(record ports.OperationRecord) error {
	return a.store.Save(Record{
		ID:          record.ID,
		Timestamp:   record.Timestamp,
		Operation:   record.Operation,
		File:        record.File,
		Language:    record.Language,
		Duration:    record.Duration,
		Fallback:    record.Fallback,
		ResultCount: record.ResultCount,
		ErrorCode:   record.ErrorCode,
	})
}

func (a *Adapter) Recent(limit int) ([]ports.OperationRecord, error) {
	records, err := a.store.Recent(limit)
	if err != nil {
		return nil, err
	}
	out := make([]ports.OperationRecord, 0, len(records))
	for _, r := range records {
		out = append(out, ports.OperationRecord{
			ID:          r.ID,
			Timestamp:   r.Timestamp,
			Operation:   r.Operation,
			File:        r.File,
			Language:    r.Language,
			Duration:    r.Duration,
			Fallback:    r.Fallback,
			ResultCount: r.ResultCount,
			ErrorCode:   r.ErrorCode,
		})
	}
	return out, nil
}
