package schema

import "time"

// StoreStatus represents the status of the grade store.
type StoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalScores   int              `json:"total_scores"`
	TotalBatches  int              `json:"total_batches"`
	LastBatchID   string           `json:"last_batch_id"`
	LastBatchTime time.Time        `json:"last_batch_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
