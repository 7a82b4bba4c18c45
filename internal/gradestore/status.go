package gradestore

import (
	"fmt"
	"sort"

	"github.com/raporkit/rapor/schema"
)

// GetStatus returns status information about the grade store.
func (gs *GradeStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(gs.backend),
		Connected:  gs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if gs.disabled() {
		return status, nil
	}

	// Get total scores
	row := gs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", gs.table(scoresTable)))
	if err := row.Scan(&status.TotalScores); err != nil {
		return status, fmt.Errorf("failed to get total scores: %w", err)
	}

	// Get total batches
	row = gs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", gs.table(batchesTable)))
	if err := row.Scan(&status.TotalBatches); err != nil {
		return status, fmt.Errorf("failed to get total batches: %w", err)
	}

	if status.TotalBatches > 0 {
		// Get last batch info
		lastQuery := fmt.Sprintf("SELECT batch_id, started_at FROM %s ORDER BY started_at DESC, batch_id DESC LIMIT 1", gs.table(batchesTable))
		row = gs.db.QueryRow(lastQuery)

		switch gs.backend {
		case schema.SQLiteBackend:
			var lastTimeStr string
			if err := row.Scan(&status.LastBatchID, &lastTimeStr); err != nil {
				return status, fmt.Errorf("failed to get last batch info: %w", err)
			}
			lastTime, err := parseTime(lastTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse last batch time: %w", err)
			}
			status.LastBatchTime = lastTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.LastBatchID, &status.LastBatchTime); err != nil {
				return status, fmt.Errorf("failed to get last batch info: %w", err)
			}
		}
	}

	// Get table sizes
	for _, table := range allTables {
		row = gs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", gs.table(table)))
		var count int64
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// PrintStoreStatus prints grade store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Scores: %d\n", status.TotalScores)
	fmt.Printf("Total Save Batches: %d\n", status.TotalBatches)
	if status.TotalBatches > 0 {
		fmt.Printf("Last Batch ID: %s\n", status.LastBatchID)
		fmt.Printf("Last Batch: %s\n", status.LastBatchTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Printf("  %s: %d rows\n", table, status.TableSizes[table])
	}
}
