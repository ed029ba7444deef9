package Tasks

import (
	"math"

	"Taskforce/Models"
)

// Statistics summarizes instances matching a filter: per-status counts and a
// completion rate in percent. Zero total yields a zero rate, never NaN.
type Statistics struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	CompletionRate float64          `json:"completion_rate"`
}

func (e *Engine) Statistics(companyID uint, f InstanceFilter) (*Statistics, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := e.instanceQuery(companyID, f).
		Select("task_instances.status AS status, COUNT(*) AS count").
		Group("task_instances.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &Statistics{ByStatus: make(map[string]int64)}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}
	if stats.Total > 0 {
		done := stats.ByStatus[Models.StatusCompleted] + stats.ByStatus[Models.StatusApproved]
		rate := float64(done) / float64(stats.Total) * 100
		stats.CompletionRate = math.Round(rate*100) / 100
	}
	return stats, nil
}
