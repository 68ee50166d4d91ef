package server

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/journalkeeper/tradejournal/internal/database"
	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/scheduler"
)

// SystemHandlers contains HTTP handlers for system monitoring
type SystemHandlers struct {
	log       zerolog.Logger
	db        *database.DB
	dataDir   string
	startedAt time.Time

	revalidateJob scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(db *database.DB, dataDir string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		db:        db,
		dataDir:   dataDir,
		startedAt: time.Now(),
	}
}

// SetRevalidationJob registers the lesson revalidation job for manual
// triggering via the API
func (h *SystemHandlers) SetRevalidationJob(job scheduler.Job) {
	h.revalidateJob = job
}

// SystemStatusResponse is the payload for GET /api/system/status
type SystemStatusResponse struct {
	Status        string           `json:"status"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	CPUPercent    float64          `json:"cpu_percent"`
	MemoryPercent float64          `json:"memory_percent"`
	DiskPercent   float64          `json:"disk_percent"`
	Goroutines    int              `json:"goroutines"`
	DatabaseBytes int64            `json:"database_bytes"`
	RowCounts     map[string]int64 `json:"row_counts"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	diskPercent := 0.0
	if usage, err := disk.Usage(h.dataDir); err == nil {
		diskPercent = usage.UsedPercent
	}

	dbBytes := int64(0)
	if info, err := os.Stat(h.db.Path()); err == nil {
		dbBytes = info.Size()
	}

	rowCounts, err := h.rowCounts()
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskPercent:   diskPercent,
		Goroutines:    runtime.NumGoroutine(),
		DatabaseBytes: dbBytes,
		RowCounts:     rowCounts,
	})
}

// HandleTriggerRevalidation handles POST /api/system/jobs/revalidate-lessons
func (h *SystemHandlers) HandleTriggerRevalidation(w http.ResponseWriter, r *http.Request) {
	if h.revalidateJob == nil {
		domain.WriteErrorMessage(w, http.StatusServiceUnavailable, "job_unavailable",
			"revalidation job is not registered")
		return
	}

	h.log.Info().Str("job", h.revalidateJob.Name()).Msg("Manually triggering job")
	if err := h.revalidateJob.Run(); err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job":       h.revalidateJob.Name(),
		"triggered": true,
	})
}

func (h *SystemHandlers) rowCounts() (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range []string{"trades", "lessons", "lesson_categories", "daily_outlooks", "daily_reviews"} {
		var n int64
		if err := h.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent := 0.0
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	} else if err != nil {
		h.log.Debug().Err(err).Msg("Failed to read CPU usage")
	}

	memPercent := 0.0
	if memStat, err := mem.VirtualMemory(); err == nil {
		memPercent = memStat.UsedPercent
	} else {
		h.log.Debug().Err(err).Msg("Failed to read memory usage")
	}

	return cpuPercent, memPercent
}
