package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/aristath/folio/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// JobLister reports registered background jobs
type JobLister interface {
	Jobs() []scheduler.JobStatus
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string                `json:"status"` // "healthy" or "unhealthy"
	UptimeSeconds int64                 `json:"uptime_seconds"`
	CPUPercent    float64               `json:"cpu_percent"`
	MemoryPercent float64               `json:"memory_percent"`
	DiskFreeMB    float64               `json:"disk_free_mb"`
	Databases     []DBInfo              `json:"databases"`
	Jobs          []scheduler.JobStatus `json:"jobs"`
	Events        EventStats            `json:"events"`
	Engine        EngineSettings        `json:"engine"`
	LastChecked   string                `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name      string  `json:"name"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	Healthy   bool    `json:"healthy"`
	Error     string  `json:"error,omitempty"`
}

// EventStats describes the event bus
type EventStats struct {
	Subscribers int `json:"subscribers"`
	Dropped     int `json:"dropped"`
}

// EngineSettings is the valuation configuration in effect
type EngineSettings struct {
	ReportingCurrency string `json:"reporting_currency"`
	CostBasisMode     string `json:"cost_basis_mode"`
	PriceStaleAfter   string `json:"price_stale_after"`
	BulkRefreshDelay  string `json:"bulk_refresh_delay"`
	RefreshSchedule   string `json:"refresh_schedule,omitempty"`
	BackupsEnabled    bool   `json:"backups_enabled"`
}

// SystemHandlers serves health and status endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	cfg       *config.Config
	databases []*database.DB
	jobs      JobLister
	bus       *events.Bus
	startedAt time.Time

	hostStats func() (float64, float64)
	diskFree  func(path string) (uint64, error)
}

// NewSystemHandlers creates new system handlers. jobs and bus may be nil.
func NewSystemHandlers(
	cfg *config.Config,
	databases []*database.DB,
	jobs JobLister,
	bus *events.Bus,
	log zerolog.Logger,
) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		cfg:       cfg,
		databases: databases,
		jobs:      jobs,
		bus:       bus,
		startedAt: time.Now(),
		diskFree: func(path string) (uint64, error) {
			usage, err := disk.Usage(path)
			if err != nil {
				return 0, err
			}
			return usage.Free, nil
		},
	}
	h.hostStats = h.getSystemStats
	return h
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.log, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSystemStatus handles GET /api/system/status. Responds 503 when a
// database fails its health check.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Databases:     make([]DBInfo, 0, len(h.databases)),
		Jobs:          []scheduler.JobStatus{},
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	for _, db := range h.databases {
		info := DBInfo{Name: db.Name(), Healthy: true}
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			info.Healthy = false
			info.Error = err.Error()
			response.Status = "unhealthy"
		}
		if stats, err := db.GetStats(); err == nil {
			info.SizeMB = float64(stats.SizeBytes) / 1024 / 1024
			info.WALSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
		}
		response.Databases = append(response.Databases, info)
	}

	response.CPUPercent, response.MemoryPercent = h.hostStats()

	if h.cfg != nil {
		if free, err := h.diskFree(h.cfg.DataDir); err == nil {
			response.DiskFreeMB = float64(free) / 1024 / 1024
		} else {
			h.log.Warn().Err(err).Msg("Failed to get disk usage")
		}

		response.Engine = EngineSettings{
			ReportingCurrency: h.cfg.ReportingCurrency,
			CostBasisMode:     h.cfg.CostBasisMode,
			PriceStaleAfter:   h.cfg.PriceStaleAfter.String(),
			BulkRefreshDelay:  h.cfg.BulkRefreshDelay.String(),
			RefreshSchedule:   h.cfg.RefreshSchedule,
			BackupsEnabled:    h.cfg.Backup.Enabled,
		}
	}

	if h.jobs != nil {
		response.Jobs = h.jobs.Jobs()
	}
	if h.bus != nil {
		response.Events = EventStats{Subscribers: h.bus.Subscribers(), Dropped: h.bus.Dropped()}
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	utils.WriteJSON(w, h.log, status, response)
}

// getSystemStats returns CPU and RAM usage percentages. CPU is sampled
// over 100ms to keep the request fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
