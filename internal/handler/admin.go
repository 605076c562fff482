package handler

import (
	"net/http"
	"runtime"
	"time"

	"address-rest-api/internal/repository"
	"address-rest-api/internal/service"
	"address-rest-api/pkg/apierror"
	"address-rest-api/pkg/response"
)

// AdminHandler handles administrative HTTP requests.
type AdminHandler struct {
	lifecycle   *service.CacheLifecycleManager
	addressRepo repository.AddressRepository
	cacheType   string
	dbType      string
	startTime   time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	lifecycle *service.CacheLifecycleManager,
	addressRepo repository.AddressRepository,
	cacheType, dbType string,
) *AdminHandler {
	return &AdminHandler{
		lifecycle:   lifecycle,
		addressRepo: addressRepo,
		cacheType:   cacheType,
		dbType:      dbType,
		startTime:   time.Now(),
	}
}

// ClearCache handles POST /api/addresses/clear-cache
//
// During shutdown the lifecycle manager turns the clear into a no-op,
// so this still answers 200; the shutdown path owns cache state then.
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.ClearAllCaches(r.Context()); err != nil {
		response.Error(w, apierror.InternalError("failed to clear caches: "+err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status": "cleared",
		"phase":  h.lifecycle.Phase().String(),
	})
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Cache info
	stats["cache"] = map[string]interface{}{
		"type":  h.cacheType,
		"phase": h.lifecycle.Phase().String(),
	}

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Store stats
	if h.addressRepo != nil {
		dbStats, err := h.addressRepo.Stats(ctx)
		if err == nil {
			stats["store"] = dbStats
		} else {
			stats["store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["store"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
