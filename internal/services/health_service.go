package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// ClientCounter reports connected progress subscribers
type ClientCounter interface {
	ClientCount() int
}

// SessionCounter reports open sessions
type SessionCounter interface {
	Len() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	commit    string
	exportDir string
	sessions  SessionCounter
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BuildInfo is stamped into the binary at link time
type BuildInfo struct {
	Version   string
	BuildTime string
	Commit    string
}

// NewHealthService creates a health service. exportDir is checked for
// writability by the readiness check.
func NewHealthService(build BuildInfo, exportDir string, sessions SessionCounter, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   build.Version,
		buildTime: build.BuildTime,
		commit:    build.Commit,
		exportDir: exportDir,
		sessions:  sessions,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
		},
	}
	if hs.sessions != nil {
		status.Runtime["sessions"] = hs.sessions.Len()
	}
	if hs.hub != nil {
		status.Runtime["websocket_clients"] = hs.hub.ClientCount()
	}
	return status
}

// ReadinessCheck reports whether every dependency can serve requests
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"sessions":  hs.checkComponent(hs.sessions != nil, "session store"),
			"websocket": hs.checkComponent(hs.hub != nil, "websocket hub"),
			"export":    hs.checkExportDir(),
		},
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("component", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.commit != "" {
		result["commit"] = hs.commit
	}
	return result
}

func (hs *HealthService) checkComponent(present bool, name string) ServiceHealth {
	if !present {
		return ServiceHealth{Status: "not_ready", Message: name + " not initialized"}
	}
	return ServiceHealth{Status: "ready"}
}

// checkExportDir verifies the CLI/server export directory can be written
func (hs *HealthService) checkExportDir() ServiceHealth {
	if hs.exportDir == "" {
		return ServiceHealth{Status: "ready", Message: "no export directory configured"}
	}
	info, err := os.Stat(hs.exportDir)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("export directory unavailable: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: "export path is not a directory"}
	}

	tmp, err := os.CreateTemp(hs.exportDir, ".ready-*")
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("export directory not writable: %v", err)}
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)

	return ServiceHealth{Status: "ready"}
}
