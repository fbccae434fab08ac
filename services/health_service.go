package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"studyplan_go/config"
	"studyplan_go/database"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthCritical = "critical"

	depUp       = "up"
	depDown     = "down"
	depDisabled = "disabled"

	healthProbeTimeout = 1500 * time.Millisecond
)

// HealthService probes the datastores behind the planner and reports an
// aggregate status. MySQL down is critical; Redis down only degrades, and
// only when the audit queue depends on it.
type HealthService struct {
	serviceName string
	version     string
	startTime   time.Time
}

// HealthReport is the JSON body served by the health endpoint.
type HealthReport struct {
	Status        string             `json:"status"`
	Service       string             `json:"service"`
	Version       string             `json:"version"`
	Environment   string             `json:"environment"`
	Time          time.Time          `json:"time"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Runtime       RuntimeMetrics     `json:"runtime"`
}

// DependencyStatus is the probe result for one external dependency.
type DependencyStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// RuntimeMetrics is a small diagnostic snapshot of the running process.
type RuntimeMetrics struct {
	GoVersion      string `json:"go_version"`
	Goroutines     int    `json:"goroutines"`
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	DBOpenConns    int    `json:"db_open_conns"`
	DBInUse        int    `json:"db_in_use"`
}

// NewHealthService builds a health service, filling in defaults for blank
// name or version.
func NewHealthService(serviceName, version string) *HealthService {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "Study Plan API"
	}
	if strings.TrimSpace(version) == "" {
		version = "1.0.0"
	}
	return &HealthService{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
	}
}

// GetHealthReport probes every dependency and assembles the report.
func (s *HealthService) GetHealthReport() HealthReport {
	ctx, cancel := context.WithTimeout(context.Background(), healthProbeTimeout)
	defer cancel()

	report := HealthReport{
		Status:        healthOK,
		Service:       s.serviceName,
		Version:       s.version,
		Environment:   currentEnvironment(),
		Time:          time.Now().UTC(),
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	}

	metrics := RuntimeMetrics{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.HeapAllocBytes = mem.HeapAlloc

	dbDep := s.checkDatabase(ctx, &metrics)
	if dbDep.Status == depDown {
		report.Status = healthCritical
	}

	redisDep, redisOverall := s.checkRedis(ctx)
	if report.Status == healthOK && redisOverall != healthOK {
		report.Status = redisOverall
	}

	report.Dependencies = []DependencyStatus{dbDep, redisDep}
	report.Runtime = metrics
	return report
}

// HTTPStatusForOverall maps an aggregate status to an HTTP status code.
func (s *HealthService) HTTPStatusForOverall(status string) int {
	if status == healthCritical {
		return 503
	}
	return 200
}

func (s *HealthService) checkDatabase(ctx context.Context, metrics *RuntimeMetrics) DependencyStatus {
	dep := DependencyStatus{Name: "mysql"}

	if database.DB == nil {
		dep.Status = depDown
		dep.Error = "database connection not initialised"
		return dep
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		dep.Status = depDown
		dep.Error = fmt.Sprintf("sql DB handle error: %v", err)
		return dep
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	start := time.Now()
	err = sqlDB.PingContext(pingCtx)
	cancel()
	dep.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		dep.Status = depDown
		dep.Error = err.Error()
		return dep
	}

	dep.Status = depUp
	stats := sqlDB.Stats()
	metrics.DBOpenConns = stats.OpenConnections
	metrics.DBInUse = stats.InUse
	return dep
}

func (s *HealthService) checkRedis(ctx context.Context) (DependencyStatus, string) {
	dep := DependencyStatus{Name: "redis"}
	useRedis := config.AppConfig != nil && config.AppConfig.UseRedisAuditQueue

	client := database.GetRedisClient()
	if client == nil {
		if !useRedis {
			dep.Status = depDisabled
			return dep, healthOK
		}
		dep.Status = depDown
		dep.Error = "redis client not initialised"
		return dep, healthDegraded
	}

	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	start := time.Now()
	err := client.Ping(pingCtx).Err()
	cancel()
	dep.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		dep.Status = depDown
		dep.Error = err.Error()
		if useRedis {
			return dep, healthDegraded
		}
		return dep, healthOK
	}

	dep.Status = depUp
	if useRedis {
		dep.Detail = "audit-queue"
	} else {
		dep.Detail = "optional"
	}
	return dep, healthOK
}

func currentEnvironment() string {
	if config.AppConfig == nil {
		return "unknown"
	}
	env := strings.TrimSpace(config.AppConfig.AppEnv)
	if env == "" {
		return "unknown"
	}
	return env
}
