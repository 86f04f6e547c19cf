// Package frictionmonitor watches the requirement graph in the
// background. Change events mark the graph dirty; each scan rescores
// every live requirement, refreshes the health dashboard, updates the
// prometheus gauges, and publishes alerts when thresholds are crossed.
// Scans only read snapshots, so writers are never blocked.
package frictionmonitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/reqgraph/engine"
	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/health"
	"github.com/c360studio/reqgraph/storage"
)

// Component implements the friction-monitor processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	engine     *engine.Engine
	monitor    *health.Monitor
	thresholds health.Thresholds

	// dirty is set by change events and cleared by the next scan.
	dirty atomic.Bool

	// Lifecycle state machine
	// States: 0=stopped, 1=starting, 2=running, 3=stopping
	state     atomic.Int32
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc
}

const (
	stateStopped  = 0
	stateStarting = 1
	stateRunning  = 2
	stateStopping = 3
)

// NewComponent constructs a friction-monitor Component from raw JSON
// config and deps.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	config := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Component{
		name:       "friction-monitor",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
		thresholds: health.DefaultThresholds(),
	}, nil
}

// Initialize prepares the component for startup.
func (c *Component) Initialize() error {
	return nil
}

// Start opens the KV buckets and begins the scan loop.
func (c *Component) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(stateStopped, stateStarting) {
		current := c.state.Load()
		if current == stateRunning || current == stateStarting {
			return fmt.Errorf("component already running or starting")
		}
		return fmt.Errorf("component in invalid state: %d", current)
	}

	defer func() {
		if c.state.Load() == stateStarting {
			c.state.Store(stateStopped)
		}
	}()

	if c.natsClient == nil {
		return fmt.Errorf("NATS client required")
	}

	js, err := c.natsClient.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}
	versions, err := storage.NewNATSKV(ctx, js, c.config.VersionsBucket)
	if err != nil {
		return err
	}
	locations, err := storage.NewNATSKV(ctx, js, c.config.LocationsBucket)
	if err != nil {
		return err
	}
	edges, err := storage.NewNATSKV(ctx, js, c.config.EdgesBucket)
	if err != nil {
		return err
	}

	store := storage.NewEntityStore(versions, storage.NewLocationIndex(locations))
	g := graph.New(store, graph.NewEdgeLog(edges))
	if err := g.Load(ctx); err != nil {
		return fmt.Errorf("load edge log: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.engine = engine.New(store, g,
		engine.WithLogger(c.logger),
		engine.WithIsolationExemptions(c.config.AllowIsolated))
	c.monitor = health.NewMonitor(g, health.DefaultLimits(),
		health.WithIsolationExemptions(c.config.AllowIsolated))
	c.cancel = cancel
	c.startTime = time.Now()
	c.mu.Unlock()

	c.dirty.Store(true) // scan once at startup
	go c.consumeEvents(loopCtx)
	go c.scanLoop(loopCtx)

	c.state.Store(stateRunning)
	c.logger.Info("friction-monitor started",
		"event_subject", c.config.EventSubject,
		"scan_interval", c.config.ScanInterval)
	return nil
}

// consumeEvents marks the graph dirty on every change event. The edge
// log is reloaded on the next scan, not here, so event bursts cost one
// reload.
func (c *Component) consumeEvents(ctx context.Context) {
	handler := func(_ jetstream.Msg) {
		c.dirty.Store(true)
	}
	if err := c.natsClient.ConsumeStream(ctx, c.config.StreamName, c.config.EventSubject, handler); err != nil {
		if ctx.Err() == nil {
			c.logger.Error("consume requirement events", "error", err)
		}
	}
}

// scanLoop rescans when dirty, and at every interval regardless, so a
// missed event cannot leave the gauges stale forever.
func (c *Component) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.ScanInterval)
	defer ticker.Stop()

	// Immediate first scan rather than waiting a full interval.
	c.runScan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runScan(ctx)
		}
	}
}

func (c *Component) runScan(ctx context.Context) {
	forced := !c.dirty.Swap(false)
	summary, err := c.scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		scansTotal.WithLabelValues("error").Inc()
		c.logger.Error("graph scan failed", "error", err)
		return
	}
	scansTotal.WithLabelValues("ok").Inc()

	c.record(summary)
	c.publishAlerts(ctx, summary)

	c.logger.Debug("graph scan complete",
		"forced", forced,
		"requirements", summary.Requirements,
		"health_score", summary.Dashboard.OverallHealthScore,
		"aggregate_friction", summary.AggregateFriction)
}

// Summary is the result of one whole-graph scan.
type Summary struct {
	Requirements      int               `json:"requirements"`
	AggregateFriction float64           `json:"aggregate_friction"`
	ByClassification  map[string]int    `json:"by_classification"`
	Dashboard         *health.Dashboard `json:"dashboard"`
	Alerts            []health.Alert    `json:"alerts"`
}

// scan reloads the edge log, scores every live requirement, and runs
// the health checks.
func (c *Component) scan(ctx context.Context) (*Summary, error) {
	c.mu.RLock()
	eng, mon := c.engine, c.monitor
	c.mu.RUnlock()

	if err := eng.ReloadGraph(ctx); err != nil {
		return nil, fmt.Errorf("reload graph: %w", err)
	}

	reqs, err := eng.ListRequirements(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}

	summary := &Summary{
		Requirements:     len(reqs),
		ByClassification: make(map[string]int),
	}

	var total float64
	for _, r := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report, err := eng.ScoreRequirement(ctx, r.LogicalID)
		if err != nil {
			c.logger.Warn("score failed during scan", "logical_id", r.LogicalID, "error", err)
			continue
		}
		total += report.TotalScore
		summary.ByClassification[report.Classification]++
	}
	if len(reqs) > 0 {
		summary.AggregateFriction = total / float64(len(reqs))
	}

	summary.Dashboard, err = mon.Dashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("health dashboard: %w", err)
	}
	summary.Alerts, err = mon.Alerts(ctx, c.thresholds)
	if err != nil {
		return nil, fmt.Errorf("health alerts: %w", err)
	}
	return summary, nil
}

// record pushes one summary into the gauges.
func (c *Component) record(s *Summary) {
	healthScore.Set(float64(s.Dashboard.OverallHealthScore))
	aggregateFriction.Set(s.AggregateFriction)
	requirementsTotal.Set(float64(s.Requirements))
	dependenciesTotal.Set(float64(s.Dashboard.Metrics.TotalDependencies))

	requirementsByClass.Reset()
	for class, n := range s.ByClassification {
		requirementsByClass.WithLabelValues(class).Set(float64(n))
	}
}

// publishAlerts sends each threshold crossing to the alert subject.
func (c *Component) publishAlerts(ctx context.Context, s *Summary) {
	for _, alert := range s.Alerts {
		data, err := json.Marshal(alert)
		if err != nil {
			c.logger.Error("marshal health alert", "type", alert.Type, "error", err)
			continue
		}
		if err := c.natsClient.PublishToStream(ctx, c.config.AlertSubject, data); err != nil {
			c.logger.Warn("publish health alert", "type", alert.Type, "error", err)
		}
	}
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	if !c.state.CompareAndSwap(stateRunning, stateStopping) {
		current := c.state.Load()
		if current == stateStopped || current == stateStopping {
			return nil
		}
		return fmt.Errorf("component in unexpected state: %d", current)
	}

	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.state.Store(stateStopped)
	c.logger.Info("friction-monitor stopped")
	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "friction-monitor",
		Type:        "processor",
		Description: "Background friction scoring and graph health alerts",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil || len(c.config.Ports.Inputs) == 0 {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, def := range c.config.Ports.Inputs {
		ports[i] = component.Port{
			Name:        def.Name,
			Direction:   component.DirectionInput,
			Required:    def.Required,
			Description: def.Description,
			Config: component.NATSPort{
				Subject: def.Subject,
			},
		}
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil || len(c.config.Ports.Outputs) == 0 {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, def := range c.config.Ports.Outputs {
		ports[i] = component.Port{
			Name:        def.Name,
			Direction:   component.DirectionOutput,
			Required:    def.Required,
			Description: def.Description,
			Config: component.NATSPort{
				Subject: def.Subject,
			},
		}
	}
	return ports
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return frictionMonitorSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	state := c.state.Load()
	running := state == stateRunning

	c.mu.RLock()
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	switch state {
	case stateStarting:
		status = "starting"
	case stateRunning:
		status = "running"
	case stateStopping:
		status = "stopping"
	}

	return component.HealthStatus{
		Healthy:   running,
		LastCheck: time.Now(),
		Uptime:    time.Since(startTime),
		Status:    status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{}
}
