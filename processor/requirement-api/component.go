// Package requirementapi exposes the requirement graph engine as a
// semstreams component. Command envelopes arrive on a JetStream
// subject or over HTTP; each is dispatched through the engine and the
// response published back.
package requirementapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/reqgraph/config"
	"github.com/c360studio/reqgraph/engine"
	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/scoring"
	"github.com/c360studio/reqgraph/storage"
)

// Component implements the requirement-api processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	// engine is built in Start once the KV buckets are reachable.
	engine *engine.Engine

	// policyWatcher hot-reloads the scoring policy when PolicyFile is
	// configured. Nil otherwise.
	policyWatcher *config.Watcher

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

// NewComponent constructs a requirement-api Component from raw JSON
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
		name:       "requirement-api",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
	}, nil
}

// Initialize prepares the component for startup.
func (c *Component) Initialize() error {
	return nil
}

// Start opens the KV buckets, rebuilds the dependency graph's live
// view, and begins consuming command envelopes.
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

	eng, err := c.buildEngine(ctx)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.engine = eng
	c.cancel = cancel
	c.startTime = time.Now()
	c.mu.Unlock()

	go c.consumeCommands(consumeCtx)

	c.state.Store(stateRunning)
	c.logger.Info("requirement-api started",
		"stream", c.config.StreamName,
		"request_subject", c.config.RequestSubject)
	return nil
}

// buildEngine wires the storage layer and engine over the configured
// KV buckets.
func (c *Component) buildEngine(ctx context.Context) (*engine.Engine, error) {
	js, err := c.natsClient.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	versions, err := storage.NewNATSKV(ctx, js, c.config.VersionsBucket)
	if err != nil {
		return nil, err
	}
	locations, err := storage.NewNATSKV(ctx, js, c.config.LocationsBucket)
	if err != nil {
		return nil, err
	}
	edges, err := storage.NewNATSKV(ctx, js, c.config.EdgesBucket)
	if err != nil {
		return nil, err
	}

	store := storage.NewEntityStore(versions, storage.NewLocationIndex(locations))
	g := graph.New(store, graph.NewEdgeLog(edges))
	if err := g.Load(ctx); err != nil {
		return nil, fmt.Errorf("load edge log: %w", err)
	}

	opts := []engine.Option{
		engine.WithPublisher(c.natsClient),
		engine.WithLogger(c.logger),
	}
	if c.config.PolicyFile != "" {
		source, err := c.startPolicyWatcher(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithPolicySource(source))
	}

	return engine.New(store, g, opts...), nil
}

// startPolicyWatcher loads the initial scoring policy from the
// configured file and starts watching it for changes.
func (c *Component) startPolicyWatcher(ctx context.Context) (func() scoring.Policy, error) {
	initial := scoring.DefaultPolicy()
	if cfg, err := config.LoadFromFile(c.config.PolicyFile); err == nil {
		initial = cfg.Scoring.Policy
	} else {
		c.logger.Warn("policy file unreadable, starting with defaults",
			"path", c.config.PolicyFile, "error", err)
	}

	w, err := config.NewWatcher(c.config.PolicyFile, initial, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create policy watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("start policy watcher: %w", err)
	}
	c.policyWatcher = w
	return w.Policy, nil
}

// consumeCommands reads command envelopes and publishes responses.
func (c *Component) consumeCommands(ctx context.Context) {
	handler := func(data []byte) {
		var req engine.Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.logger.Warn("invalid command envelope", "error", err)
			commandsProcessed.WithLabelValues("unknown", "invalid").Inc()
			return
		}

		resp := c.currentEngine().Dispatch(ctx, req)
		commandsProcessed.WithLabelValues(req.Command, resp.Status).Inc()

		resultData, err := json.Marshal(resp)
		if err != nil {
			c.logger.Error("marshal command response", "command", req.Command, "error", err)
			return
		}
		if err := c.natsClient.PublishToStream(ctx, c.config.ResultSubject, resultData); err != nil {
			c.logger.Warn("publish command result", "command", req.Command, "error", err)
		}
	}

	if err := c.natsClient.ConsumeStream(ctx, c.config.StreamName, c.config.RequestSubject, handler); err != nil {
		if ctx.Err() == nil {
			c.logger.Error("consume command requests", "error", err)
		}
	}
}

func (c *Component) currentEngine() *engine.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine
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
	watcher := c.policyWatcher
	c.policyWatcher = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			c.logger.Warn("stop policy watcher", "error", err)
		}
	}

	c.state.Store(stateStopped)
	c.logger.Info("requirement-api stopped")
	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "requirement-api",
		Type:        "processor",
		Description: "Command surface for the versioned requirement dependency graph",
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
	return requirementAPISchema
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
