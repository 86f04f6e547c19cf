package frictionmonitor

import (
	"fmt"
	"reflect"
	"time"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/reqgraph/storage"
)

// frictionMonitorSchema holds the configuration schema generated from Config.
var frictionMonitorSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Default subjects and cadence for the monitor.
const (
	DefaultStreamName   = "REQGRAPH"
	DefaultEventSubject = "reqgraph.event.>"
	DefaultAlertSubject = "reqgraph.health.alert"
	DefaultScanInterval = 5 * time.Minute
)

// Config holds configuration for the friction-monitor component.
type Config struct {
	Ports *component.PortConfig `json:"ports,omitempty" schema:"type:ports,description:Port configuration,category:basic"`

	// StreamName is the JetStream stream carrying requirement events.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream name,category:advanced,default:REQGRAPH"`

	// EventSubject is the change-event subscription. Any event marks the
	// graph dirty; the next tick rescans.
	EventSubject string `json:"event_subject" schema:"type:string,description:Requirement change event subject,category:advanced,default:reqgraph.event.>"`

	// AlertSubject receives health alerts when thresholds are crossed.
	AlertSubject string `json:"alert_subject" schema:"type:string,description:Health alert subject,category:advanced,default:reqgraph.health.alert"`

	// ScanInterval is the fallback rescan cadence when no events arrive.
	ScanInterval time.Duration `json:"scan_interval" schema:"type:duration,description:Fallback rescan interval,category:advanced,default:5m"`

	// VersionsBucket holds the append-only requirement version log.
	VersionsBucket string `json:"versions_bucket" schema:"type:string,description:KV bucket for version records,category:advanced,default:REQGRAPH_VERSIONS"`

	// LocationsBucket holds the location pointer cells.
	LocationsBucket string `json:"locations_bucket" schema:"type:string,description:KV bucket for location pointers,category:advanced,default:REQGRAPH_LOCATIONS"`

	// EdgesBucket holds the append-only dependency edge log.
	EdgesBucket string `json:"edges_bucket" schema:"type:string,description:KV bucket for edge events,category:advanced,default:REQGRAPH_EDGES"`

	// AllowIsolated lists logical ids the isolation check skips, so
	// deliberate roots and leaves do not fire isolation alerts.
	AllowIsolated []string `json:"allow_isolated,omitempty" schema:"type:array,description:Logical ids exempt from the isolated-node check,category:advanced"`
}

// DefaultConfig returns default configuration for the friction-monitor.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "event.requirement",
					Type:        "jetstream",
					Subject:     DefaultEventSubject,
					StreamName:  DefaultStreamName,
					Required:    false,
					Description: "Requirement change events marking the graph dirty",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "health.alert",
					Type:        "jetstream",
					Subject:     DefaultAlertSubject,
					StreamName:  DefaultStreamName,
					Required:    false,
					Description: "Graph health alerts",
				},
			},
		},
		StreamName:      DefaultStreamName,
		EventSubject:    DefaultEventSubject,
		AlertSubject:    DefaultAlertSubject,
		ScanInterval:    DefaultScanInterval,
		VersionsBucket:  storage.BucketVersions,
		LocationsBucket: storage.BucketLocations,
		EdgesBucket:     storage.BucketEdges,
	}
}

// Validate checks the configuration and fills defaults for fields left
// empty.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		c.StreamName = DefaultStreamName
	}
	if c.EventSubject == "" {
		c.EventSubject = DefaultEventSubject
	}
	if c.AlertSubject == "" {
		c.AlertSubject = DefaultAlertSubject
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = DefaultScanInterval
	}
	if c.ScanInterval < time.Second {
		return fmt.Errorf("scan_interval must be at least one second")
	}
	if c.VersionsBucket == "" {
		c.VersionsBucket = storage.BucketVersions
	}
	if c.LocationsBucket == "" {
		c.LocationsBucket = storage.BucketLocations
	}
	if c.EdgesBucket == "" {
		c.EdgesBucket = storage.BucketEdges
	}
	return nil
}
