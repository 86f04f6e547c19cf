package requirementapi

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/reqgraph/storage"
)

// requirementAPISchema holds the configuration schema generated from Config.
var requirementAPISchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Default NATS subjects for the command surface.
const (
	DefaultStreamName     = "REQGRAPH"
	DefaultRequestSubject = "reqgraph.command.request"
	DefaultResultSubject  = "reqgraph.command.result"
)

// Config holds configuration for the requirement-api component.
type Config struct {
	Ports *component.PortConfig `json:"ports,omitempty" schema:"type:ports,description:Port configuration,category:basic"`

	// StreamName is the JetStream stream carrying command traffic.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream name,category:advanced,default:REQGRAPH"`

	// RequestSubject carries incoming command envelopes.
	RequestSubject string `json:"request_subject" schema:"type:string,description:Command request subject,category:advanced,default:reqgraph.command.request"`

	// ResultSubject carries command responses.
	ResultSubject string `json:"result_subject" schema:"type:string,description:Command result subject,category:advanced,default:reqgraph.command.result"`

	// VersionsBucket holds the append-only requirement version log.
	VersionsBucket string `json:"versions_bucket" schema:"type:string,description:KV bucket for version records,category:advanced,default:REQGRAPH_VERSIONS"`

	// LocationsBucket holds the location pointer cells.
	LocationsBucket string `json:"locations_bucket" schema:"type:string,description:KV bucket for location pointers,category:advanced,default:REQGRAPH_LOCATIONS"`

	// EdgesBucket holds the append-only dependency edge log.
	EdgesBucket string `json:"edges_bucket" schema:"type:string,description:KV bucket for edge events,category:advanced,default:REQGRAPH_EDGES"`

	// PolicyFile, when set, names a config file whose scoring policy is
	// watched and hot-reloaded. Scores computed after a reload use the
	// new policy without a restart.
	PolicyFile string `json:"policy_file,omitempty" schema:"type:string,description:Config file watched for scoring policy changes,category:advanced"`
}

// DefaultConfig returns default configuration for the requirement-api.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "command.request",
					Type:        "jetstream",
					Subject:     DefaultRequestSubject,
					StreamName:  DefaultStreamName,
					Required:    true,
					Description: "Incoming command envelopes",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "command.result",
					Type:        "jetstream",
					Subject:     DefaultResultSubject,
					StreamName:  DefaultStreamName,
					Required:    true,
					Description: "Command responses",
				},
			},
		},
		StreamName:      DefaultStreamName,
		RequestSubject:  DefaultRequestSubject,
		ResultSubject:   DefaultResultSubject,
		VersionsBucket:  storage.BucketVersions,
		LocationsBucket: storage.BucketLocations,
		EdgesBucket:     storage.BucketEdges,
	}
}

// Validate checks the configuration for errors and fills defaults for
// fields left empty.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		c.StreamName = DefaultStreamName
	}
	if c.RequestSubject == "" {
		c.RequestSubject = DefaultRequestSubject
	}
	if c.ResultSubject == "" {
		c.ResultSubject = DefaultResultSubject
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
	if c.RequestSubject == c.ResultSubject {
		return fmt.Errorf("request_subject and result_subject must differ")
	}
	buckets := map[string]bool{c.VersionsBucket: true, c.LocationsBucket: true, c.EdgesBucket: true}
	if len(buckets) != 3 {
		return fmt.Errorf("storage buckets must be distinct")
	}
	return nil
}
