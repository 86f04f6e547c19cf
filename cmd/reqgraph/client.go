package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/reqgraph/config"
	"github.com/c360studio/reqgraph/engine"
	"github.com/c360studio/reqgraph/export"
	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/health"
	"github.com/c360studio/reqgraph/scoring"
	"github.com/c360studio/reqgraph/source/anchor"
	"github.com/c360studio/reqgraph/source/importer"
	"github.com/c360studio/reqgraph/storage"
	"github.com/c360studio/semstreams/natsclient"
)

// client bundles the engine wiring a CLI command needs against a
// running NATS, plus its teardown.
type client struct {
	cfg    *config.Config
	engine *engine.Engine
	graph  *graph.Graph
	nc     *natsclient.Client
}

// openClient loads the layered engine config, connects to NATS, and
// builds an engine over the configured buckets.
func openClient(ctx context.Context) (*client, error) {
	cfg, err := config.NewLoader(slog.Default()).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	nc, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(3),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}
	if err := nc.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, cfg.NATS.URL)
	}
	connCtx, cancel := context.WithTimeout(ctx, cfg.NATS.Timeout)
	defer cancel()
	if err := nc.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, cfg.NATS.URL)
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	versions, err := storage.NewNATSKV(ctx, js, cfg.Storage.VersionsBucket)
	if err != nil {
		return nil, err
	}
	locations, err := storage.NewNATSKV(ctx, js, cfg.Storage.LocationsBucket)
	if err != nil {
		return nil, err
	}
	edges, err := storage.NewNATSKV(ctx, js, cfg.Storage.EdgesBucket)
	if err != nil {
		return nil, err
	}

	store := storage.NewEntityStore(versions, storage.NewLocationIndex(locations))
	g := graph.New(store, graph.NewEdgeLog(edges))
	if err := g.Load(ctx); err != nil {
		return nil, fmt.Errorf("load edge log: %w", err)
	}

	eng := engine.New(store, g,
		engine.WithPublisher(nc),
		engine.WithPolicySource(func() scoring.Policy { return cfg.Scoring.Policy }),
		engine.WithLimits(cfg.Health.Limits),
		engine.WithIsolationExemptions(cfg.Health.AllowIsolated),
	)

	return &client{cfg: cfg, engine: eng, graph: g, nc: nc}, nil
}

func (c *client) close(ctx context.Context) {
	c.nc.Close(ctx)
}

func importCmd() *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "import [patterns...]",
		Short: "Seed requirements from markdown or HTML documents",
		Long: `Import scans documents matching the given glob patterns (or the
configured importer.include patterns) and prints the requirement
drafts it finds. With --commit the drafts are written through the
engine and their declared dependencies linked as one batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cl, err := openClient(ctx)
			if err != nil {
				return err
			}
			defer cl.close(ctx)

			patterns := args
			if len(patterns) == 0 {
				patterns = cl.cfg.Importer.Include
			}

			imp := importer.New(cl.engine, slog.Default())
			drafts, err := imp.Scan(patterns)
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				fmt.Println("No importable documents found")
				return nil
			}

			if !commit {
				fmt.Printf("Dry run: %d draft(s); pass --commit to write them\n", len(drafts))
				return printJSON(drafts)
			}

			res, err := imp.Commit(ctx, drafts)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d requirement(s), %d dependenc(ies)\n", len(res.Created), len(res.Edges))
			for _, w := range res.Warnings {
				if w != nil {
					fmt.Printf("warning: %s\n", w.Explanation)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "Write drafts instead of printing them")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		formatName  string
		profileName string
		outputPath  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the requirement graph as RDF or DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			profile := export.Profile(profileName)
			if _, ok := export.Profiles[profile]; !ok {
				return fmt.Errorf("unknown profile %q (want minimal, bfo, or cco)", profileName)
			}

			cl, err := openClient(ctx)
			if err != nil {
				return err
			}
			defer cl.close(ctx)

			reqs, err := cl.engine.ListRequirements(ctx)
			if err != nil {
				return err
			}
			snapshot, err := cl.graph.Snapshot(ctx)
			if err != nil {
				return err
			}

			exporter := export.NewRDFExporter(profile)
			for _, r := range reqs {
				exporter.AddRequirement(r)
			}
			for _, e := range snapshot.Edges {
				exporter.AddEdge(e)
			}

			out, err := exporter.Export(format)
			if err != nil {
				return err
			}
			if outputPath == "" {
				fmt.Print(out)
				return nil
			}
			if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outputPath, err)
			}
			fmt.Printf("Exported %d requirement(s) to %s\n", len(reqs), outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "turtle", "Output format (turtle, ntriples, jsonld, dot)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "minimal", "Ontology profile (minimal, bfo, cco)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <logical-id>",
		Short: "Score one requirement's friction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cl, err := openClient(ctx)
			if err != nil {
				return err
			}
			defer cl.close(ctx)

			report, err := cl.engine.ScoreRequirement(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func healthCmd() *cobra.Command {
	var (
		checkAnchors bool
		sourceRoot   string
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report whole-graph health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cl, err := openClient(ctx)
			if err != nil {
				return err
			}
			defer cl.close(ctx)

			dashboard, err := cl.engine.CheckGraphHealth(ctx)
			if err != nil {
				return err
			}
			if err := printJSON(dashboard); err != nil {
				return err
			}

			monitor := health.NewMonitor(cl.graph, cl.cfg.Health.Limits,
				health.WithIsolationExemptions(cl.cfg.Health.AllowIsolated))
			alerts, err := monitor.Alerts(ctx, cl.cfg.Health.Thresholds)
			if err != nil {
				return err
			}
			for _, a := range alerts {
				fmt.Printf("alert: %s\n", a.Message)
			}

			if !checkAnchors {
				return nil
			}
			reqs, err := cl.engine.ListRequirements(ctx)
			if err != nil {
				return err
			}
			drifts, err := anchor.NewVerifier(sourceRoot).Check(ctx, reqs)
			if err != nil {
				return err
			}
			if len(drifts) == 0 {
				fmt.Println("All code anchors resolve")
				return nil
			}
			for _, d := range drifts {
				fmt.Printf("drifted anchor on %s: %s\n", d.LogicalID, d.Reason)
			}
			return fmt.Errorf("%d anchor(s) drifted", len(drifts))
		},
	}
	cmd.Flags().BoolVar(&checkAnchors, "anchors", false, "Verify code anchors against the source tree")
	cmd.Flags().StringVar(&sourceRoot, "source-root", ".", "Source tree root for anchor verification")
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
