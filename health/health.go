// Package health runs structural checks over the dependency graph and
// aggregates them into a dashboard. All checks operate on an immutable
// snapshot, so a running scan never blocks writers.
//
// Unlike edge validation, which rejects bad writes outright, these
// checks are advisory. They surface drift that accumulates across many
// individually valid operations: requirements nobody wired up, chains
// that grew too deep, and cycles introduced by out-of-band imports.
package health

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/c360studio/reqgraph/graph"
)

// Limits bound how deep a dependency chain may grow before the monitor
// flags it. AdvisoryDepth marks chains worth reviewing; HardDepth marks
// chains that make impact analysis impractical.
type Limits struct {
	AdvisoryDepth int `json:"advisory_depth" yaml:"advisory_depth"`
	HardDepth     int `json:"hard_depth"     yaml:"hard_depth"`
}

// DefaultLimits returns the chain-depth limits used when no
// configuration overrides them.
func DefaultLimits() Limits {
	return Limits{AdvisoryDepth: 5, HardDepth: 10}
}

// Thresholds control when Alerts fires. A zero threshold disables the
// corresponding alert.
type Thresholds struct {
	HealthScore   int `json:"health_score"   yaml:"health_score"`
	IsolatedNodes int `json:"isolated_nodes" yaml:"isolated_nodes"`
	MaxDepth      int `json:"max_depth"      yaml:"max_depth"`
}

// DefaultThresholds returns the alert thresholds used when no
// configuration overrides them.
func DefaultThresholds() Thresholds {
	return Thresholds{HealthScore: 80, IsolatedNodes: 5, MaxDepth: 10}
}

// Monitor runs health checks against a live graph.
type Monitor struct {
	graph  *graph.Graph
	limits Limits
	exempt map[string]bool
	now    func() time.Time
}

// Option adjusts monitor construction.
type Option func(*Monitor)

// WithClock overrides the dashboard timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithIsolationExemptions names requirements allowed to have no edges.
// Top-level roots and deliberate leaves land here so they stop showing
// up in every isolation report.
func WithIsolationExemptions(ids []string) Option {
	return func(m *Monitor) {
		for _, id := range ids {
			m.exempt[id] = true
		}
	}
}

// NewMonitor wires a monitor to a graph. Pass DefaultLimits unless
// configuration says otherwise.
func NewMonitor(g *graph.Graph, limits Limits, opts ...Option) *Monitor {
	m := &Monitor{graph: g, limits: limits, exempt: map[string]bool{}, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DepthViolation describes one dependency chain that exceeds the
// advisory limit. Path runs from the chain head to its deepest
// transitive dependency.
type DepthViolation struct {
	LogicalID string   `json:"logical_id"`
	Depth     int      `json:"depth"`
	Path      []string `json:"path"`
	Hard      bool     `json:"hard"`
}

// DepthReport summarizes chain depth across the graph.
type DepthReport struct {
	MaxDepth      int              `json:"max_depth"`
	AdvisoryLimit int              `json:"advisory_limit"`
	HardLimit     int              `json:"hard_limit"`
	Violations    []DepthViolation `json:"violations"`
}

// DepthCheck measures the longest dependency chain below every
// requirement and reports chains exceeding the advisory limit. Each
// offending chain appears once, keyed by its head.
func (m *Monitor) DepthCheck(ctx context.Context) (*DepthReport, error) {
	s, err := m.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return depthReport(s, m.limits), nil
}

// IsolationReport lists requirements with no dependencies in either
// direction.
type IsolationReport struct {
	IsolatedNodes []string `json:"isolated_nodes"`
	IsolatedCount int      `json:"isolated_count"`
}

// IsolationCheck reports live requirements that neither depend on nor
// are depended on by anything. Ids in the exemption set are skipped.
func (m *Monitor) IsolationCheck(ctx context.Context) (*IsolationReport, error) {
	s, err := m.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return isolationReport(s, m.exempt), nil
}

// ConnectivityMetrics are raw structural measurements of the graph.
// AverageDegree is the mean forward branching factor (edges per node).
// ConnectivityRatio is the share of nodes inside the largest component.
type ConnectivityMetrics struct {
	TotalNodes        int     `json:"total_nodes"`
	TotalEdges        int     `json:"total_edges"`
	AverageDegree     float64 `json:"average_degree"`
	MaxDegree         int     `json:"max_degree"`
	ConnectivityRatio float64 `json:"connectivity_ratio"`
}

// ConnectivityReport describes how the graph partitions into weakly
// connected components, ignoring edge direction. Components are sorted
// largest first.
type ConnectivityReport struct {
	ConnectedComponents int                 `json:"connected_components"`
	Components          [][]string          `json:"components"`
	LargestComponent    int                 `json:"largest_component"`
	Metrics             ConnectivityMetrics `json:"metrics"`
}

// Connectivity computes the component structure of the graph.
func (m *Monitor) Connectivity(ctx context.Context) (*ConnectivityReport, error) {
	s, err := m.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return connectivityReport(s), nil
}

// CycleReport lists strongly connected components with more than one
// node, plus self loops. A live graph never produces cycles through
// AddEdge; a non-empty report means edges arrived through another path.
type CycleReport struct {
	Cycles [][]string `json:"cycles"`
}

// CycleScan sweeps the whole graph for cycles.
func (m *Monitor) CycleScan(ctx context.Context) (*CycleReport, error) {
	s, err := m.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &CycleReport{Cycles: nonNilCycles(s.StronglyConnected())}, nil
}

// Breakdown scores each structural concern from 0 to 100. A concern
// with no findings scores 100.
type Breakdown struct {
	ConnectivityScore int `json:"connectivity_score"`
	DepthScore        int `json:"depth_score"`
	CircularScore     int `json:"circular_score"`
	IsolationScore    int `json:"isolation_score"`
}

// Issues collects the concrete findings behind a dashboard score.
type Issues struct {
	IsolatedNodes        []string         `json:"isolated_nodes"`
	CircularDependencies [][]string       `json:"circular_dependencies"`
	DepthViolations      []DepthViolation `json:"depth_violations"`
}

// DashboardMetrics summarize graph size for display.
type DashboardMetrics struct {
	TotalRequirements   int     `json:"total_requirements"`
	TotalDependencies   int     `json:"total_dependencies"`
	AverageConnectivity float64 `json:"average_connectivity"`
}

// Dashboard is the aggregate health view: a single 0-100 score, the
// per-concern breakdown behind it, and the findings that lowered it.
type Dashboard struct {
	OverallHealthScore int              `json:"overall_health_score"`
	Breakdown          Breakdown        `json:"score_breakdown"`
	Issues             Issues           `json:"issues"`
	Recommendations    []string         `json:"recommendations"`
	Metrics            DashboardMetrics `json:"metrics"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// Dashboard runs every check against one snapshot and aggregates the
// results.
func (m *Monitor) Dashboard(ctx context.Context) (*Dashboard, error) {
	s, err := m.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return m.dashboardFrom(analyze(s, m.limits, m.exempt)), nil
}

// Alert reports a threshold crossing from Alerts.
type Alert struct {
	Type         string `json:"type"`
	CurrentValue int    `json:"current_value"`
	Threshold    int    `json:"threshold"`
	Message      string `json:"message"`
}

// Alerts evaluates the graph against thresholds. The health score
// alert fires when the score drops below its threshold; the isolated
// nodes alert fires once the count reaches its threshold; the depth
// alert fires when the longest chain exceeds its threshold.
func (m *Monitor) Alerts(ctx context.Context, t Thresholds) ([]Alert, error) {
	s, err := m.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	a := analyze(s, m.limits, m.exempt)
	return alertsFrom(m.dashboardFrom(a), a.depth.MaxDepth, t), nil
}

// analysis carries every check result computed from one snapshot, so
// the dashboard and alerts never scan the graph twice.
type analysis struct {
	conn   *ConnectivityReport
	depth  *DepthReport
	isol   *IsolationReport
	cycles [][]string
}

func analyze(s *graph.Snapshot, limits Limits, exempt map[string]bool) *analysis {
	return &analysis{
		conn:   connectivityReport(s),
		depth:  depthReport(s, limits),
		isol:   isolationReport(s, exempt),
		cycles: nonNilCycles(s.StronglyConnected()),
	}
}

func (m *Monitor) dashboardFrom(a *analysis) *Dashboard {
	b := scoreBreakdown(a)
	sum := b.ConnectivityScore + b.DepthScore + b.CircularScore + b.IsolationScore
	d := &Dashboard{
		OverallHealthScore: int(math.Round(float64(sum) / 4)),
		Breakdown:          b,
		Issues: Issues{
			IsolatedNodes:        a.isol.IsolatedNodes,
			CircularDependencies: a.cycles,
			DepthViolations:      a.depth.Violations,
		},
		Metrics: DashboardMetrics{
			TotalRequirements:   a.conn.Metrics.TotalNodes,
			TotalDependencies:   a.conn.Metrics.TotalEdges,
			AverageConnectivity: a.conn.Metrics.AverageDegree,
		},
		GeneratedAt: m.now().UTC(),
	}
	d.Recommendations = recommend(d.Issues, m.limits)
	return d
}

func scoreBreakdown(a *analysis) Breakdown {
	b := Breakdown{
		ConnectivityScore: 100,
		DepthScore:        100,
		CircularScore:     100,
		IsolationScore:    100,
	}
	total := a.conn.Metrics.TotalNodes
	if total > 0 {
		b.ConnectivityScore = int(math.Round(100 * a.conn.Metrics.ConnectivityRatio))
	}
	// Any cycle breaks the acyclicity guarantee the rest of the
	// system assumes, so the concern zeroes out rather than decays.
	if len(a.cycles) > 0 {
		b.CircularScore = 0
	}
	for _, v := range a.depth.Violations {
		if v.Hard {
			b.DepthScore -= 25
		} else {
			b.DepthScore -= 10
		}
	}
	if b.DepthScore < 0 {
		b.DepthScore = 0
	}
	if total > 0 && a.isol.IsolatedCount > 0 {
		penalty := int(math.Round(100 * float64(a.isol.IsolatedCount) / float64(total)))
		b.IsolationScore = 100 - penalty
		if b.IsolationScore < 0 {
			b.IsolationScore = 0
		}
	}
	return b
}

func recommend(issues Issues, limits Limits) []string {
	recs := []string{}
	if n := len(issues.IsolatedNodes); n > 0 {
		recs = append(recs, fmt.Sprintf("connect or archive %d isolated requirements so impact analysis can reach them", n))
	}
	for _, cycle := range issues.CircularDependencies {
		recs = append(recs, fmt.Sprintf("break the dependency cycle %s", strings.Join(cycle, " -> ")))
	}
	if n := len(issues.DepthViolations); n > 0 {
		recs = append(recs, fmt.Sprintf("flatten %d dependency chains deeper than %d levels", n, limits.AdvisoryDepth))
	}
	return recs
}

func alertsFrom(d *Dashboard, maxDepth int, t Thresholds) []Alert {
	alerts := []Alert{}
	if t.HealthScore > 0 && d.OverallHealthScore < t.HealthScore {
		alerts = append(alerts, Alert{
			Type:         "health_score_threshold",
			CurrentValue: d.OverallHealthScore,
			Threshold:    t.HealthScore,
			Message:      fmt.Sprintf("graph health score %d dropped below %d", d.OverallHealthScore, t.HealthScore),
		})
	}
	if n := len(d.Issues.IsolatedNodes); t.IsolatedNodes > 0 && n >= t.IsolatedNodes {
		alerts = append(alerts, Alert{
			Type:         "isolated_nodes_threshold",
			CurrentValue: n,
			Threshold:    t.IsolatedNodes,
			Message:      fmt.Sprintf("%d isolated requirements reached the limit of %d", n, t.IsolatedNodes),
		})
	}
	if t.MaxDepth > 0 && maxDepth > t.MaxDepth {
		alerts = append(alerts, Alert{
			Type:         "max_depth_threshold",
			CurrentValue: maxDepth,
			Threshold:    t.MaxDepth,
			Message:      fmt.Sprintf("longest dependency chain of %d exceeds %d", maxDepth, t.MaxDepth),
		})
	}
	return alerts
}

func nonNilCycles(cycles [][]string) [][]string {
	if cycles == nil {
		return [][]string{}
	}
	return cycles
}
