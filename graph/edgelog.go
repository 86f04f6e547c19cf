package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/c360studio/reqgraph/storage"
)

// DefaultDependencyType is applied when an edge is added without an
// explicit type.
const DefaultDependencyType = "depends_on"

// Edge is one append-only dependency event. The live edge set is the
// fold of all events per (from, to, type): the highest sequence wins,
// and a tombstone removes the edge from the live set while staying in
// the log.
type Edge struct {
	From      string    `json:"from_logical_id"`
	To        string    `json:"to_logical_id"`
	Type      string    `json:"dependency_type"`
	Reason    string    `json:"reason,omitempty"`
	Tombstone bool      `json:"tombstone,omitempty"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// EdgeLog is the append-only event log for dependency edges. Each
// event is committed with a single KV create under a zero-padded
// sequence key, so a commit is atomic and the log order is total.
type EdgeLog struct {
	kv storage.KV

	mu      sync.Mutex
	lastSeq uint64
	primed  bool
}

// NewEdgeLog builds an EdgeLog over the given bucket.
func NewEdgeLog(kv storage.KV) *EdgeLog {
	return &EdgeLog{kv: kv}
}

// maxAppendAttempts bounds the optimistic sequence claim when other
// processes append concurrently.
const maxAppendAttempts = 256

func seqKey(seq uint64) string {
	return fmt.Sprintf("%012d", seq)
}

// Append commits one edge event, claiming the next free sequence. The
// claim is optimistic: a sequence taken by a concurrent writer moves
// this append to the following slot.
func (l *EdgeLog) Append(ctx context.Context, e Edge) (Edge, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.primed {
		if err := l.primeLocked(ctx); err != nil {
			return Edge{}, err
		}
	}

	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Edge{}, err
		}
		e.Seq = l.lastSeq + 1
		data, err := json.Marshal(&e)
		if err != nil {
			return Edge{}, fmt.Errorf("marshal edge event: %w", err)
		}
		_, err = l.kv.Create(ctx, seqKey(e.Seq), data)
		if err == nil {
			l.lastSeq = e.Seq
			return e, nil
		}
		if errors.Is(err, storage.ErrKeyExists) {
			// Another process claimed the slot; move past it.
			l.lastSeq++
			continue
		}
		return Edge{}, fmt.Errorf("append edge event: %w", err)
	}
	return Edge{}, fmt.Errorf("append edge event: no free sequence after %d attempts", maxAppendAttempts)
}

// All returns every edge event ordered by sequence, oldest first.
func (l *EdgeLog) All(ctx context.Context) ([]Edge, error) {
	keys, err := l.kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list edge keys: %w", err)
	}
	sort.Strings(keys)

	events := make([]Edge, 0, len(keys))
	var last uint64
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, _, err := l.kv.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var e Edge
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		events = append(events, e)
		if e.Seq > last {
			last = e.Seq
		}
	}

	l.mu.Lock()
	if last > l.lastSeq {
		l.lastSeq = last
	}
	l.primed = true
	l.mu.Unlock()

	return events, nil
}

// primeLocked loads the current tail sequence. The caller holds the
// mutex.
func (l *EdgeLog) primeLocked(ctx context.Context) error {
	keys, err := l.kv.Keys(ctx)
	if err != nil {
		return fmt.Errorf("prime edge log: %w", err)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		var tail uint64
		if _, err := fmt.Sscanf(keys[len(keys)-1], "%d", &tail); err == nil && tail > l.lastSeq {
			l.lastSeq = tail
		}
	}
	l.primed = true
	return nil
}
