package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/reqgraph/requirement"
)

// EntityStore writes and reads immutable requirement versions. Each
// version lives under the key <logical_id>.<version_index>; the paired
// LocationIndex names the current version. A version record is never
// rewritten.
type EntityStore struct {
	versions KV
	index    *LocationIndex

	// now is replaceable in tests.
	now func() time.Time
}

// Option configures an EntityStore.
type Option func(*EntityStore)

// WithClock replaces the store's time source. Tests use it to write
// versions with controlled timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *EntityStore) { s.now = now }
}

// NewEntityStore builds an EntityStore over the versions bucket and the
// location index.
func NewEntityStore(versions KV, index *LocationIndex, opts ...Option) *EntityStore {
	s := &EntityStore{
		versions: versions,
		index:    index,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index exposes the location index for callers that resolve pointers
// directly.
func (s *EntityStore) Index() *LocationIndex {
	return s.index
}

// versionKey builds the KV key for one version of a logical id. The
// version index sits after the last dot; logical ids may themselves
// contain dots.
func versionKey(logicalID string, index int) string {
	return fmt.Sprintf("%s.%d", logicalID, index)
}

// parseVersionKey splits a version key into logical id and version
// index.
func parseVersionKey(key string) (string, int, bool) {
	i := strings.LastIndex(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(key[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return key[:i], n, true
}

// CreateVersion appends the next version of a logical id and advances
// its location pointer. The version index is the previous index plus
// one, or 0 for the first version. Two writers racing for the same
// index serialize on the version record create: the loser receives a
// conflict and must re-read before retrying.
func (s *EntityStore) CreateVersion(ctx context.Context, logicalID string, fields requirement.Fields, op requirement.Operation) (*requirement.Requirement, error) {
	if err := requirement.ValidateLogicalID(logicalID); err != nil {
		return nil, err
	}
	fields.Normalize()
	if err := requirement.ValidateFields(fields); err != nil {
		return nil, err
	}
	if !op.IsValid() {
		return nil, requirement.NewValidation("operation", fmt.Sprintf("unknown operation %q", op))
	}

	next := 0
	var prevIndex int
	var prevRev uint64
	first := false

	ptr, rev, err := s.index.Resolve(ctx, logicalID)
	switch {
	case err == nil:
		next = ptr.VersionIndex + 1
		prevIndex = ptr.VersionIndex
		prevRev = rev
	case requirement.IsKind(err, requirement.KindNotFound):
		first = true
	default:
		return nil, err
	}

	r := requirement.Requirement{
		EntityID:     uuid.New().String(),
		LogicalID:    logicalID,
		VersionIndex: next,
		Operation:    op,
		CreatedAt:    s.now().UTC(),
	}
	fields.Apply(&r)

	data, err := json.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("marshal version %s: %w", versionKey(logicalID, next), err)
	}

	// The create below is the write lock for this version index: of
	// any number of writers that resolved the same pointer, exactly one
	// owns the key.
	if _, err := s.versions.Create(ctx, versionKey(logicalID, next), data); err != nil {
		if errors.Is(err, ErrKeyExists) {
			return nil, requirement.NewConflict(logicalID, next)
		}
		return nil, fmt.Errorf("store version %s: %w", versionKey(logicalID, next), err)
	}

	pointer := Pointer{
		LogicalID:    logicalID,
		EntityID:     r.EntityID,
		VersionIndex: next,
		Deleted:      op == requirement.OperationDelete,
		UpdatedAt:    r.CreatedAt,
	}
	if first {
		if err := s.index.Init(ctx, pointer); err != nil {
			return nil, err
		}
	} else {
		if err := s.index.Advance(ctx, logicalID, prevIndex, prevRev, pointer); err != nil {
			return nil, err
		}
	}

	return &r, nil
}

// GetVersion reads one immutable version.
func (s *EntityStore) GetVersion(ctx context.Context, logicalID string, index int) (*requirement.Requirement, error) {
	if err := requirement.ValidateLogicalID(logicalID); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, requirement.NewValidation("version_index", "must not be negative")
	}
	data, _, err := s.versions.Get(ctx, versionKey(logicalID, index))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, requirement.NewVersionNotFound(logicalID, index)
		}
		return nil, fmt.Errorf("get version %s: %w", versionKey(logicalID, index), err)
	}
	var r requirement.Requirement
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal version %s: %w", versionKey(logicalID, index), err)
	}
	return &r, nil
}

// GetLatest resolves the location pointer and reads the version it
// names. A deleted requirement yields a deleted error; its history
// stays readable through GetVersion and Versions.
func (s *EntityStore) GetLatest(ctx context.Context, logicalID string) (*requirement.Requirement, error) {
	ptr, _, err := s.index.Resolve(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	if ptr.Deleted {
		return nil, requirement.NewDeleted(logicalID)
	}
	return s.GetVersion(ctx, logicalID, ptr.VersionIndex)
}

// LiveIDs lists the logical ids whose pointer is not deleted, sorted.
func (s *EntityStore) LiveIDs(ctx context.Context) ([]string, error) {
	pointers, err := s.index.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pointers))
	for _, ptr := range pointers {
		if ptr.Deleted {
			continue
		}
		ids = append(ids, ptr.LogicalID)
	}
	sort.Strings(ids)
	return ids, nil
}

// Versions opens a lazy oldest-first iterator over every version of a
// logical id. The iterator is bounded by the latest index at open time,
// so it terminates even while writers keep appending, and Reset rewinds
// it to the first version.
func (s *EntityStore) Versions(ctx context.Context, logicalID string) (*VersionIterator, error) {
	ptr, _, err := s.index.Resolve(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	return &VersionIterator{
		store:     s,
		logicalID: logicalID,
		last:      ptr.VersionIndex,
	}, nil
}

// VersionIterator walks versions oldest first, loading one record per
// step.
type VersionIterator struct {
	store     *EntityStore
	logicalID string
	last      int
	next      int
	cur       *requirement.Requirement
	err       error
}

// Next advances to the following version, returning false at the end
// of the bounded range or on error.
func (it *VersionIterator) Next(ctx context.Context) bool {
	if it.err != nil || it.next > it.last {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}
	r, err := it.store.GetVersion(ctx, it.logicalID, it.next)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = r
	it.next++
	return true
}

// Requirement returns the version loaded by the last successful Next.
func (it *VersionIterator) Requirement() *requirement.Requirement {
	return it.cur
}

// Err returns the first error the iterator hit, if any.
func (it *VersionIterator) Err() error {
	return it.err
}

// Reset rewinds the iterator to the first version. The bound captured
// at open time is kept.
func (it *VersionIterator) Reset() {
	it.next = 0
	it.cur = nil
	it.err = nil
}

// AllVersions drains a fresh iterator into a slice, oldest first.
func (s *EntityStore) AllVersions(ctx context.Context, logicalID string) ([]*requirement.Requirement, error) {
	it, err := s.Versions(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	out := make([]*requirement.Requirement, 0, it.last+1)
	for it.Next(ctx) {
		out = append(out, it.Requirement())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
