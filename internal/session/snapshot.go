package session

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/markdesk/markdesk-api/internal/grading"
)

//go:embed snapshot_schema.json
var snapshotSchemaSource string

var snapshotSchema = jsonschema.MustCompileString("snapshot_schema.json", snapshotSchemaSource)

// Snapshot is the serialized session state: the three top-level records
// keyed by string file/page identifiers, plus the set of submitted scripts.
type Snapshot struct {
	RubricScheme *grading.Scheme                      `json:"rubric_scheme"`
	RubricItems  map[string]map[string][]grading.Item `json:"rubric_items"`
	Grading      map[string]grading.Record            `json:"grading"`
	Completed    []string                             `json:"completed,omitempty"`
}

// Snapshot captures the full session state for persistence.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	completed := make([]string, 0, len(s.completed))
	for file := range s.completed {
		completed = append(completed, file)
	}
	return Snapshot{
		RubricScheme: s.scheme.Clone(),
		RubricItems:  s.index.ItemsSnapshot(),
		Grading:      s.index.GradingSnapshot(),
		Completed:    completed,
	}
}

// Restore replaces the session state with a previously captured snapshot.
// Any pending propagation proposal is discarded: its matched targets may no
// longer exist.
func (s *State) Restore(snapshot Snapshot) error {
	if snapshot.RubricScheme == nil {
		return fmt.Errorf("snapshot missing rubric scheme")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheme = snapshot.RubricScheme.Clone()
	s.index.Restore(snapshot.RubricItems, snapshot.Grading)
	s.pending = nil
	s.completed = make(map[string]bool, len(snapshot.Completed))
	for _, file := range snapshot.Completed {
		s.completed[file] = true
	}
	return nil
}

// ParseSnapshot validates raw session state against the layout schema
// before decoding it. Malformed imports are rejected wholesale so a bad
// restore can never half-populate the index.
func ParseSnapshot(raw []byte) (Snapshot, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Snapshot{}, fmt.Errorf("invalid session state json: %w", err)
	}
	if err := snapshotSchema.Validate(generic); err != nil {
		return Snapshot{}, fmt.Errorf("session state does not match layout: %w", err)
	}

	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	var snapshot Snapshot
	if err := decoder.Decode(&snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode session state: %w", err)
	}
	return snapshot, nil
}
