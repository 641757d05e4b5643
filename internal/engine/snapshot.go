package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vkmindia80/critpath/internal/graph"
)

// Snapshot is the JSON interchange form of a project's task graph, as
// supplied by the surrounding system. Dependency types arrive as either
// the two-letter codes or the legacy long-form names; they are
// normalized once here and codes are always emitted on output.
type Snapshot struct {
	ProjectID        string             `json:"project_id"`
	Unit             string             `json:"unit,omitempty"` // hours or days
	ProjectStart     time.Time          `json:"project_start,omitempty"`
	Deadline         time.Time          `json:"deadline,omitempty"`
	Tasks            []*graph.Task      `json:"tasks"`
	Dependencies     []DependencyRecord `json:"dependencies"`
	ResourceCapacity map[string]float64 `json:"resource_capacity,omitempty"` // hours per day
}

// DependencyRecord is the wire form of a dependency edge before type
// normalization.
type DependencyRecord struct {
	PredecessorID string  `json:"predecessor_id"`
	SuccessorID   string  `json:"successor_id"`
	Type          string  `json:"type"`
	Lag           float64 `json:"lag,omitempty"`
	LagUnit       string  `json:"lag_unit,omitempty"`
}

// ParseSnapshot decodes a JSON snapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &s, nil
}

// Encode serializes the snapshot back to JSON with normalized codes.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// edges normalizes the wire records into typed graph edges.
func (s *Snapshot) edges() ([]graph.Edge, error) {
	out := make([]graph.Edge, 0, len(s.Dependencies))
	for _, d := range s.Dependencies {
		dt, err := graph.ParseDepType(d.Type)
		if err != nil {
			return nil, fmt.Errorf("dependency %s -> %s: %w", d.PredecessorID, d.SuccessorID, err)
		}
		lu, err := graph.ParseUnit(d.LagUnit)
		if err != nil {
			return nil, fmt.Errorf("dependency %s -> %s: %w", d.PredecessorID, d.SuccessorID, err)
		}
		out = append(out, graph.Edge{
			PredecessorID: d.PredecessorID,
			SuccessorID:   d.SuccessorID,
			Type:          dt,
			Lag:           d.Lag,
			LagUnit:       lu,
		})
	}
	return out, nil
}

// unit resolves the project time unit, defaulting to hours.
func (s *Snapshot) unit() (graph.Unit, error) {
	return graph.ParseUnit(s.Unit)
}

// DependencyRecordFromEdge converts a typed edge back to wire form,
// emitting the two-letter code.
func DependencyRecordFromEdge(e graph.Edge) DependencyRecord {
	return DependencyRecord{
		PredecessorID: e.PredecessorID,
		SuccessorID:   e.SuccessorID,
		Type:          e.Type.String(),
		Lag:           e.Lag,
		LagUnit:       string(e.LagUnit),
	}
}
