package knowledge

import (
	"context"
	"fmt"

	"github.com/teranos/roomq/errors"
)

// DefaultPreviewLimit is the number of edges Preview returns when none is given
const DefaultPreviewLimit = 50

// Node is one end of a previewed edge
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// Caption is the node's most telling property, falling back to its label
func (n Node) Caption() string {
	for _, key := range []string{"room_number", "ac_id", "sensor_id", "timestamp"} {
		if v, ok := n.Properties[key]; ok {
			return fmt.Sprintf("%s %s", n.Label, toString(v))
		}
	}
	return n.Label
}

// Edge is a relationship between two nodes
type Edge struct {
	From Node   `json:"from"`
	To   Node   `json:"to"`
	Type string `json:"type"`
}

const previewCypher = `MATCH (a)-[r]->(b)
RETURN elementId(a) AS a_id, labels(a)[0] AS a_lab, properties(a) AS a_p,
       elementId(b) AS b_id, labels(b)[0] AS b_lab, properties(b) AS b_p,
       type(r) AS r_type
LIMIT $limit`

// Preview returns a bounded sample of the graph for debug views
func (e *Executor) Preview(ctx context.Context, limit int) ([]Edge, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	rows, err := e.Execute(ctx, Query{Text: previewCypher, Params: map[string]any{"limit": limit}})
	if err != nil {
		return nil, errors.Wrap(err, "graph preview")
	}

	edges := make([]Edge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, Edge{
			From: node(row, "a"),
			To:   node(row, "b"),
			Type: toString(row["r_type"]),
		})
	}
	return edges, nil
}

func node(row Row, prefix string) Node {
	props, _ := row[prefix+"_p"].(map[string]any)
	return Node{
		ID:         toString(row[prefix+"_id"]),
		Label:      toString(row[prefix+"_lab"]),
		Properties: props,
	}
}
