package filter

import (
	"encoding/json"
	"fmt"

	"github.com/krew-solutions/smartview-go/smartview/operators"
)

// Stored filter configurations are JSON. A group serializes as
// {"operator":"and","conditions":[...]} and a condition as
// {"field":"...","operator":"...","value":...}. The presence of a
// "conditions" key is the structural marker discriminating the two
// variants.

// MarshalJSON implements json.Marshaler.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Field    string `json:"field"`
		Operator string `json:"operator"`
		Value    any    `json:"value,omitempty"`
	}{Field: c.Field, Operator: string(c.Operator), Value: c.Value})
}

// MarshalJSON implements json.Marshaler.
func (g Group) MarshalJSON() ([]byte, error) {
	conditions := make([]json.RawMessage, 0, len(g.Conditions))
	for _, child := range g.Conditions {
		raw, err := json.Marshal(child)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, raw)
	}
	return json.Marshal(struct {
		Operator   string            `json:"operator"`
		Conditions []json.RawMessage `json:"conditions"`
	}{Operator: string(g.Operator), Conditions: conditions})
}

// DecodeGroup parses a stored filter tree whose root must be a group.
func DecodeGroup(data []byte) (Group, error) {
	node, err := DecodeNode(data)
	if err != nil {
		return Group{}, err
	}
	group, ok := node.(Group)
	if !ok {
		return Group{}, fmt.Errorf("filter: root node is not a group")
	}
	return group, nil
}

// DecodeNode parses one node of a stored filter tree.
func DecodeNode(data []byte) (Node, error) {
	var probe struct {
		Field      *string           `json:"field"`
		Operator   string            `json:"operator"`
		Value      any               `json:"value"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("filter: decode node: %w", err)
	}

	isGroup := probe.Conditions != nil
	isCondition := probe.Field != nil

	switch {
	case isGroup && !isCondition:
		group := Group{
			Operator:   BoolOperator(probe.Operator),
			Conditions: make([]Node, 0, len(probe.Conditions)),
		}
		// "" round-trips the zero value, which evaluates as a conjunction.
		if group.Operator != BoolAnd && group.Operator != BoolOr && group.Operator != "" {
			return nil, fmt.Errorf("filter: unknown group operator %q", probe.Operator)
		}
		for _, raw := range probe.Conditions {
			child, err := DecodeNode(raw)
			if err != nil {
				return nil, err
			}
			group.Conditions = append(group.Conditions, child)
		}
		return group, nil
	case isCondition && !isGroup:
		return Condition{
			Field:    *probe.Field,
			Operator: operators.Operator(probe.Operator),
			Value:    probe.Value,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMalformedNode, compactPreview(data))
}

// compactPreview keeps decode errors readable for large subtrees.
func compactPreview(data []byte) string {
	const max = 120
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
