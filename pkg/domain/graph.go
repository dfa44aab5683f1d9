package domain

// NodeKind is the role of a node in the visual graph.
type NodeKind string

const (
	NodeKindStart    NodeKind = "start"
	NodeKindQuestion NodeKind = "question"
	NodeKindEnd      NodeKind = "end"
)

// NodePayload is the rendering data carried by a node.
type NodePayload struct {
	Title string       `json:"title,omitempty"`
	Type  QuestionType `json:"type,omitempty"`
	Index int          `json:"index"`
	Rules int          `json:"rules,omitempty"`
	// Qualification is only set on end nodes.
	Qualification Qualification `json:"qualification,omitempty"`
}

// Node is a visual node. Question and end node ids equal the Question/Ending id.
type Node struct {
	ID       string      `json:"id"`
	Kind     NodeKind    `json:"kind"`
	Position Position    `json:"position"`
	Payload  NodePayload `json:"payload"`
}

// Edge is a value pair of node ids, not a pointer.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Graph is the derived node/edge view of a Flow.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// EdgeID builds the deterministic id of the edge between source and target.
func EdgeID(source, target string) string {
	return "e-" + source + "-" + target
}
