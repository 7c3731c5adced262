package patterns

// SuggestedGroup is one container-level grouping of orphan-typed resources,
// offered as a candidate for a new pattern definition.
type SuggestedGroup struct {
	Label         string   `json:"label"`
	Types         []string `json:"types"`
	ResourceCount int      `json:"resource_count"`
}

// OrphanReport is the JSON-serializable orphaned-node report.
type OrphanReport struct {
	Count     int              `json:"count"`
	Nodes     []OrphanedNode   `json:"nodes"`
	Suggested []SuggestedGroup `json:"suggested_patterns"`
}

// NewOrphanReport assembles the report from identified orphan nodes and any
// suggested groupings discovered in the store.
func NewOrphanReport(nodes []OrphanedNode, suggested []SuggestedGroup) *OrphanReport {
	if nodes == nil {
		nodes = []OrphanedNode{}
	}
	if suggested == nil {
		suggested = []SuggestedGroup{}
	}
	return &OrphanReport{
		Count:     len(nodes),
		Nodes:     nodes,
		Suggested: suggested,
	}
}
