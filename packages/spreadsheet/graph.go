package spreadsheet

import (
	"cmp"
	"slices"
)

// DependencyNode represents a cell in the dependency graph
type DependencyNode struct {
	// address of *THIS* node
	Address CellAddress

	CellPrecedents map[CellAddress]*DependencyNode // cells this cell references
	CellDependents map[CellAddress]*DependencyNode // cells that reference this cell
}

// DependencyGraph keeps forward and reverse reference edges as mirror
// images. setPrecedents is the only way to change edges, and it is reachable
// only through Store, so edges always match the stored text.
type DependencyGraph struct {
	nodes map[CellAddress]*DependencyNode
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[CellAddress]*DependencyNode),
	}
}

// EdgeChange reports the edges setPrecedents added and removed
type EdgeChange struct {
	Added   []CellAddress
	Removed []CellAddress
}

// setPrecedents replaces the forward edges of addr with refs, mirroring
// every added and dropped edge into the reverse view. Self edges and
// duplicates in refs are ignored.
func (dg *DependencyGraph) setPrecedents(addr CellAddress, refs []CellAddress) EdgeChange {
	want := make(map[CellAddress]struct{}, len(refs))
	for _, ref := range refs {
		if ref == addr {
			continue
		}
		want[ref] = struct{}{}
	}

	var change EdgeChange
	if node, exists := dg.nodes[addr]; exists {
		for precedentAddr := range node.CellPrecedents {
			if _, keep := want[precedentAddr]; !keep {
				change.Removed = append(change.Removed, precedentAddr)
			}
		}
	}
	for ref := range want {
		if !dg.hasEdge(addr, ref) {
			change.Added = append(change.Added, ref)
		}
	}

	for _, ref := range change.Removed {
		dg.removeEdge(addr, ref)
	}
	for _, ref := range change.Added {
		dg.addEdge(addr, ref)
	}

	sortAddresses(change.Added)
	sortAddresses(change.Removed)
	return change
}

func (dg *DependencyGraph) hasEdge(from, to CellAddress) bool {
	node, exists := dg.nodes[from]
	if !exists {
		return false
	}
	_, ok := node.CellPrecedents[to]
	return ok
}

func (dg *DependencyGraph) getOrCreateNode(addr CellAddress) *DependencyNode {
	if node, exists := dg.nodes[addr]; exists {
		return node
	}

	node := &DependencyNode{
		Address:        addr,
		CellPrecedents: make(map[CellAddress]*DependencyNode),
		CellDependents: make(map[CellAddress]*DependencyNode),
	}
	dg.nodes[addr] = node
	return node
}

// addEdge records that from references to
func (dg *DependencyGraph) addEdge(from, to CellAddress) {
	fromNode := dg.getOrCreateNode(from)
	toNode := dg.getOrCreateNode(to)

	fromNode.CellPrecedents[to] = toNode
	toNode.CellDependents[from] = fromNode
}

func (dg *DependencyGraph) removeEdge(from, to CellAddress) {
	fromNode, fromExists := dg.nodes[from]
	toNode, toExists := dg.nodes[to]
	if !fromExists || !toExists {
		return
	}

	delete(fromNode.CellPrecedents, to)
	delete(toNode.CellDependents, from)

	dg.cleanupNodeIfEmpty(from)
	dg.cleanupNodeIfEmpty(to)
}

// cleanupNodeIfEmpty removes a node once it has no edges in either direction
func (dg *DependencyGraph) cleanupNodeIfEmpty(addr CellAddress) {
	node, exists := dg.nodes[addr]
	if !exists {
		return
	}
	if len(node.CellPrecedents) > 0 || len(node.CellDependents) > 0 {
		return
	}
	delete(dg.nodes, addr)
}

// GetDirectDependents returns cells directly referencing this cell, sorted
func (dg *DependencyGraph) GetDirectDependents(addr CellAddress) []CellAddress {
	node, exists := dg.nodes[addr]
	if !exists {
		return nil
	}

	result := make([]CellAddress, 0, len(node.CellDependents))
	for dependentAddr := range node.CellDependents {
		result = append(result, dependentAddr)
	}
	sortAddresses(result)
	return result
}

// GetDirectPrecedents returns cells this cell directly references, sorted
func (dg *DependencyGraph) GetDirectPrecedents(addr CellAddress) []CellAddress {
	node, exists := dg.nodes[addr]
	if !exists {
		return nil
	}

	result := make([]CellAddress, 0, len(node.CellPrecedents))
	for precedentAddr := range node.CellPrecedents {
		result = append(result, precedentAddr)
	}
	sortAddresses(result)
	return result
}

// GetAllDependents returns every cell affected by this cell, breadth first.
// Each cell appears once and the origin is never included, even when it sits
// on a cycle.
func (dg *DependencyGraph) GetAllDependents(addr CellAddress) []CellAddress {
	visited := map[CellAddress]struct{}{addr: {}}
	var result []CellAddress

	queue := []CellAddress{addr}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dependentAddr := range dg.GetDirectDependents(current) {
			if _, seen := visited[dependentAddr]; seen {
				continue
			}
			visited[dependentAddr] = struct{}{}
			result = append(result, dependentAddr)
			queue = append(queue, dependentAddr)
		}
	}
	return result
}

// Edges calls fn for every forward edge. Used by invariant checks.
func (dg *DependencyGraph) Edges(fn func(from, to CellAddress)) {
	for addr, node := range dg.nodes {
		for to := range node.CellPrecedents {
			fn(addr, to)
		}
	}
}

// HasDependent reports whether dependent is in the reverse view of addr
func (dg *DependencyGraph) HasDependent(addr, dependent CellAddress) bool {
	node, exists := dg.nodes[addr]
	if !exists {
		return false
	}
	_, ok := node.CellDependents[dependent]
	return ok
}

// NodeCount returns the number of nodes in the graph
func (dg *DependencyGraph) NodeCount() int {
	return len(dg.nodes)
}

// clear removes all nodes and dependencies from the graph
func (dg *DependencyGraph) clear() {
	dg.nodes = make(map[CellAddress]*DependencyNode)
}

// sortAddresses orders addresses row-major
func sortAddresses(addrs []CellAddress) {
	slices.SortFunc(addrs, compareAddresses)
}

func compareAddresses(a, b CellAddress) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Column, b.Column)
}
