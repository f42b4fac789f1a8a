package framegraph

import "sort"

// buildSchedule derives the pass dependency DAG from per-resource
// hazards and topologically sorts it into layers of mutually
// independent passes.
func (g *Graph) buildSchedule() {
	adj, indegree := g.hazardEdges()
	g.layers = g.layerSchedule(adj, indegree)

	for li, layer := range g.layers {
		for _, pi := range layer {
			g.passes[pi].layer = li
		}
	}

	Logger().Debug("framegraph: schedule built",
		"passes", len(g.passes), "layers", len(g.layers))
}

// hazardEdges builds the pass adjacency from per-resource hazards.
//
// Walking passes in registration order with per-resource lastWriter and
// outstanding-reader tracking:
//   - a read adds the RAW edge lastWriter->pass and joins the readers;
//   - a write adds the WAW edge lastWriter->pass and a WAR edge
//     reader->pass for every outstanding reader, then clears the
//     readers and takes over as lastWriter.
//
// Attachment declarations count as writes. Whether a plain access is a
// write is decided from its access bits, exactly as in the barrier
// compiler.
func (g *Graph) hazardEdges() ([][]int, []int) {
	n := len(g.passes)
	adj := make([][]int, n)
	indegree := make([]int, n)
	seen := make(map[[2]int]struct{}, n*2)

	addEdge := func(from, to int) {
		if from < 0 || from == to {
			return
		}
		key := [2]int{from, to}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		adj[from] = append(adj[from], to)
		indegree[to]++
	}

	lastWriter := make([]int, len(g.resources))
	for i := range lastWriter {
		lastWriter[i] = -1
	}
	readers := make([][]int, len(g.resources))

	write := func(r ResourceHandle, pass int) {
		addEdge(lastWriter[r], pass) // WAW
		for _, reader := range readers[r] {
			addEdge(reader, pass) // WAR
		}
		readers[r] = readers[r][:0]
		lastWriter[r] = pass
	}
	read := func(r ResourceHandle, pass int) {
		addEdge(lastWriter[r], pass) // RAW
		readers[r] = append(readers[r], pass)
	}

	for pi := range g.passes {
		p := &g.passes[pi]
		for _, att := range p.attachments {
			write(att.Resource, pi)
		}
		for _, acc := range p.accesses {
			if isWriteAccess(acc.Access) {
				write(acc.Resource, pi)
			} else {
				read(acc.Resource, pi)
			}
		}
	}
	return adj, indegree
}

// layerSchedule runs Kahn layering over the adjacency, peeling all
// zero-indegree passes at once. indegree is consumed.
//
// Hazard edges always point from an earlier pass to a later one, so a
// cycle cannot arise from declarations; the sort is still checked: if
// the graph is not fully consumed, an error is logged and the schedule
// falls back to a single layer holding every pass in registration
// order, trading parallelism for correctness-by-sequencing.
func (g *Graph) layerSchedule(adj [][]int, indegree []int) [][]int {
	n := len(adj)
	layers := make([][]int, 0, n)

	frontier := make([]int, 0, n)
	for pi := 0; pi < n; pi++ {
		if indegree[pi] == 0 {
			frontier = append(frontier, pi)
		}
	}

	consumed := 0
	for len(frontier) > 0 {
		// The frontier is assembled from several adjacency lists; sort
		// so within-layer order is registration order.
		sort.Ints(frontier)
		layer := append([]int(nil), frontier...)
		layers = append(layers, layer)
		consumed += len(layer)

		frontier = frontier[:0]
		for _, pi := range layer {
			for _, next := range adj[pi] {
				indegree[next]--
				if indegree[next] == 0 {
					frontier = append(frontier, next)
				}
			}
		}
	}

	if consumed != n {
		Logger().Error("framegraph: dependency cycle detected, falling back to sequential execution",
			"passes", n, "scheduled", consumed)
		all := make([]int, n)
		for pi := 0; pi < n; pi++ {
			all[pi] = pi
		}
		return [][]int{all}
	}
	return layers
}
