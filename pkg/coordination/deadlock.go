// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coordination

import "strings"

// edge is one wait-for graph edge: the current holder of Resource points
// to each actor in its wait queue.
type edge struct {
	From, To, Resource string
}

// Cycle is one elementary deadlock cycle.
type Cycle struct {
	Actors    []string
	Resources []string
}

// DetectDeadlocks builds the wait-for graph from a lock snapshot (holder
// of a resource with a non-empty wait queue points to each waiter) and
// enumerates its elementary cycles via iterative DFS, avoiding recursion
// so graph size never risks a stack-depth limit.
func DetectDeadlocks(snapshot []ResourceLockState) []Cycle {
	edges := buildGraph(snapshot)
	if len(edges) == 0 {
		return nil
	}

	adj := make(map[string][]edge)
	var nodes []string
	seenNode := make(map[string]bool)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e)
		for _, n := range [2]string{e.From, e.To} {
			if !seenNode[n] {
				seenNode[n] = true
				nodes = append(nodes, n)
			}
		}
	}

	var cycles []Cycle
	seenCycle := make(map[string]bool)

	for _, start := range nodes {
		for _, c := range findCyclesFrom(start, adj) {
			key := normalizeCycleKey(c.Actors)
			if !seenCycle[key] {
				seenCycle[key] = true
				cycles = append(cycles, c)
			}
		}
	}
	return cycles
}

func buildGraph(snapshot []ResourceLockState) []edge {
	var edges []edge
	for _, st := range snapshot {
		if st.Holder == "" || len(st.Waiters) == 0 {
			continue
		}
		for _, w := range st.Waiters {
			edges = append(edges, edge{From: st.Holder, To: w, Resource: st.Resource})
		}
	}
	return edges
}

type frame struct {
	node string
	idx  int
}

// findCyclesFrom runs an iterative DFS rooted at start, reporting every
// cycle that returns to a node currently on the exploration path.
func findCyclesFrom(start string, adj map[string][]edge) []Cycle {
	stack := []frame{{node: start, idx: 0}}
	path := []string{start}
	pathResources := []string{}
	onPath := map[string]int{start: 0}

	var cycles []Cycle

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		outs := adj[top.node]

		if top.idx >= len(outs) {
			stack = stack[:len(stack)-1]
			delete(onPath, top.node)
			path = path[:len(path)-1]
			if len(pathResources) > 0 {
				pathResources = pathResources[:len(pathResources)-1]
			}
			continue
		}

		e := outs[top.idx]
		top.idx++

		if pos, onCurrentPath := onPath[e.To]; onCurrentPath {
			actors := append([]string{}, path[pos:]...)
			resources := append([]string{}, pathResources[pos:]...)
			resources = append(resources, e.Resource)
			cycles = append(cycles, Cycle{Actors: actors, Resources: resources})
			continue
		}

		path = append(path, e.To)
		pathResources = append(pathResources, e.Resource)
		onPath[e.To] = len(path) - 1
		stack = append(stack, frame{node: e.To, idx: 0})
	}

	return cycles
}

func normalizeCycleKey(actors []string) string {
	if len(actors) == 0 {
		return ""
	}
	minIdx := 0
	for i, a := range actors {
		if a < actors[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string{}, actors[minIdx:]...), actors[:minIdx]...)
	return strings.Join(rotated, ">")
}
