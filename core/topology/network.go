// Package topology holds the physical rail network: stations placed on a
// plane and undirected tracks whose weight is the traversal time in ticks.
// Shortest paths are computed with gonum's Dijkstra implementation.
package topology

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kilianp07/railsim/core/model"
)

// Speed is the distance a train covers in one tick.
const Speed = 5.0

// Network is an undirected weighted graph of stations. It is safe for
// concurrent use.
type Network struct {
	mu       sync.RWMutex
	g        *simple.WeightedUndirectedGraph
	ids      map[string]int64
	names    map[int64]string
	stations map[string]model.Point
	tracks   map[model.EdgeKey]int
	nextID   int64
}

// New returns an empty network.
func New() *Network {
	return &Network{
		g:        simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		ids:      make(map[string]int64),
		names:    make(map[int64]string),
		stations: make(map[string]model.Point),
		tracks:   make(map[model.EdgeKey]int),
	}
}

// TrackWeight derives the traversal time between two positions.
func TrackWeight(a, b model.Point) int {
	w := int(math.Floor(a.Distance(b) / Speed))
	if w < 1 {
		return 1
	}
	return w
}

// AddStation registers a station or moves an existing one. Existing tracks
// keep the weight computed when they were added.
func (n *Network) AddStation(name string, x, y float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.ids[name]; !ok {
		id := n.nextID
		n.nextID++
		n.ids[name] = id
		n.names[id] = name
		n.g.AddNode(simple.Node(id))
	}
	n.stations[name] = model.Point{X: x, Y: y}
}

// AddTrack connects u and v. It reports false and changes nothing when
// either station is unknown or u equals v.
func (n *Network) AddTrack(u, v string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	uid, uok := n.ids[u]
	vid, vok := n.ids[v]
	if !uok || !vok || u == v {
		return false
	}
	w := TrackWeight(n.stations[u], n.stations[v])
	n.g.SetWeightedEdge(n.g.NewWeightedEdge(simple.Node(uid), simple.Node(vid), float64(w)))
	n.tracks[model.NewEdgeKey(u, v)] = w
	return true
}

// RemoveStation deletes the station and all of its tracks.
func (n *Network) RemoveStation(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id, ok := n.ids[name]
	if !ok {
		return
	}
	n.g.RemoveNode(id)
	for k := range n.tracks {
		if k.A == name || k.B == name {
			delete(n.tracks, k)
		}
	}
	delete(n.ids, name)
	delete(n.names, id)
	delete(n.stations, name)
}

// RemoveTrack deletes the track between u and v if present.
func (n *Network) RemoveTrack(u, v string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := model.NewEdgeKey(u, v)
	if _, ok := n.tracks[key]; !ok {
		return
	}
	n.g.RemoveEdge(n.ids[u], n.ids[v])
	delete(n.tracks, key)
}

// HasStation reports whether name is registered.
func (n *Network) HasStation(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.ids[name]
	return ok
}

// Position returns the coordinates of a station.
func (n *Network) Position(name string) (model.Point, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.stations[name]
	return p, ok
}

// Weight returns the traversal time of the track between u and v.
func (n *Network) Weight(u, v string) (int, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	w, ok := n.tracks[model.NewEdgeKey(u, v)]
	return w, ok
}

// ShortestPath returns the station sequence of a minimum-weight path from
// start to end, or nil if either station is unknown or unreachable.
func (n *Network) ShortestPath(start, end string) []string {
	route, _ := n.shortest(start, end)
	return route
}

// ShortestPathCost returns the total weight of the shortest path between
// start and end as computed by Dijkstra.
func (n *Network) ShortestPathCost(start, end string) (int, bool) {
	route, cost := n.shortest(start, end)
	if route == nil {
		return 0, false
	}
	return cost, true
}

func (n *Network) shortest(start, end string) ([]string, int) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	sid, ok := n.ids[start]
	if !ok {
		return nil, 0
	}
	eid, ok := n.ids[end]
	if !ok {
		return nil, 0
	}
	if sid == eid {
		return []string{start}, 0
	}
	sh := path.DijkstraFrom(n.g.Node(sid), n.g)
	nodes, w := sh.To(eid)
	if len(nodes) == 0 || math.IsInf(w, 1) {
		return nil, 0
	}
	route := make([]string, len(nodes))
	for i, nd := range nodes {
		route[i] = n.names[nd.ID()]
	}
	return route, int(w)
}

// PathCost sums the track weights along route. It reports false if two
// consecutive stations are not connected.
func (n *Network) PathCost(route []string) (int, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := 0
	for i := 0; i+1 < len(route); i++ {
		w, ok := n.tracks[model.NewEdgeKey(route[i], route[i+1])]
		if !ok {
			return 0, false
		}
		total += w
	}
	return total, true
}

// Stations returns all stations sorted by name.
func (n *Network) Stations() []model.Station {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]model.Station, 0, len(n.stations))
	for name, p := range n.stations {
		out = append(out, model.Station{Name: name, Pos: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllEdges returns every track ordered by key.
func (n *Network) AllEdges() []model.Track {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]model.Track, 0, len(n.tracks))
	for k, w := range n.tracks {
		out = append(out, model.Track{Key: k, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}
