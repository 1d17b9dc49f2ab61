// Package spread implements bounded-decay breadth-first influence propagation
// over a graph. Countries, religions and cultures all grow with it; they
// differ only in their decay and claim rules.
package spread

// Graph is an undirected graph over dense node ids [0, Len()).
type Graph interface {
	Len() int
	Neighbors(node int) []int
}

// Adjacency is a Graph backed by neighbor lists.
type Adjacency [][]int

// Len returns the node count.
func (a Adjacency) Len() int { return len(a) }

// Neighbors returns the neighbors of node.
func (a Adjacency) Neighbors(node int) []int { return a[node] }

// Front is one queued propagation step: Owner reached Node with Influence
// after Hops edges from its seed.
type Front struct {
	Node      int
	Owner     int
	Influence float64
	Hops      int
}

// Rules decides how influence decays along an edge and whether a front
// claims the node it reaches.
type Rules interface {
	// Decay returns the influence carried from `from` into node `to`.
	Decay(from Front, to int) float64
	// Claim reports whether next takes node next.Node. Returning true
	// enqueues next so propagation continues from there.
	Claim(next Front) bool
}

// RuleFuncs adapts two functions to Rules.
type RuleFuncs struct {
	DecayFunc func(from Front, to int) float64
	ClaimFunc func(next Front) bool
}

// Decay calls DecayFunc.
func (r RuleFuncs) Decay(from Front, to int) float64 { return r.DecayFunc(from, to) }

// Claim calls ClaimFunc.
func (r RuleFuncs) Claim(next Front) bool { return r.ClaimFunc(next) }

// Options bound a run.
type Options struct {
	// Floor stops expansion from any front whose influence is at or below it.
	Floor float64
	// MaxSteps caps dequeued fronts; 0 means unlimited.
	MaxSteps int
}

// Stats summarizes a run.
type Stats struct {
	Steps     int  // fronts dequeued
	Claims    int  // successful claims, including re-claims
	Truncated bool // stopped by MaxSteps with fronts still queued
}

// Run propagates every seed front through g in FIFO order. Seeds are not
// passed to Claim; callers record their ownership before the run. Each
// dequeued front above the floor offers its decayed influence to every
// neighbor, and Claim arbitrates. Runs are single-threaded, so Claim may
// mutate shared ownership state freely.
func Run(g Graph, rules Rules, opts Options, seeds ...Front) Stats {
	var st Stats
	queue := make([]Front, 0, g.Len()+len(seeds))
	queue = append(queue, seeds...)

	for head := 0; head < len(queue); head++ {
		if opts.MaxSteps > 0 && st.Steps >= opts.MaxSteps {
			st.Truncated = true
			break
		}
		cur := queue[head]
		st.Steps++
		if cur.Influence <= opts.Floor {
			continue
		}
		for _, n := range g.Neighbors(cur.Node) {
			next := Front{
				Node:      n,
				Owner:     cur.Owner,
				Influence: rules.Decay(cur, n),
				Hops:      cur.Hops + 1,
			}
			if rules.Claim(next) {
				st.Claims++
				queue = append(queue, next)
			}
		}
	}
	return st
}
