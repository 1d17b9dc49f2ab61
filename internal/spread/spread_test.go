package spread

import "testing"

// line builds a path graph 0-1-2-...-(n-1).
func line(n int) Adjacency {
	g := make(Adjacency, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			g[i] = append(g[i], i-1)
		}
		if i < n-1 {
			g[i] = append(g[i], i+1)
		}
	}
	return g
}

type ownership struct {
	owner     []int
	influence []float64
}

func newOwnership(n int) *ownership {
	o := &ownership{owner: make([]int, n), influence: make([]float64, n)}
	for i := range o.owner {
		o.owner[i] = -1
	}
	return o
}

func (o *ownership) seed(f Front) Front {
	o.owner[f.Node] = f.Owner
	o.influence[f.Node] = f.Influence
	return f
}

func (o *ownership) rules(factor float64) Rules {
	return RuleFuncs{
		DecayFunc: func(from Front, _ int) float64 { return from.Influence * factor },
		ClaimFunc: func(next Front) bool {
			cur := o.owner[next.Node]
			if cur == next.Owner {
				return false
			}
			if cur >= 0 && next.Influence <= o.influence[next.Node] {
				return false
			}
			o.owner[next.Node] = next.Owner
			o.influence[next.Node] = next.Influence
			return true
		},
	}
}

func TestRunClaimsWholeLine(t *testing.T) {
	g := line(10)
	o := newOwnership(10)
	st := Run(g, o.rules(0.9), Options{}, o.seed(Front{Node: 0, Owner: 0, Influence: 100}))

	for i, owner := range o.owner {
		if owner != 0 {
			t.Fatalf("node %d: expected owner 0, got %d", i, owner)
		}
	}
	if st.Claims != 9 {
		t.Fatalf("expected 9 claims, got %d", st.Claims)
	}
	if st.Truncated {
		t.Fatal("run should not be truncated")
	}
}

func TestFloorStopsExpansion(t *testing.T) {
	g := line(10)
	o := newOwnership(10)
	// 100 -> 50 -> 25 -> 12.5 -> 6.25: the front at 6.25 is below the floor.
	Run(g, o.rules(0.5), Options{Floor: 10}, o.seed(Front{Node: 0, Owner: 0, Influence: 100}))

	for i := 0; i <= 4; i++ {
		if o.owner[i] != 0 {
			t.Fatalf("node %d should be claimed", i)
		}
	}
	for i := 5; i < 10; i++ {
		if o.owner[i] != -1 {
			t.Fatalf("node %d should be unclaimed, owner %d", i, o.owner[i])
		}
	}
}

func TestStrongerFrontConquers(t *testing.T) {
	g := line(9)
	o := newOwnership(9)
	Run(g, o.rules(0.9), Options{},
		o.seed(Front{Node: 0, Owner: 0, Influence: 10}),
		o.seed(Front{Node: 8, Owner: 1, Influence: 100}),
	)

	// Owner 1 starts ten times stronger and ends up with every node,
	// including the seed of owner 0.
	if o.owner[0] != 1 {
		t.Fatalf("expected stronger front to conquer node 0, got owner %d", o.owner[0])
	}
	for i := 1; i < 9; i++ {
		if o.owner[i] != 1 {
			t.Fatalf("node %d: expected owner 1, got %d", i, o.owner[i])
		}
	}
}

func TestTiesFavorFirstArrival(t *testing.T) {
	g := line(3)
	o := newOwnership(3)
	Run(g, o.rules(0.5), Options{},
		o.seed(Front{Node: 0, Owner: 0, Influence: 40}),
		o.seed(Front{Node: 2, Owner: 1, Influence: 40}),
	)
	if o.owner[1] != 0 {
		t.Fatalf("expected the first-queued front to keep the tied node, got owner %d", o.owner[1])
	}
}

func TestRunHaltsOnCycle(t *testing.T) {
	// A triangle lets fronts loop; decay plus the ownership check ends it.
	g := Adjacency{{1, 2}, {0, 2}, {0, 1}}
	o := newOwnership(3)
	st := Run(g, o.rules(0.95), Options{}, o.seed(Front{Node: 0, Owner: 0, Influence: 100}))
	if st.Steps > 3 {
		t.Fatalf("expected at most 3 steps, got %d", st.Steps)
	}
}

func TestMaxStepsTruncates(t *testing.T) {
	g := line(50)
	o := newOwnership(50)
	st := Run(g, o.rules(0.99), Options{MaxSteps: 5}, o.seed(Front{Node: 0, Owner: 0, Influence: 100}))
	if !st.Truncated || st.Steps != 5 {
		t.Fatalf("expected truncation after 5 steps, got %+v", st)
	}
}
