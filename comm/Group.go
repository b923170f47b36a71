package comm

import (
	"fmt"
)

type op int

const (
	opSum op = iota
	opBcast
	opGather
)

func (o op) String() string {
	switch o {
	case opSum:
		return "allreduce"
	case opBcast:
		return "bcast"
	default:
		return "allgather"
	}
}

// request is a single worker's arrival at a collective call
type request struct {
	rank  int
	op    op
	root  int // bcast only
	buf   []float64
	reply chan error

	// gathered is filled by the coordinator for allgather rounds
	gathered [][]float64
}

// Group gives a fixed number of in-process workers blocking collective
// semantics. A coordinator goroutine serves one collective round at a
// time: it waits until every member has arrived, validates that all
// members issued the same operation, applies the operation to the
// members' buffers in place, and only then releases the members.
// Workers that issue mismatched operations within a round indicate a
// desynchronized run, which fails the round for every member.
type Group struct {
	n        int
	requests chan *request
	done     chan struct{}
}

// NewGroup creates a Group of n workers and starts its coordinator.
// Close must be called once the group is no longer needed.
func NewGroup(n int) *Group {
	g := &Group{
		n:        n,
		requests: make(chan *request, n),
		done:     make(chan struct{}),
	}
	go g.coordinate()
	return g
}

// Transport returns the Transport for the worker with the given rank
func (g *Group) Transport(rank int) Transport {
	if rank < 0 || rank >= g.n {
		panic(fmt.Sprintf("transport: rank out of range [0, %d): %d", g.n,
			rank))
	}
	return &member{rank: rank, group: g}
}

// Close shuts down the group's coordinator. Collectives in flight are
// abandoned.
func (g *Group) Close() {
	close(g.done)
}

// coordinate serves collective rounds until the group is closed
func (g *Group) coordinate() {
	for {
		round := make([]*request, 0, g.n)
		for len(round) < g.n {
			select {
			case req := <-g.requests:
				round = append(round, req)
			case <-g.done:
				for _, req := range round {
					req.reply <- fmt.Errorf("collective: group closed")
				}
				return
			}
		}
		g.serve(round)
	}
}

// serve applies a single collective round to the members' buffers
func (g *Group) serve(round []*request) {
	byRank := make([]*request, g.n)
	err := func() error {
		for _, req := range round {
			if byRank[req.rank] != nil {
				return fmt.Errorf("collective: rank %d arrived twice in "+
					"one round", req.rank)
			}
			byRank[req.rank] = req
		}
		first := byRank[0]
		for _, req := range byRank[1:] {
			if req.op != first.op {
				return fmt.Errorf("collective: desynchronized workers: "+
					"rank %d reached %v while rank 0 reached %v", req.rank,
					req.op, first.op)
			}
		}

		switch first.op {
		case opSum:
			for _, req := range byRank[1:] {
				if len(req.buf) != len(first.buf) {
					return fmt.Errorf("collective: allreduce buffer "+
						"length mismatch\n\twant(%v)\n\thave(%v)",
						len(first.buf), len(req.buf))
				}
			}
			sum := make([]float64, len(first.buf))
			for _, req := range byRank {
				for i, v := range req.buf {
					sum[i] += v
				}
			}
			for _, req := range byRank {
				copy(req.buf, sum)
			}
		case opBcast:
			for _, req := range byRank[1:] {
				if req.root != first.root {
					return fmt.Errorf("collective: bcast root mismatch"+
						"\n\twant(%v)\n\thave(%v)", first.root, req.root)
				}
			}
			root := byRank[first.root]
			for _, req := range byRank {
				if len(req.buf) != len(root.buf) {
					return fmt.Errorf("collective: bcast buffer length "+
						"mismatch\n\twant(%v)\n\thave(%v)", len(root.buf),
						len(req.buf))
				}
				copy(req.buf, root.buf)
			}
		case opGather:
			gathered := make([][]float64, g.n)
			for rank, req := range byRank {
				gathered[rank] = make([]float64, len(req.buf))
				copy(gathered[rank], req.buf)
			}
			for _, req := range byRank {
				req.gathered = gathered
			}
		}
		return nil
	}()

	for _, req := range round {
		req.reply <- err
	}
}

// member is one worker's view of a Group
type member struct {
	rank  int
	group *Group
}

// Rank returns the member's rank within its group
func (m *member) Rank() int {
	return m.rank
}

// NumWorkers returns the size of the member's group
func (m *member) NumWorkers() int {
	return m.group.n
}

// AllReduceSum implements Transport
func (m *member) AllReduceSum(x []float64) error {
	_, err := m.collective(opSum, 0, x)
	return err
}

// AllReduceMean implements Transport
func (m *member) AllReduceMean(x []float64) error {
	if err := m.AllReduceSum(x); err != nil {
		return err
	}
	n := float64(m.group.n)
	for i := range x {
		x[i] /= n
	}
	return nil
}

// Bcast implements Transport
func (m *member) Bcast(x []float64, root int) error {
	_, err := m.collective(opBcast, root, x)
	return err
}

// AllGather implements Transport
func (m *member) AllGather(x []float64) ([][]float64, error) {
	return m.collective(opGather, 0, x)
}

// collective submits a request to the coordinator and blocks until the
// round completes
func (m *member) collective(o op, root int, buf []float64) ([][]float64,
	error) {
	req := &request{
		rank:  m.rank,
		op:    o,
		root:  root,
		buf:   buf,
		reply: make(chan error, 1),
	}
	m.group.requests <- req
	if err := <-req.reply; err != nil {
		return nil, err
	}
	return req.gathered, nil
}
