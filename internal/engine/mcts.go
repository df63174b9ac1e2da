package engine

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/board"
)

// DefaultExploration is the UCB1 exploration constant.
const DefaultExploration = 1.4

// mctsNode is one position in the search tree. The tree owns its nodes;
// parent is a back-pointer used for backpropagation only.
type mctsNode struct {
	move     board.Move
	parent   *mctsNode
	children []*mctsNode
	untried  []board.Move

	visits int
	value  float64 // summed from the point of view of the side that played move
	prior  float64

	terminal      bool
	terminalValue float64 // for the side to move at this node
}

// newMCTSNode builds a node for the position pos is currently in.
func newMCTSNode(pos *board.Position, m board.Move, parent *mctsNode, orderer *MoveOrderer) *mctsNode {
	n := &mctsNode{move: m, parent: parent}
	if v, ok := terminalValue(pos); ok {
		n.terminal = true
		n.terminalValue = v
		return n
	}
	moves := pos.LegalMoves()
	SortMoves(moves, orderer.ScoreMoves(pos, moves, 0, board.NoMove))
	n.untried = moves
	return n
}

func (n *mctsNode) q() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.value / float64(n.visits)
}

// selectChild returns the child with the highest UCB1 score; the earliest
// expanded child wins ties.
func (n *mctsNode) selectChild(c float64) *mctsNode {
	logN := math.Log(float64(n.visits))
	var best *mctsNode
	bestScore := math.Inf(-1)
	for _, child := range n.children {
		score := math.Inf(1)
		if child.visits > 0 {
			score = child.q() + c*math.Sqrt(logN/float64(child.visits))
		}
		if score > bestScore {
			best, bestScore = child, score
		}
	}
	return best
}

// robustChild returns the most visited child; the earliest expanded child
// wins ties.
func (n *mctsNode) robustChild() *mctsNode {
	var best *mctsNode
	for _, child := range n.children {
		if best == nil || child.visits > best.visits {
			best = child
		}
	}
	return best
}

func (n *mctsNode) depth() int {
	d := 0
	for _, c := range n.children {
		if cd := c.depth() + 1; cd > d {
			d = cd
		}
	}
	return d
}

// MCTSConfig configures an MCTS search.
type MCTSConfig struct {
	Leaf           LeafEvaluator
	Exploration    float64
	MaxSimulations int // 0 means limited by the budget only
	Logger         zerolog.Logger
}

// ChildStat describes a root child after the search.
type ChildStat struct {
	Move   board.Move
	Visits int
	Value  float64 // mean value for the side to move at the root
}

// MCTSReport is the outcome of an MCTS search.
type MCTSReport struct {
	Move        board.Move
	Value       float64
	Score       int
	Depth       int
	Simulations int
	Children    []ChildStat
	Elapsed     time.Duration
}

// MCTS is a single-threaded UCB1 Monte Carlo tree search. One tree is built
// per call and discarded afterwards.
type MCTS struct {
	cfg     MCTSConfig
	orderer *MoveOrderer
}

// NewMCTS creates an MCTS searcher.
func NewMCTS(cfg MCTSConfig) *MCTS {
	if cfg.Exploration <= 0 {
		cfg.Exploration = DefaultExploration
	}
	return &MCTS{cfg: cfg, orderer: NewMoveOrderer(false)}
}

// Search runs simulations from pos until the budget or the simulation cap
// is reached. pos must have at least one legal move; it is not modified.
func (s *MCTS) Search(pos *board.Position, budget *Budget) MCTSReport {
	work := pos.Copy()
	root := newMCTSNode(work, board.NoMove, nil, s.orderer)
	root.prior = 1
	var report MCTSReport
	if root.terminal {
		return report
	}
	// Under any budget the first ordered move is a valid answer.
	report.Move = root.untried[0]

	type step struct {
		move board.Move
		undo board.UndoInfo
	}
	path := make([]step, 0, 64)

	for s.cfg.MaxSimulations <= 0 || report.Simulations < s.cfg.MaxSimulations {
		if budget.Expired() {
			break
		}
		budget.Tick()

		node := root
		for len(node.untried) == 0 && len(node.children) > 0 {
			node = node.selectChild(s.cfg.Exploration)
			path = append(path, step{node.move, work.MakeMove(node.move)})
		}

		if !node.terminal && len(node.untried) > 0 {
			m := node.untried[0]
			node.untried = node.untried[1:]
			path = append(path, step{m, work.MakeMove(m)})
			child := newMCTSNode(work, m, node, s.orderer)
			child.prior = 1 / float64(len(node.children)+len(node.untried)+1)
			node.children = append(node.children, child)
			node = child
		}

		var v float64
		if node.terminal {
			v = node.terminalValue
		} else {
			var err error
			v, err = s.cfg.Leaf.EvaluateLeaf(work)
			if err != nil {
				s.cfg.Logger.Debug().Err(err).Msg("leaf evaluation failed")
				v = 0
			}
		}

		// v is for the side to move at node; each node accumulates the value
		// for the side that moved into it.
		v = -v
		for n := node; n != nil; n = n.parent {
			n.visits++
			n.value += v
			v = -v
		}

		for i := len(path) - 1; i >= 0; i-- {
			work.UnmakeMove(path[i].move, path[i].undo)
		}
		path = path[:0]
		report.Simulations++
	}

	for _, c := range root.children {
		report.Children = append(report.Children, ChildStat{Move: c.move, Visits: c.visits, Value: c.q()})
	}
	if best := root.robustChild(); best != nil {
		report.Move = best.move
		report.Value = best.q()
		report.Score = ValueToCentipawns(best.q())
	}
	report.Depth = root.depth()
	report.Elapsed = budget.Elapsed()

	s.cfg.Logger.Debug().
		Int("simulations", report.Simulations).
		Int("depth", report.Depth).
		Str("move", report.Move.String()).
		Float64("value", report.Value).
		Msg("mcts complete")
	return report
}
