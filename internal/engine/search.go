package engine

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	// MateThreshold separates mate scores from ordinary evaluations.
	MateThreshold = MateScore - MaxPly
)

// Quiescence defaults
const (
	DefaultQNodeCap  = 20000
	DefaultQDepthCap = 8
	deltaMargin      = 200
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	next := pv.length[ply+1]
	for i := ply + 1; i < next; i++ {
		pv.moves[ply][i] = pv.moves[ply+1][i]
	}
	if next < ply+1 {
		next = ply + 1
	}
	pv.length[ply] = next
}

func (pv *PVTable) line() []board.Move {
	out := make([]board.Move, pv.length[0])
	copy(out, pv.moves[0][:pv.length[0]])
	return out
}

// SearchConfig configures a Searcher. TT is optional; a nil table disables
// probing and storing.
type SearchConfig struct {
	Evaluator   Evaluator
	TT          *TranspositionTable
	Hasher      *board.Hasher
	DepthCap    int
	QNodeCap    uint64
	QDepthCap   int
	OrderChecks bool
	// History holds the keys of positions played before the root, oldest
	// first, for repetition detection.
	History []uint64
	Logger  zerolog.Logger
}

// SearchReport is the outcome of an iterative deepening search. It always
// describes the last fully completed iteration.
type SearchReport struct {
	Move      board.Move
	Score     int
	Depth     int
	PV        []board.Move
	Nodes     uint64
	QNodes    uint64
	Elapsed   time.Duration
	TTHitRate float64
}

// Searcher runs negamax alpha-beta with quiescence and iterative deepening.
// A Searcher owns its position copy and is not safe for concurrent use.
type Searcher struct {
	cfg     SearchConfig
	pos     *board.Position
	budget  *Budget
	orderer *MoveOrderer
	pv      PVTable

	nodes      uint64
	qnodes     uint64
	iterQNodes uint64
	path       []uint64
	stopped    bool
}

// NewSearcher creates a searcher, filling in defaults for unset fields.
func NewSearcher(cfg SearchConfig) *Searcher {
	if cfg.Evaluator == nil {
		cfg.Evaluator = MaterialEvaluator{}
	}
	if cfg.Hasher == nil {
		cfg.Hasher = board.DefaultHasher()
	}
	if cfg.DepthCap <= 0 || cfg.DepthCap > MaxPly-1 {
		cfg.DepthCap = MaxPly - 1
	}
	if cfg.QNodeCap == 0 {
		cfg.QNodeCap = DefaultQNodeCap
	}
	if cfg.QDepthCap <= 0 {
		cfg.QDepthCap = DefaultQDepthCap
	}
	return &Searcher{
		cfg:     cfg,
		orderer: NewMoveOrderer(cfg.OrderChecks),
	}
}

// Search runs iterative deepening on a copy of pos until the depth cap is
// reached or the budget expires. The first ordered legal move is installed
// before depth 1, so a result is available under any budget. The table, if
// any, is cleared first.
func (s *Searcher) Search(pos *board.Position, budget *Budget) SearchReport {
	s.pos = pos.Copy()
	s.budget = budget
	s.orderer.Clear()
	s.nodes, s.qnodes = 0, 0
	s.stopped = false
	s.path = append(s.path[:0], s.cfg.History...)
	if s.cfg.TT != nil {
		s.cfg.TT.Clear()
	}

	var report SearchReport
	rootMoves := s.pos.LegalMoves()
	if len(rootMoves) == 0 {
		return report
	}
	scores := s.orderer.ScoreMoves(s.pos, rootMoves, 0, board.NoMove)
	SortMoves(rootMoves, scores)
	report.Move = rootMoves[0]
	report.PV = []board.Move{rootMoves[0]}

	for depth := 1; depth <= s.cfg.DepthCap; depth++ {
		if budget.Expired() {
			break
		}
		move, score, ok := s.searchRoot(rootMoves, depth)
		if !ok {
			break
		}
		report.Move = move
		report.Score = score
		report.Depth = depth
		report.PV = s.pv.line()

		s.cfg.Logger.Debug().
			Int("depth", depth).
			Int("score", score).
			Uint64("nodes", s.nodes).
			Uint64("qnodes", s.qnodes).
			Str("pv", pvString(report.PV)).
			Msg("iteration complete")

		if score > MateThreshold || score < -MateThreshold {
			break
		}
	}

	report.Nodes = s.nodes
	report.QNodes = s.qnodes
	report.Elapsed = budget.Elapsed()
	if s.cfg.TT != nil {
		report.TTHitRate = s.cfg.TT.HitRate()
	}
	return report
}

// searchRoot searches every root move at depth and moves the best one to the
// front. ok is false when the budget ran out before the iteration finished.
func (s *Searcher) searchRoot(moves []board.Move, depth int) (board.Move, int, bool) {
	s.iterQNodes = 0
	s.pv.length[0] = 0
	key := s.cfg.Hasher.Hash(s.pos)
	s.path = append(s.path, key)
	defer func() { s.path = s.path[:len(s.path)-1] }()

	alpha, beta := -Infinity, Infinity
	bestIdx, bestScore := 0, -Infinity
	for i, m := range moves {
		undo := s.pos.MakeMove(m)
		score := -s.negamax(depth-1, 1, -beta, -alpha)
		s.pos.UnmakeMove(m, undo)
		if s.stopped {
			return board.NoMove, 0, false
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
			s.pv.update(0, m)
		}
		if score > alpha {
			alpha = score
		}
	}

	best := moves[bestIdx]
	copy(moves[1:bestIdx+1], moves[:bestIdx])
	moves[0] = best

	if s.cfg.TT != nil {
		s.cfg.TT.Store(key, depth, bestScore, TTExact, best, 0)
	}
	return best, bestScore, true
}

// negamax searches the current position to depth plies.
func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	key := s.cfg.Hasher.Hash(s.pos)
	if s.isDraw(key) {
		s.pv.length[ply] = ply
		return 0
	}
	if depth <= 0 {
		return s.quiescence(ply, 0, alpha, beta)
	}

	s.pv.length[ply] = ply
	if s.budget.Tick() {
		s.stopped = true
		return 0
	}
	s.nodes++
	if ply >= MaxPly-1 {
		return s.evaluate()
	}

	s.path = append(s.path, key)
	score := s.searchNode(key, depth, ply, alpha, beta)
	s.path = s.path[:len(s.path)-1]
	return score
}

func (s *Searcher) searchNode(key uint64, depth, ply, alpha, beta int) int {
	origAlpha := alpha
	ttMove := board.NoMove
	if s.cfg.TT != nil {
		r := s.cfg.TT.Probe(key, depth, alpha, beta, ply)
		if r.Hit {
			ttMove = r.Move
			if r.Usable {
				return r.Score
			}
		}
	}

	moves := s.pos.LegalMoves()
	if len(moves) == 0 {
		if s.pos.InCheck() {
			return -MateScore + ply
		}
		return 0
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)
	best := -Infinity
	bestMove := board.NoMove
	for i := range moves {
		PickMove(moves, scores, i)
		m := moves[i]

		undo := s.pos.MakeMove(m)
		score := -s.negamax(depth-1, ply+1, -beta, -alpha)
		s.pos.UnmakeMove(m, undo)
		if s.stopped {
			return 0
		}

		if score > best {
			best = score
			bestMove = m
			if score > alpha {
				alpha = score
				s.pv.update(ply, m)
				if alpha >= beta {
					s.orderer.UpdateKillers(m, ply)
					break
				}
			}
		}
	}

	if s.cfg.TT != nil {
		flag := TTExact
		switch {
		case best <= origAlpha:
			flag = TTUpperBound
		case best >= beta:
			flag = TTLowerBound
		}
		s.cfg.TT.Store(key, depth, best, flag, bestMove, ply)
	}
	return best
}

// quiescence searches captures and promotions until the position is quiet.
// In check every evasion is searched.
func (s *Searcher) quiescence(ply, qply, alpha, beta int) int {
	s.pv.length[ply] = ply
	if s.budget.Tick() {
		s.stopped = true
		return 0
	}
	s.qnodes++
	s.iterQNodes++

	moves := s.pos.LegalMoves()
	inCheck := s.pos.InCheck()
	if len(moves) == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	exhausted := ply >= MaxPly-1 || qply >= s.cfg.QDepthCap || s.iterQNodes >= s.cfg.QNodeCap
	standPat := 0
	if !inCheck || exhausted {
		standPat = s.evaluate()
		if exhausted || standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	best := standPat
	if inCheck {
		best = -Infinity
	} else {
		n := 0
		for _, m := range moves {
			if m.IsCapture() || m.IsPromotion() {
				moves[n] = m
				n++
			}
		}
		moves = moves[:n]
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)
	for i := range moves {
		PickMove(moves, scores, i)
		m := moves[i]

		if !inCheck && !m.IsPromotion() && standPat+pieceValues[m.Captured]+deltaMargin < alpha {
			continue
		}

		undo := s.pos.MakeMove(m)
		score := -s.quiescence(ply+1, qply+1, -beta, -alpha)
		s.pos.UnmakeMove(m, undo)
		if s.stopped {
			return 0
		}

		if score > best {
			best = score
			if score > alpha {
				alpha = score
				s.pv.update(ply, m)
				if alpha >= beta {
					break
				}
			}
		}
	}
	return best
}

// isDraw reports the fifty-move rule, insufficient material, or a repeat of
// an earlier position with the same side to move.
func (s *Searcher) isDraw(key uint64) bool {
	hmc := s.pos.HalfMoveClock()
	if hmc >= 100 {
		return true
	}
	if s.pos.IsInsufficientMaterial() {
		return true
	}
	n := len(s.path)
	for i := n - 2; i >= 0 && i >= n-hmc; i -= 2 {
		if s.path[i] == key {
			return true
		}
	}
	return false
}

func (s *Searcher) evaluate() int {
	return clamp(s.cfg.Evaluator.Evaluate(s.pos), -MateThreshold+1, MateThreshold-1)
}

func pvString(pv []board.Move) string {
	out := make([]byte, 0, len(pv)*5)
	for i, m := range pv {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, m.String()...)
	}
	return string(out)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateThreshold {
		return "Mate in " + strconv.Itoa((MateScore-score+1)/2)
	}
	if score < -MateThreshold {
		return "Mated in " + strconv.Itoa((MateScore+score+1)/2)
	}

	sign := ""
	if score < 0 {
		sign = "-"
	}
	a := abs(score)
	pad := ""
	if a%100 < 10 {
		pad = "0"
	}
	return sign + strconv.Itoa(a/100) + "." + pad + strconv.Itoa(a%100)
}
