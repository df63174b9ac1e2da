package board

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

// Status is the game-theoretic state of a position.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	FiftyMoveDraw
	InsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case FiftyMoveDraw:
		return "fifty-move rule"
	case InsufficientMaterial:
		return "insufficient material"
	default:
		return "ongoing"
	}
}

// IsTerminal returns true for any finished game state.
func (s Status) IsTerminal() bool {
	return s != Ongoing
}

// Position is a complete chess position. Move generation and make/unmake are
// delegated to dragontoothmg; castling rights and the en passant square are
// tracked here so they can be hashed.
type Position struct {
	b        dragontoothmg.Board
	castling CastlingRights
	ep       Square
}

// UndoInfo restores a position after MakeMove.
type UndoInfo struct {
	unapply  func()
	castling CastlingRights
	ep       Square
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color {
	if p.b.Wtomove {
		return White
	}
	return Black
}

// CastlingRights returns the remaining castling rights.
func (p *Position) CastlingRights() CastlingRights {
	return p.castling
}

// EnPassant returns the en passant target square, or NoSquare.
func (p *Position) EnPassant() Square {
	return p.ep
}

// HalfMoveClock returns the number of plies since the last capture or pawn move.
func (p *Position) HalfMoveClock() int {
	return int(p.b.Halfmoveclock)
}

// FullMoveNumber returns the FEN full-move counter.
func (p *Position) FullMoveNumber() int {
	return int(p.b.Fullmoveno)
}

func (p *Position) side(c Color) *dragontoothmg.Bitboards {
	if c == White {
		return &p.b.White
	}
	return &p.b.Black
}

// Pieces returns the bitboard of pieces of the given color and type.
func (p *Position) Pieces(c Color, pt PieceType) uint64 {
	bb := p.side(c)
	switch pt {
	case Pawn:
		return bb.Pawns
	case Knight:
		return bb.Knights
	case Bishop:
		return bb.Bishops
	case Rook:
		return bb.Rooks
	case Queen:
		return bb.Queens
	case King:
		return bb.Kings
	}
	return 0
}

// ColorOccupied returns all squares occupied by the given color.
func (p *Position) ColorOccupied(c Color) uint64 {
	return p.side(c).All
}

// Occupied returns all occupied squares.
func (p *Position) Occupied() uint64 {
	return p.b.White.All | p.b.Black.All
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	mask := uint64(1) << sq
	for c := White; c <= Black; c++ {
		if p.side(c).All&mask == 0 {
			continue
		}
		for pt := Pawn; pt <= King; pt++ {
			if p.Pieces(c, pt)&mask != 0 {
				return NewPiece(pt, c)
			}
		}
	}
	return NoPiece
}

// KingSquare returns the square of the king of color c.
func (p *Position) KingSquare(c Color) Square {
	k := p.side(c).Kings
	if k == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(k))
}

// Count returns how many pieces of the given color and type are on the board.
func (p *Position) Count(c Color, pt PieceType) int {
	return bits.OnesCount64(p.Pieces(c, pt))
}

// LegalMoves generates all legal moves for the side to move.
func (p *Position) LegalMoves() []Move {
	raw := p.b.GenerateLegalMoves()
	moves := make([]Move, 0, len(raw))
	for _, rm := range raw {
		moves = append(moves, p.decode(rm))
	}
	return moves
}

// HasLegalMoves returns true if the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	return len(p.b.GenerateLegalMoves()) > 0
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.b.OurKingInCheck()
}

// MakeMove plays a legal move and returns the information needed to undo it.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{castling: p.castling, ep: p.ep}
	undo.unapply = p.b.Apply(m.raw)

	p.castling &^= castlingLoss[m.From] | castlingLoss[m.To]
	p.ep = NoSquare
	if m.Flags&FlagDoublePush != 0 {
		p.ep = Square((int(m.From) + int(m.To)) / 2)
	}
	return undo
}

// UnmakeMove restores the position to its state before MakeMove.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	undo.unapply()
	p.castling = undo.castling
	p.ep = undo.ep
}

// GivesCheck reports whether m leaves the opponent in check.
func (p *Position) GivesCheck(m Move) bool {
	undo := p.MakeMove(m)
	check := p.InCheck()
	p.UnmakeMove(m, undo)
	return check
}

// IsInsufficientMaterial returns true when neither side can force mate:
// bare kings, a single minor piece, or same-colored bishops only.
func (p *Position) IsInsufficientMaterial() bool {
	w, bl := &p.b.White, &p.b.Black
	if w.Pawns|bl.Pawns|w.Rooks|bl.Rooks|w.Queens|bl.Queens != 0 {
		return false
	}
	knights := bits.OnesCount64(w.Knights | bl.Knights)
	bishops := w.Bishops | bl.Bishops
	nb := bits.OnesCount64(bishops)
	if knights+nb <= 1 {
		return true
	}
	if knights == 0 {
		const lightSquares = 0x55AA55AA55AA55AA
		return bishops&lightSquares == 0 || bishops&^lightSquares == 0
	}
	return false
}

// Status classifies the position. Repetition is the caller's concern since it
// needs game history.
func (p *Position) Status() Status {
	if !p.HasLegalMoves() {
		if p.InCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if p.b.Halfmoveclock >= 100 {
		return FiftyMoveDraw
	}
	if p.IsInsufficientMaterial() {
		return InsufficientMaterial
	}
	return Ongoing
}

// Mobility returns the number of legal moves available to color c,
// regardless of who is to move.
func (p *Position) Mobility(c Color) int {
	if c == p.SideToMove() {
		return len(p.b.GenerateLegalMoves())
	}
	// Flip the side to move on a scratch copy; en passant belongs to the mover.
	tmp := p.b
	tmp.Wtomove = !tmp.Wtomove
	return len(tmp.GenerateLegalMoves())
}

func (p *Position) String() string {
	var out []byte
	for rank := 7; rank >= 0; rank-- {
		out = append(out, byte('1'+rank), ' ')
		for file := 0; file < 8; file++ {
			pc := p.PieceAt(NewSquare(file, rank))
			if pc == NoPiece {
				out = append(out, '.', ' ')
			} else {
				out = append(out, pc.String()[0], ' ')
			}
		}
		out = append(out, '\n')
	}
	out = append(out, "  a b c d e f g h\n"...)
	return string(out)
}
