package board

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"
)

// MoveFlags carries metadata derived when a move is generated.
type MoveFlags uint8

const (
	FlagCapture MoveFlags = 1 << iota
	FlagEnPassant
	FlagCastle
	FlagDoublePush
	FlagPromotion
)

// Move is an immutable move value. The zero value is NoMove.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType // NoPieceType unless FlagPromotion is set
	Piece     PieceType // moving piece
	Captured  PieceType // NoPieceType unless FlagCapture is set
	Flags     MoveFlags

	raw dragontoothmg.Move
}

// NoMove represents the absence of a move.
var NoMove = Move{}

// IsNone reports whether m is NoMove.
func (m Move) IsNone() bool {
	return m.From == m.To
}

// IsCapture returns true if this move captures a piece (including en passant).
func (m Move) IsCapture() bool {
	return m.Flags&FlagCapture != 0
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Flags&FlagPromotion != 0
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flags&FlagEnPassant != 0
}

// IsCastling returns true if this is a castling king move.
func (m Move) IsCastling() bool {
	return m.Flags&FlagCastle != 0
}

// Key packs from, to and promotion into 16 bits. Two moves with the same key
// are the same move in any position where both are legal.
func (m Move) Key() uint16 {
	promo := uint16(0)
	if m.IsPromotion() {
		promo = uint16(m.Promotion) + 1
	}
	return uint16(m.From) | uint16(m.To)<<6 | promo<<12
}

// Same reports whether two moves have the same from, to and promotion.
func (m Move) Same(o Move) bool {
	return m.Key() == o.Key()
}

// String returns UCI long algebraic notation (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNone() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// ParseUCI resolves a UCI move string against the legal moves of pos.
func ParseUCI(pos *Position, s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid uci move %q", s)
	}
	for _, m := range pos.LegalMoves() {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("illegal move %q in %s", s, pos.FEN())
}

// fromDragonPiece maps a dragontoothmg piece to a PieceType.
func fromDragonPiece(p dragontoothmg.Piece) PieceType {
	switch p {
	case dragontoothmg.Pawn:
		return Pawn
	case dragontoothmg.Knight:
		return Knight
	case dragontoothmg.Bishop:
		return Bishop
	case dragontoothmg.Rook:
		return Rook
	case dragontoothmg.Queen:
		return Queen
	case dragontoothmg.King:
		return King
	}
	return NoPieceType
}

// decode converts a generated dragontoothmg move into a Move with metadata.
func (p *Position) decode(rm dragontoothmg.Move) Move {
	m := Move{
		From:      Square(rm.From()),
		To:        Square(rm.To()),
		Promotion: NoPieceType,
		Captured:  NoPieceType,
		raw:       rm,
	}
	m.Piece = p.PieceAt(m.From).Type()

	if victim := p.PieceAt(m.To); victim != NoPiece {
		m.Captured = victim.Type()
		m.Flags |= FlagCapture
	}
	if promo := rm.Promote(); promo != 0 {
		m.Promotion = fromDragonPiece(promo)
		m.Flags |= FlagPromotion
	}

	switch m.Piece {
	case Pawn:
		if m.To == p.ep && m.From.File() != m.To.File() {
			m.Captured = Pawn
			m.Flags |= FlagCapture | FlagEnPassant
		}
		if d := m.To.Rank() - m.From.Rank(); d == 2 || d == -2 {
			m.Flags |= FlagDoublePush
		}
	case King:
		if d := m.To.File() - m.From.File(); d == 2 || d == -2 {
			m.Flags |= FlagCastle
		}
	}
	return m
}
