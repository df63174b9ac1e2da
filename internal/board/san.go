package board

import (
	"fmt"
	"strings"
)

// ToSAN converts a legal move to Standard Algebraic Notation.
func ToSAN(pos *Position, m Move) string {
	if m.IsNone() {
		return "-"
	}

	var sb strings.Builder
	if m.IsCastling() {
		if m.To > m.From {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	} else {
		if m.Piece != Pawn {
			sb.WriteByte("PNBRQK"[m.Piece])
			sb.WriteString(disambiguation(pos, m))
		}
		if m.IsCapture() {
			if m.Piece == Pawn {
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion])
		}
	}

	undo := pos.MakeMove(m)
	if pos.InCheck() {
		if pos.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	pos.UnmakeMove(m, undo)

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same type can reach the same destination.
func disambiguation(pos *Position, m Move) string {
	sameFile, sameRank, ambiguous := false, false, false
	for _, o := range pos.LegalMoves() {
		if o.To != m.To || o.From == m.From || o.Piece != m.Piece {
			continue
		}
		ambiguous = true
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + m.From.File()))
	case !sameRank:
		return string(rune('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// ParseSAN resolves a SAN string against the legal moves of pos.
func ParseSAN(pos *Position, s string) (Move, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")
	s = strings.ReplaceAll(s, "0", "O")

	moves := pos.LegalMoves()
	if s == "O-O" || s == "O-O-O" {
		kingSide := s == "O-O"
		for _, m := range moves {
			if m.IsCastling() && (m.To > m.From) == kingSide {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("illegal castling %q", orig)
	}

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 && idx+1 < len(s) {
		promo = pieceTypeFromLetter(s[idx+1])
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		pt = pieceTypeFromLetter(s[0])
		if pt == NoPieceType {
			return NoMove, fmt.Errorf("invalid san %q", orig)
		}
		s = s[1:]
	}
	if len(s) < 2 {
		return NoMove, fmt.Errorf("invalid san %q", orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("invalid san %q: %w", orig, err)
	}

	fileHint, rankHint := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			fileHint = int(c - 'a')
		case c >= '1' && c <= '8':
			rankHint = int(c - '1')
		}
	}

	for _, m := range moves {
		if m.To != dest || m.Piece != pt {
			continue
		}
		if fileHint >= 0 && m.From.File() != fileHint {
			continue
		}
		if rankHint >= 0 && m.From.Rank() != rankHint {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if promo != NoPieceType && (!m.IsPromotion() || m.Promotion != promo) {
			continue
		}
		if promo == NoPieceType && m.IsPromotion() && m.Promotion != Queen {
			continue
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("illegal move %q in %s", orig, pos.FEN())
}

func pieceTypeFromLetter(c byte) PieceType {
	switch c {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	}
	return NoPieceType
}

// MovesToSAN converts a move sequence starting at pos to SAN. pos is not modified.
func MovesToSAN(pos *Position, moves []Move) []string {
	p := pos.Copy()
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = ToSAN(p, m)
		p.MakeMove(m)
	}
	return out
}
