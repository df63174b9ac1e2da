package board

import (
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN validates a FEN string and returns the Position it describes.
// Half-move and full-move fields are optional. Malformed or illegal input
// yields an *InvalidPositionError; nothing is repaired.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, invalid(fen, "need 4 to 6 fields, got %d", len(parts))
	}

	var squares [64]Piece
	if err := parsePlacement(fen, parts[0], &squares); err != nil {
		return nil, err
	}

	var stm Color
	switch parts[1] {
	case "w":
		stm = White
	case "b":
		stm = Black
	default:
		return nil, invalid(fen, "invalid side to move %q", parts[1])
	}

	castling, err := parseCastling(fen, parts[2], &squares)
	if err != nil {
		return nil, err
	}

	ep := NoSquare
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, invalid(fen, "invalid en passant square %q", parts[3])
		}
		wantRank := 5
		if stm == Black {
			wantRank = 2
		}
		if sq.Rank() != wantRank {
			return nil, invalid(fen, "en passant square %s on wrong rank", sq)
		}
		if err := checkEnPassant(fen, sq, stm, &squares); err != nil {
			return nil, err
		}
		ep = sq
	}

	halfMove, fullMove := 0, 1
	if len(parts) > 4 {
		if halfMove, err = strconv.Atoi(parts[4]); err != nil || halfMove < 0 || halfMove > 255 {
			return nil, invalid(fen, "invalid half-move clock %q", parts[4])
		}
	}
	if len(parts) > 5 {
		if fullMove, err = strconv.Atoi(parts[5]); err != nil || fullMove < 1 || fullMove > 65535 {
			return nil, invalid(fen, "invalid full-move number %q", parts[5])
		}
	}

	normalized := strings.Join([]string{
		parts[0], parts[1], castling.String(), ep.String(),
		strconv.Itoa(halfMove), strconv.Itoa(fullMove),
	}, " ")
	b, err := parseDragon(normalized)
	if err != nil {
		return nil, invalid(fen, "%v", err)
	}

	pos := &Position{b: b, castling: castling, ep: ep}

	// The side that just moved must not have left its king in check.
	other := pos.b
	other.Wtomove = !other.Wtomove
	if other.OurKingInCheck() {
		return nil, invalid(fen, "%s to move but %s king is in check", stm, stm.Other())
	}
	return pos, nil
}

// checkEnPassant requires the double push that the en passant square
// claims: the enemy pawn one rank past it, the square itself and the
// pawn's origin empty.
func checkEnPassant(fen string, ep Square, stm Color, squares *[64]Piece) error {
	pawnRank, originRank := 4, 6
	if stm == Black {
		pawnRank, originRank = 3, 1
	}
	pawn := NewSquare(ep.File(), pawnRank)
	origin := NewSquare(ep.File(), originRank)
	if squares[pawn] != NewPiece(Pawn, stm.Other()) {
		return invalid(fen, "en passant square %s without a %s pawn on %s", ep, stm.Other(), pawn)
	}
	if squares[ep] != NoPiece || squares[origin] != NoPiece {
		return invalid(fen, "en passant square %s with %s or %s occupied", ep, ep, origin)
	}
	return nil
}

// parseDragon guards dragontoothmg.ParseFen, which panics on bad input.
func parseDragon(fen string) (b dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvalidPositionError{FEN: fen, Reason: "rules library rejected position"}
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

func parsePlacement(fen, field string, squares *[64]Piece) error {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return invalid(fen, "need 8 ranks, got %d", len(ranks))
	}

	for i := range squares {
		squares[i] = NoPiece
	}
	var counts [12]int
	var total [2]int
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pc := pieceFromChar(c)
			if pc == NoPiece {
				return invalid(fen, "unknown piece %q", c)
			}
			if file > 7 {
				return invalid(fen, "rank %d overflows", rank+1)
			}
			if pc.Type() == Pawn && (rank == 0 || rank == 7) {
				return invalid(fen, "pawn on rank %d", rank+1)
			}
			squares[NewSquare(file, rank)] = pc
			counts[pc]++
			total[pc.Color()]++
			file++
		}
		if file != 8 {
			return invalid(fen, "rank %d has %d squares", rank+1, file)
		}
	}
	for c := White; c <= Black; c++ {
		if n := counts[NewPiece(King, c)]; n != 1 {
			return invalid(fen, "%s has %d kings", c, n)
		}
		if counts[NewPiece(Pawn, c)] > 8 {
			return invalid(fen, "%s has more than 8 pawns", c)
		}
		if total[c] > 16 {
			return invalid(fen, "%s has more than 16 pieces", c)
		}
	}
	return nil
}

func parseCastling(fen, field string, squares *[64]Piece) (CastlingRights, error) {
	if field == "-" {
		return NoCastling, nil
	}
	type need struct {
		right      CastlingRights
		king, rook Square
		color      Color
	}
	table := map[byte]need{
		'K': {WhiteKingSide, E1, H1, White},
		'Q': {WhiteQueenSide, E1, A1, White},
		'k': {BlackKingSide, E8, H8, Black},
		'q': {BlackQueenSide, E8, A8, Black},
	}
	var cr CastlingRights
	for i := 0; i < len(field); i++ {
		n, ok := table[field[i]]
		if !ok || cr&n.right != 0 {
			return 0, invalid(fen, "invalid castling field %q", field)
		}
		if squares[n.king] != NewPiece(King, n.color) || squares[n.rook] != NewPiece(Rook, n.color) {
			return 0, invalid(fen, "castling right %c without king and rook at home", field[i])
		}
		cr |= n.right
	}
	return cr, nil
}

// FEN exports the position in Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.PieceAt(NewSquare(file, rank))
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	stm := "w"
	if p.SideToMove() == Black {
		stm = "b"
	}
	sb.WriteString(" " + stm + " " + p.castling.String() + " " + p.ep.String())
	sb.WriteString(" " + strconv.Itoa(p.HalfMoveClock()) + " " + strconv.Itoa(p.FullMoveNumber()))
	return sb.String()
}

// MirrorFEN returns the color-flipped position: ranks reversed, piece colors
// swapped, side to move, castling rights and en passant square mirrored.
func MirrorFEN(fen string) (string, error) {
	pos, err := ParseFEN(fen)
	if err != nil {
		return "", err
	}
	parts := strings.Fields(pos.FEN())

	ranks := strings.Split(parts[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	placement := swapCase(strings.Join(ranks, "/"))

	stm := "w"
	if parts[1] == "w" {
		stm = "b"
	}

	var cr CastlingRights
	c := pos.CastlingRights()
	if c.Has(White, true) {
		cr |= BlackKingSide
	}
	if c.Has(White, false) {
		cr |= BlackQueenSide
	}
	if c.Has(Black, true) {
		cr |= WhiteKingSide
	}
	if c.Has(Black, false) {
		cr |= WhiteQueenSide
	}

	ep := pos.EnPassant()
	if ep != NoSquare {
		ep = ep.Mirror()
	}
	return strings.Join([]string{placement, stm, cr.String(), ep.String(), parts[4], parts[5]}, " "), nil
}

func swapCase(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		case c >= 'A' && c <= 'Z':
			out[i] = c - 'A' + 'a'
		}
	}
	return string(out)
}
