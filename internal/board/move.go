package board

// Move is a chess move as seen by the engine tables: origin, destination and
// an optional promotion piece. Castling and en passant are expressed by their
// king and pawn squares, so no extra flags are needed.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType // NoPieceType when the move is not a promotion
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Promotion: NoPieceType}

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move{From: from, To: to, Promotion: NoPieceType}
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move{From: from, To: to, Promotion: promo}
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Promotion.IsPromotion()
}

// IsValid returns true if both squares are on the board and the promotion
// piece, if any, is one a pawn can promote to.
func (m Move) IsValid() bool {
	if !m.From.IsValid() || !m.To.IsValid() {
		return false
	}
	return m.Promotion == NoPieceType || m.Promotion.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}

	return s
}
