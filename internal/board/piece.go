package board

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// PromotionTypes lists the piece types a pawn may promote to, in order.
var PromotionTypes = [4]PieceType{Knight, Bishop, Rook, Queen}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{'p', 'n', 'b', 'r', 'q', 'k', ' '}
	if pt > NoPieceType {
		return ' '
	}
	return chars[pt]
}

// IsPromotion reports whether a pawn may promote to this piece type.
func (pt PieceType) IsPromotion() bool {
	return pt >= Knight && pt <= Queen
}
