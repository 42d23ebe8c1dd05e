package engine

import (
	"unsafe"

	"github.com/hailam/chesstt/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTNone       TTFlag = iota // Empty slot or no usable bound
	TTExact                    // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// String returns the bound name.
func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lowerbound"
	case TTUpperBound:
		return "upperbound"
	default:
		return "none"
	}
}

// PackedMove encodes a move in 16 bits:
// bits 0-5:   from square
// bits 6-11:  to square
// bits 12-14: promotion tag (0=none, 0b100|piece where piece 0=Knight .. 3=Queen)
// bit 15:     unused
type PackedMove uint16

// NoPackedMove is the sentinel stored for "no best move".
const NoPackedMove PackedMove = 0

const (
	squareMask   = 0x3F
	promoFlag    = 0b100
	promoTagMask = 0b111
)

// NewPackedMove packs a move. board.NoMove maps to NoPackedMove.
func NewPackedMove(m board.Move) PackedMove {
	if m == board.NoMove {
		return NoPackedMove
	}

	var promo uint16
	if m.IsPromotion() {
		promo = promoFlag | uint16(m.Promotion-board.Knight)
	}

	return PackedMove(uint16(m.From)&squareMask | (uint16(m.To)&squareMask)<<6 | promo<<12)
}

// Unpack decodes every 16-bit pattern into some move. Tags without the
// promotion bit decode as a plain move.
func (p PackedMove) Unpack() board.Move {
	from := board.Square(p & squareMask)
	to := board.Square((p >> 6) & squareMask)

	tag := (p >> 12) & promoTagMask
	if tag&promoFlag == 0 {
		return board.NewMove(from, to)
	}
	return board.NewPromotion(from, to, board.PromotionTypes[tag&3])
}

// Move returns the decoded move, or false for the sentinel.
func (p PackedMove) Move() (board.Move, bool) {
	if p == NoPackedMove {
		return board.NoMove, false
	}
	return p.Unpack(), true
}

// AgeFlag packs the 6-bit table generation and the 2-bit bound into one byte.
type AgeFlag uint8

const maxAge = 63

// NewAgeFlag packs age and flag. Out of range values are truncated.
func NewAgeFlag(age uint8, flag TTFlag) AgeFlag {
	return AgeFlag((age&maxAge)<<2 | uint8(flag)&3)
}

// Age returns the generation the entry was written in.
func (af AgeFlag) Age() uint8 {
	return uint8(af) >> 2
}

// Flag returns the bound type.
func (af AgeFlag) Flag() TTFlag {
	return TTFlag(af & 3)
}

// TTEntry is one transposition table record. It is stored in the table as a
// single uint64 with the layout:
//
//	bits  0-15  Key      low 16 bits of the position hash
//	bits 16-31  Move     packed best move
//	bits 32-47  Score    table-space score (two's complement)
//	bits 48-55  Depth    remaining search depth
//	bits 56-63  AgeFlag  generation and bound
type TTEntry struct {
	Key     uint16
	Move    PackedMove
	Score   int16
	Depth   uint8
	AgeFlag AgeFlag
}

const (
	keyShift     = 0
	moveShift    = 16
	scoreShift   = 32
	depthShift   = 48
	ageFlagShift = 56
	entryBits    = ageFlagShift + 8
)

// The packed layout must fill exactly one 64-bit word and the record itself
// must be 8 bytes. Either violation fails the build.
var (
	_ = [1]struct{}{}[entryBits-64]
	_ = [1]struct{}{}[unsafe.Sizeof(TTEntry{})-ttEntryBytes]
)

// Pack returns the entry as a table word.
func (e TTEntry) Pack() uint64 {
	return uint64(e.Key)<<keyShift |
		uint64(e.Move)<<moveShift |
		uint64(uint16(e.Score))<<scoreShift |
		uint64(e.Depth)<<depthShift |
		uint64(e.AgeFlag)<<ageFlagShift
}

// UnpackEntry decodes a table word. Every bit pattern is a valid entry.
func UnpackEntry(w uint64) TTEntry {
	return TTEntry{
		Key:     uint16(w >> keyShift),
		Move:    PackedMove(w >> moveShift),
		Score:   int16(uint16(w >> scoreShift)),
		Depth:   uint8(w >> depthShift),
		AgeFlag: AgeFlag(w >> ageFlagShift),
	}
}

// Quality is the replacement priority: newer and deeper entries win.
func (e TTEntry) Quality() int {
	return int(e.AgeFlag.Age())*2 + int(e.Depth)
}

// Matches reports whether the entry's key fragment matches hash. Probe never
// checks this itself; a match may still be a collision.
func (e TTEntry) Matches(hash uint64) bool {
	return e.Key == uint16(hash)
}

// BestMove returns the stored move, or false if none was recorded.
func (e TTEntry) BestMove() (board.Move, bool) {
	return e.Move.Move()
}

// ScoreAt returns the stored score relative to the root for a node at ply.
func (e TTEntry) ScoreAt(ply int) int {
	return ScoreFromTT(int(e.Score), ply)
}

// Flag returns the bound type of the entry.
func (e TTEntry) Flag() TTFlag {
	return e.AgeFlag.Flag()
}

// Age returns the generation the entry was written in.
func (e TTEntry) Age() uint8 {
	return e.AgeFlag.Age()
}
