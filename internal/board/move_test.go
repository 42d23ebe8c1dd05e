package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveString(t *testing.T) {
	tests := []struct {
		move Move
		want string
	}{
		{NewMove(E2, E4), "e2e4"},
		{NewMove(A1, A2), "a1a2"},
		{NewPromotion(E7, E8, Queen), "e7e8q"},
		{NewPromotion(B2, A1, Knight), "b2a1n"},
		{NoMove, "0000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.move.String())
	}
}

func TestMoveIsValid(t *testing.T) {
	assert.True(t, NewMove(A1, H8).IsValid())
	assert.True(t, NewPromotion(A7, A8, Rook).IsValid())
	assert.False(t, NoMove.IsValid())
	assert.False(t, NewPromotion(A7, A8, King).IsValid())
	assert.False(t, NewMove(A1, NoSquare).IsValid())
}

func TestSquare(t *testing.T) {
	assert.Equal(t, 4, E4.File())
	assert.Equal(t, 3, E4.Rank())
	assert.Equal(t, "e4", E4.String())
	assert.Equal(t, "h8", H8.String())
	assert.Equal(t, "-", NoSquare.String())
	assert.False(t, NoSquare.IsValid())
}
