package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_HomeExit(t *testing.T) {
	home := Piece{ID: 4, Color: ColorGreen, State: PieceHome, Position: -1}

	out := Advance(home, 6)
	require.Equal(t, PieceActive, out.State)
	require.Equal(t, 1, out.Position, "green exits to its start square")

	for dice := 1; dice <= 5; dice++ {
		assert.Equal(t, home, Advance(home, dice), "dice=%d must not leave home", dice)
	}
}

func TestAdvance_ZeroIsIdentity(t *testing.T) {
	cases := []Piece{
		{ID: 0, Color: ColorRed, State: PieceHome, Position: -1},
		{ID: 1, Color: ColorRed, State: PieceActive, Position: 20},
		{ID: 2, Color: ColorRed, State: PieceActive, Position: FinishStart + 2},
		{ID: 3, Color: ColorRed, State: PieceFinished, Position: FinishStart + 5},
	}
	for _, p := range cases {
		assert.Equal(t, p, Advance(p, 0))
	}
}

func TestAdvance_LoopWrapAtSquare52(t *testing.T) {
	p := Piece{ID: 0, Color: ColorRed, State: PieceActive, Position: 51}

	assert.Equal(t, 52, Advance(p, 1).Position)
	assert.Equal(t, 1, Advance(p, 2).Position, "square 1 follows square 52")
	assert.Equal(t, 3, Advance(p, 4).Position)
}

func TestAdvance_EntersHomeStretch(t *testing.T) {
	// green's pre-home square is 51
	p := Piece{ID: 4, Color: ColorGreen, State: PieceActive, Position: 50}

	out := Advance(p, 3)
	require.Equal(t, PieceActive, out.State)
	assert.Equal(t, FinishStart+1, out.Position)

	// entering exactly on the finish square finishes immediately
	atPreHome := Piece{ID: 5, Color: ColorGreen, State: PieceActive, Position: 51}
	out = Advance(atPreHome, 6)
	assert.Equal(t, PieceFinished, out.State)
	assert.Equal(t, FinishStart+5, out.Position)
}

func TestAdvance_WithinStretchAndFinish(t *testing.T) {
	p := Piece{ID: 4, Color: ColorGreen, State: PieceActive, Position: FinishStart + 4}

	out := Advance(p, 1)
	require.Equal(t, PieceFinished, out.State)
	assert.Equal(t, FinishStart+5, out.Position)

	// overshoot is illegal
	assert.Equal(t, p, Advance(p, 2))
	assert.Equal(t, p, Advance(p, 6))
}

func TestAdvance_StretchEntryFromPreHomeSquare(t *testing.T) {
	// red's pre-home square is 12; from 12 a 6 lands exactly on the finish...
	p := Piece{ID: 0, Color: ColorRed, State: PieceActive, Position: 12}
	out := Advance(p, 6)
	assert.Equal(t, FinishStart+5, out.Position, "from the pre-home square a 6 reaches the finish")
	assert.Equal(t, PieceFinished, out.State)

	// ...but from square 11 a 6 only reaches stretch index 4
	p.Position = 11
	out = Advance(p, 6)
	assert.Equal(t, FinishStart+4, out.Position)
	assert.Equal(t, PieceActive, out.State)
}

func TestAdvance_FinishedIsTerminal(t *testing.T) {
	p := Piece{ID: 0, Color: ColorRed, State: PieceFinished, Position: FinishStart + 5}
	for dice := 1; dice <= 6; dice++ {
		assert.Equal(t, p, Advance(p, dice))
	}
}

func TestAdvance_RedCrossesLoopSeam(t *testing.T) {
	// red passes its own pre-home square only after a full lap; from 10 with
	// a 4 it should enter the stretch (dist to pre-home 12 is 2)
	p := Piece{ID: 0, Color: ColorRed, State: PieceActive, Position: 10}
	out := Advance(p, 4)
	assert.Equal(t, FinishStart+1, out.Position)
}
