package engine

// Board geometry. The shared loop is 52 squares numbered 1..52 with square 1
// following square 52. Each color owns a private 6-square home stretch
// encoded as FinishStart+k for k in 0..5; k==5 is the finish square.
const (
	LoopSize    = 52
	StretchLen  = 6
	FinishStart = 100
)

type Color string

const (
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
)

// colorOrder is the canonical seat->color assignment by join order.
var colorOrder = []Color{ColorRed, ColorGreen, ColorYellow, ColorBlue}

// startSquare is where a piece lands when it leaves home on a 6.
var startSquare = map[Color]int{
	ColorGreen:  1,
	ColorRed:    14,
	ColorBlue:   27,
	ColorYellow: 40,
}

// preHomeSquare is the last loop square a color visits before its stretch.
var preHomeSquare = map[Color]int{
	ColorGreen:  51,
	ColorRed:    12,
	ColorBlue:   25,
	ColorYellow: 38,
}

// safeSquares cannot be captured on.
var safeSquares = map[int]bool{
	1: true, 9: true, 14: true, 22: true,
	27: true, 35: true, 40: true, 48: true,
}

type PieceState string

const (
	PieceHome     PieceState = "home"
	PieceActive   PieceState = "active"
	PieceFinished PieceState = "finished"
)

type Piece struct {
	ID       int        `json:"id"`
	Color    Color      `json:"color"`
	State    PieceState `json:"state"`
	Position int        `json:"position"` // -1 when home, 1..52 on the loop, >=FinishStart in the stretch
}

// Advance computes where p ends up after playing dice. An illegal move
// returns p unchanged; callers treat an unchanged piece as not movable.
func Advance(p Piece, dice int) Piece {
	switch p.State {
	case PieceFinished:
		return p
	case PieceHome:
		if dice != 6 {
			return p
		}
		p.State = PieceActive
		p.Position = startSquare[p.Color]
		return p
	}

	if p.Position >= FinishStart {
		k := p.Position - FinishStart + dice
		if k >= StretchLen {
			// overshooting the finish square is illegal
			return p
		}
		p.Position = FinishStart + k
		if k == StretchLen-1 {
			p.State = PieceFinished
		}
		return p
	}

	distToPreHome := (preHomeSquare[p.Color] - p.Position + LoopSize) % LoopSize
	if dice > distToPreHome {
		k := dice - distToPreHome - 1
		if k >= StretchLen {
			return p
		}
		p.Position = FinishStart + k
		if k == StretchLen-1 {
			p.State = PieceFinished
		}
		return p
	}

	p.Position = (p.Position-1+dice)%LoopSize + 1
	return p
}

// IsSafeSquare reports whether a loop square is capture-proof.
func IsSafeSquare(sq int) bool { return safeSquares[sq] }
