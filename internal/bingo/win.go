package bingo

import (
	"fmt"

	"github.com/samber/lo"

	"dailybingo/internal/types"
)

// Board geometry.
const (
	Size      = 5
	CardCount = Size * Size
)

// LineKind identifies the orientation of a winning line.
type LineKind string

const (
	LineRow      LineKind = "row"
	LineColumn   LineKind = "column"
	LineDiagonal LineKind = "diagonal"
	LineAntiDiag LineKind = "anti-diagonal"
)

// Line is a set of five board indices that wins when fully selected.
type Line struct {
	Kind    LineKind `json:"kind"`
	Index   int      `json:"index"`
	Indices []int    `json:"indices"`
}

func (l Line) String() string {
	return fmt.Sprintf("%s %d", l.Kind, l.Index)
}

var lines = buildLines()

// buildLines enumerates the 12 lines of a row-major Size×Size board.
func buildLines() []Line {
	out := make([]Line, 0, 2*Size+2)
	for r := range Size {
		out = append(out, Line{Kind: LineRow, Index: r, Indices: lo.Times(Size, func(c int) int {
			return r*Size + c
		})})
	}
	for c := range Size {
		out = append(out, Line{Kind: LineColumn, Index: c, Indices: lo.Times(Size, func(r int) int {
			return r*Size + c
		})})
	}
	out = append(out,
		Line{Kind: LineDiagonal, Indices: lo.Times(Size, func(i int) int { return i*Size + i })},
		Line{Kind: LineAntiDiag, Indices: lo.Times(Size, func(i int) int { return i*Size + (Size - 1 - i) })},
	)
	return out
}

// IsBingo reports whether any row, column or diagonal is fully selected.
// Anything other than a complete board is never a bingo.
func IsBingo(cards []types.Card) bool {
	if len(cards) != CardCount {
		return false
	}
	return lo.SomeBy(lines, func(l Line) bool { return complete(cards, l) })
}

// WinningLines returns every fully selected line, in row, column, diagonal order.
func WinningLines(cards []types.Card) []Line {
	if len(cards) != CardCount {
		return nil
	}
	return lo.Filter(lines, func(l Line, _ int) bool { return complete(cards, l) })
}

func complete(cards []types.Card, l Line) bool {
	return lo.EveryBy(l.Indices, func(i int) bool { return cards[i].Selected })
}
