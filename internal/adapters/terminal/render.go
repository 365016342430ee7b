package terminal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"

	service "github.com/okian/motionparty/internal/app"
	"github.com/okian/motionparty/internal/domain/pose"
)

var (
	styleBase   = tcell.StyleDefault
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorGold).Bold(true)
	styleHint   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleGood   = tcell.StyleDefault.Foreground(tcell.ColorLime)
	styleBad    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleHand   = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleAnchor = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// Renderer draws a service.View onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
}

// NewRenderer draws onto s.
func NewRenderer(s tcell.Screen) *Renderer {
	return &Renderer{screen: s}
}

// Draw replaces the screen contents with v.
func (r *Renderer) Draw(v service.View) { //nolint:gocritic // hugeParam: views are values
	r.screen.Clear()
	r.header(v)

	switch v.State {
	case "menu", "select":
		r.menu(v)
	case "countdown":
		r.center(r.rows()/2, fmt.Sprintf("%d", v.Countdown), styleTitle)
		r.center(r.rows()/2+2, "Get ready!", styleHint)
	case "playing":
		if v.Mode == "dance" {
			r.dance(v)
		} else {
			r.targets(v)
		}
		r.hands(v)
	case "results":
		r.results(v)
	}
	r.screen.Show()
}

func (r *Renderer) cols() int { c, _ := r.screen.Size(); return c }
func (r *Renderer) rows() int { _, rows := r.screen.Size(); return rows }

// cell maps playfield pixels to a screen cell, clamped to the screen.
func (r *Renderer) cell(v service.View, x, y float64) (int, int) { //nolint:gocritic // hugeParam: views are values
	cols, rows := r.screen.Size()
	if v.Width <= 0 || v.Height <= 0 {
		return 0, 0
	}
	col := int(x / float64(v.Width) * float64(cols))
	row := int(y / float64(v.Height) * float64(rows))
	return min(max(col, 0), cols-1), min(max(row, 0), rows-1)
}

func (r *Renderer) text(col, row int, s string, style tcell.Style) {
	for i, ch := range s {
		r.screen.SetContent(col+i, row, ch, nil, style)
	}
}

func (r *Renderer) center(row int, s string, style tcell.Style) {
	r.text((r.cols()-len(s))/2, row, s, style)
}

func (r *Renderer) header(v service.View) { //nolint:gocritic // hugeParam: views are values
	title := v.Mode
	switch {
	case v.Theme != "":
		title += " / " + v.Theme
	case v.Sequence != "":
		title += " / " + v.Sequence
	}
	line := fmt.Sprintf("%s  score %d  best %d", title, v.Score.Points, v.HighScore)
	if v.Mode == "dance" {
		line = fmt.Sprintf("%s  moves %d  streak %d  best %d", title, v.Score.Completed, v.Score.Streak, v.HighScore)
	}
	if v.State == "playing" && v.Mode == "popper" {
		line += fmt.Sprintf("  time %d", int(v.TimeRemaining+0.999))
	}
	r.text(0, 0, line, styleTitle)
	if !v.PoseAvailable {
		r.text(r.cols()-12, 0, "no tracking", styleBad)
	}
}

func (r *Renderer) menu(v service.View) { //nolint:gocritic // hugeParam: views are values
	mid := r.rows() / 2
	r.center(mid-2, "MOTION PARTY", styleTitle)
	r.center(mid, "mode: "+v.Mode, styleBase)
	r.center(mid+2, "SPACE start   p popper   d dance   n next   q quit", styleHint)
}

func (r *Renderer) targets(v service.View) { //nolint:gocritic // hugeParam: views are values
	for _, t := range v.Targets {
		col, row := r.cell(v, t.X, t.Y)
		glyph := 'o'
		if t.Glyph != "" {
			glyph = []rune(t.Glyph)[0]
		}
		style := styleBase
		if t.Color != "" {
			style = style.Foreground(tcell.GetColor(t.Color))
		}
		if t.Popped {
			glyph = '*'
			if t.Fade > 0.5 {
				glyph = '.'
			}
		} else if t.Life < 0.3 {
			style = style.Dim(true)
		}
		r.screen.SetContent(col, row, glyph, nil, style)
	}
}

func (r *Renderer) dance(v service.View) { //nolint:gocritic // hugeParam: views are values
	for _, a := range v.Anchors {
		col, row := r.cell(v, a.X, a.Y)
		glyph, style := '+', styleAnchor
		if a.Hit {
			glyph, style = '@', styleGood
		}
		r.screen.SetContent(col, row, glyph, nil, style)
	}
	if v.Move == nil {
		return
	}
	rows := r.rows()
	status := fmt.Sprintf("%s (%d/%d, loop %d/%d)  %.1fs", v.Move.Name, v.Move.Index+1, v.Move.Count, v.Move.Loop+1, v.Move.Loops, v.Move.TimeRemaining)
	r.text(0, rows-2, status, styleBase)
	desc, style := v.Move.Description, styleHint
	if v.Move.Celebrating {
		desc, style = "Great!", styleGood
	}
	r.text(0, rows-1, desc, style)
}

func (r *Renderer) hands(v service.View) { //nolint:gocritic // hugeParam: views are values
	for _, h := range v.Hands {
		if !h.Tracked {
			continue
		}
		col, row := r.cell(v, h.X, h.Y)
		glyph := 'R'
		if h.Side == pose.Left {
			glyph = 'L'
		}
		r.screen.SetContent(col, row, glyph, nil, styleHand)
	}
}

func (r *Renderer) results(v service.View) { //nolint:gocritic // hugeParam: views are values
	row := 3
	if v.NewHighScore {
		r.center(row, "NEW HIGH SCORE!", styleTitle)
	} else if v.Mode == "dance" {
		r.center(row, "Dance Complete!", styleTitle)
	} else {
		r.center(row, "Time's Up!", styleBad)
	}
	row += 2
	r.center(row, fmt.Sprintf("Score %d", v.FinalScore), styleBase)
	row += 2

	if v.Mode == "dance" {
		lines := []string{
			fmt.Sprintf("Moves completed  %d", v.Score.Completed),
			fmt.Sprintf("Moves missed     %d", v.Score.Missed),
			fmt.Sprintf("Best streak      %d", v.Score.BestStreak),
			fmt.Sprintf("Accuracy         %.0f%%", v.Score.Accuracy()),
		}
		for _, l := range lines {
			r.center(row, l, styleBase)
			row++
		}
	} else {
		cats := make([]string, 0, len(v.Score.ByCategory))
		for c := range v.Score.ByCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			r.center(row, fmt.Sprintf("%-10s x %d", strings.ToUpper(c[:1])+c[1:], v.Score.ByCategory[c]), styleBase)
			row++
		}
	}
	r.center(r.rows()-2, "SPACE play again   r menu   q quit", styleHint)
}
