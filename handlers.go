package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"dailybingo/internal/bingo"
	"dailybingo/internal/types"
)

// boardView is the template and JSON view of a board.
type boardView struct {
	Date      string       `json:"date"`
	Phrases   []types.Card `json:"phrases"`
	WasBingo  bool         `json:"wasBingo"`
	Bingo     bool         `json:"bingo"`
	Lines     []bingo.Line `json:"lines"`
	Winning   map[int]bool `json:"-"`
	NextReset time.Time    `json:"nextReset"`
}

func (app *App) newBoardView(state bingo.State) boardView {
	lines := bingo.WinningLines(state.Cards)
	winning := lo.SliceToMap(lo.FlatMap(lines, func(l bingo.Line, _ int) []int {
		return l.Indices
	}), func(i int) (int, bool) { return i, true })
	return boardView{
		Date:      state.DayKey,
		Phrases:   state.Cards,
		WasBingo:  state.WasBingo,
		Bingo:     len(lines) > 0,
		Lines:     lo.Ternary(lines == nil, []bingo.Line{}, lines),
		Winning:   winning,
		NextReset: bingo.NextReset(app.Now(), app.Controller.BoundaryHour()),
	}
}

// homeHandler renders the full page for the current session's board.
func (app *App) homeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)
	state, err := app.currentBoard(ctx, sessionID)
	if err != nil {
		c.String(http.StatusInternalServerError, ErrorBoardUnavailable)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":  "Daily Bingo",
		"board":  app.newBoardView(state),
		"notify": c.Query(EventBingo) == "1" && state.WasBingo,
		"win":    WinMessage,
	})
}

// toggleHandler flips one card. htmx requests get the grid fragment back and
// an HX-Trigger on a fresh win; plain form posts are redirected home.
func (app *App) toggleHandler(c *gin.Context) {
	ctx := c.Request.Context()
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || !bingo.ValidIndex(index) {
		logWarn("%sRejected toggle with index %q", reqPrefix(ctx), c.Param("index"))
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorInvalidIndex})
		return
	}

	sessionID := app.getOrCreateSession(c)
	state, notify, err := app.toggleCard(ctx, sessionID, index)
	if err != nil {
		c.String(http.StatusInternalServerError, ErrorBoardUnavailable)
		return
	}

	if c.GetHeader("HX-Request") != "true" {
		target := RouteHome
		if notify {
			target += "?" + EventBingo + "=1"
		}
		c.Redirect(http.StatusSeeOther, target)
		return
	}

	if notify {
		if b, jerr := json.Marshal(map[string]string{EventBingo: WinMessage}); jerr == nil {
			c.Header("HX-Trigger", string(b))
		} else {
			logWarn("Failed to marshal HX-Trigger payload: %v", jerr)
		}
	}
	c.HTML(http.StatusOK, "grid", gin.H{"board": app.newBoardView(state)})
}

// stateHandler returns the session's board as JSON.
func (app *App) stateHandler(c *gin.Context) {
	sessionID := app.getOrCreateSession(c)
	state, err := app.currentBoard(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrorBoardUnavailable})
		return
	}
	c.JSON(http.StatusOK, app.newBoardView(state))
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	now := app.Now()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"env":            lo.Ternary(app.IsProduction, "production", "development"),
		"phrases_loaded": app.PhraseCount,
		"reset_hour_utc": app.Controller.BoundaryHour(),
		"day_key":        app.Controller.DayKey(now),
		"uptime":         formatUptime(time.Since(app.StartTime)),
		"timestamp":      now.UTC().Format(time.RFC3339),
	})
}
