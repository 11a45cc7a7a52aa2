package main

import (
	"context"

	"dailybingo/internal/bingo"
)

// acquire returns the session's entry with its mu held. Every acquire is
// paired with a release.
func (app *App) acquire(sessionID string) *sessionEntry {
	app.SessionMutex.Lock()
	e, ok := app.Sessions[sessionID]
	if !ok {
		e = &sessionEntry{}
		app.Sessions[sessionID] = e
	}
	e.refs++
	e.lastSeen = app.Now()
	app.SessionMutex.Unlock()

	e.mu.Lock()
	return e
}

func (app *App) release(e *sessionEntry) {
	e.mu.Unlock()
	app.SessionMutex.Lock()
	e.refs--
	app.SessionMutex.Unlock()
}

// currentBoard returns the session's board for the current game day,
// rehydrating it from the store or dealing a new one as needed.
func (app *App) currentBoard(ctx context.Context, sessionID string) (bingo.State, error) {
	e := app.acquire(sessionID)
	defer app.release(e)
	return app.boardLocked(ctx, sessionID, e)
}

// toggleCard flips one card and reports whether the change completed a bingo.
// The caller validates index with bingo.ValidIndex.
func (app *App) toggleCard(ctx context.Context, sessionID string, index int) (bingo.State, bool, error) {
	e := app.acquire(sessionID)
	defer app.release(e)

	state, err := app.boardLocked(ctx, sessionID, e)
	if err != nil {
		return bingo.State{}, false, err
	}
	next, notify := bingo.AfterChange(bingo.Toggle(state, index))
	if err := app.persist(ctx, sessionID, next); err != nil && !app.CacheBoards {
		// Nothing in memory would remember the toggle.
		return bingo.State{}, false, err
	}
	app.remember(e, next)

	logInfo("%sSession %s toggled card %d (selected=%v)", reqPrefix(ctx), sessionID, index, next.Cards[index].Selected)
	if notify {
		logInfo("%sSession %s completed a line: %v", reqPrefix(ctx), sessionID, bingo.WinningLines(next.Cards))
	}
	return next.Clone(), notify, nil
}

// boardLocked must be called with e.mu held. A store failure other than a
// missing or unusable snapshot is returned and nothing is dealt or saved.
func (app *App) boardLocked(ctx context.Context, sessionID string, e *sessionEntry) (bingo.State, error) {
	persisted := e.state
	if persisted == nil {
		var err error
		if persisted, err = app.loadPersisted(ctx, sessionID); err != nil {
			return bingo.State{}, err
		}
	}

	state, dealt, err := app.Controller.Initialize(persisted, app.Now())
	if err != nil {
		logError("%sFailed to deal card for session %s: %v", reqPrefix(ctx), sessionID, err)
		return bingo.State{}, err
	}
	if dealt {
		logInfo("%sDealt new card for session %s (day %s)", reqPrefix(ctx), sessionID, state.DayKey)
		_ = app.persist(ctx, sessionID, state)
	}
	app.remember(e, state)
	return state.Clone(), nil
}

// remember caches state on the entry when boards are cached. e.mu must be held.
func (app *App) remember(e *sessionEntry, state bingo.State) {
	if app.CacheBoards {
		e.state = &state
	}
}
