package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"dailybingo/internal/store"
)

// setupTestRouter creates a test router with all routes
func setupTestRouter(app *App) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return app.setupRouter()
}

func doRequest(router *gin.Engine, method, path string, cookie *http.Cookie, htmx bool) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("response did not set a session cookie")
	return nil
}

// TestHomeHandler checks the page renders a full board and issues a session
func TestHomeHandler(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)

	w := doRequest(router, "GET", "/", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("GET / returned status %d, want 200", w.Code)
	}
	cookie := sessionCookie(t, w)
	if err := store.ValidateSessionID(cookie.Value); err != nil {
		t.Errorf("session cookie %q is not a UUID", cookie.Value)
	}
	if n := strings.Count(w.Body.String(), `aria-label="Card `); n != 25 {
		t.Errorf("GET / rendered %d cards, want 25", n)
	}
	if !strings.Contains(w.Body.String(), "2024-06-15") {
		t.Error("GET / does not show the day key")
	}
}

// TestHomeHandler_SameBoardOnReload checks a returning session keeps its card
func TestHomeHandler_SameBoardOnReload(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)

	first := doRequest(router, "GET", "/", nil, false)
	cookie := sessionCookie(t, first)
	second := doRequest(router, "GET", "/", cookie, false)
	if first.Body.String() != second.Body.String() {
		t.Error("reload rendered a different board")
	}
	if len(second.Result().Cookies()) != 0 {
		t.Error("reload issued a new session cookie")
	}
}

// TestToggleHandler_NotifiesOnce walks the one-shot win notification over HTTP
func TestToggleHandler_NotifiesOnce(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)
	cookie := sessionCookie(t, doRequest(router, "GET", "/", nil, false))

	toggle := func(i int) string {
		t.Helper()
		w := doRequest(router, "POST", "/toggle/"+strconv.Itoa(i), cookie, true)
		if w.Code != http.StatusOK {
			t.Fatalf("POST /toggle/%d returned status %d", i, w.Code)
		}
		return w.Header().Get("HX-Trigger")
	}

	for i := range 4 {
		if trig := toggle(i); trig != "" {
			t.Errorf("toggle %d triggered %q before the row was complete", i, trig)
		}
	}
	trig := toggle(4)
	var payload map[string]string
	if err := json.Unmarshal([]byte(trig), &payload); err != nil || payload[EventBingo] != WinMessage {
		t.Fatalf("completing row 0 triggered %q, want bingo event", trig)
	}
	if trig := toggle(12); trig != "" {
		t.Errorf("unrelated toggle while won triggered %q", trig)
	}
	if trig := toggle(4); trig != "" {
		t.Errorf("breaking the row triggered %q", trig)
	}
	if trig := toggle(4); trig == "" {
		t.Error("re-completing the row did not trigger")
	}
}

// TestToggleHandler_Fragment checks htmx requests get the grid fragment
func TestToggleHandler_Fragment(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)
	cookie := sessionCookie(t, doRequest(router, "GET", "/", nil, false))

	w := doRequest(router, "POST", "/toggle/6", cookie, true)
	body := w.Body.String()
	if !strings.Contains(body, `id="grid"`) || strings.Contains(body, "<html") {
		t.Errorf("htmx toggle did not return a bare grid fragment: %s", body)
	}
	if strings.Count(body, "card selected") != 1 {
		t.Errorf("fragment shows %d selected cards, want 1", strings.Count(body, "card selected"))
	}
}

// TestToggleHandler_InvalidIndex checks out-of-range and non-numeric indices
func TestToggleHandler_InvalidIndex(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)
	for _, idx := range []string{"abc", "25", "-1", "1e2"} {
		w := doRequest(router, "POST", "/toggle/"+idx, nil, true)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST /toggle/%s returned status %d, want 400", idx, w.Code)
		}
	}
}

// TestToggleHandler_PlainForm checks non-htmx posts redirect, flagging a fresh win
func TestToggleHandler_PlainForm(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)
	cookie := sessionCookie(t, doRequest(router, "GET", "/", nil, false))

	var w *httptest.ResponseRecorder
	for _, i := range []int{0, 6, 12, 18} {
		w = doRequest(router, "POST", "/toggle/"+strconv.Itoa(i), cookie, false)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != RouteHome {
			t.Fatalf("POST /toggle/%d = %d %q, want 303 to /", i, w.Code, w.Header().Get("Location"))
		}
	}
	w = doRequest(router, "POST", "/toggle/24", cookie, false)
	if loc := w.Header().Get("Location"); loc != "/?bingo=1" {
		t.Fatalf("winning toggle redirected to %q, want /?bingo=1", loc)
	}

	page := doRequest(router, "GET", "/?bingo=1", cookie, false)
	if !strings.Contains(page.Body.String(), `data-bingo="BINGO!"`) {
		t.Error("page after a win does not carry the notification")
	}
	if plain := doRequest(router, "GET", "/", cookie, false); strings.Contains(plain.Body.String(), "data-bingo") {
		t.Error("page without the win flag carries the notification")
	}
}

// TestStateHandler checks the JSON view of a board
func TestStateHandler(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)
	cookie := sessionCookie(t, doRequest(router, "GET", "/", nil, false))
	for _, i := range []int{2, 7, 12, 17, 22} {
		doRequest(router, "POST", "/toggle/"+strconv.Itoa(i), cookie, true)
	}

	w := doRequest(router, "GET", "/state", cookie, false)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /state returned status %d", w.Code)
	}
	var resp struct {
		Date    string `json:"date"`
		Phrases []struct {
			Text     string `json:"text"`
			Selected bool   `json:"selected"`
		} `json:"phrases"`
		WasBingo bool `json:"wasBingo"`
		Bingo    bool `json:"bingo"`
		Lines    []struct {
			Kind  string `json:"kind"`
			Index int    `json:"index"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal /state response: %v", err)
	}
	if resp.Date != "2024-06-15" || len(resp.Phrases) != 25 {
		t.Errorf("/state = %+v", resp)
	}
	if !resp.Bingo || !resp.WasBingo {
		t.Errorf("/state bingo=%v wasBingo=%v, want true true", resp.Bingo, resp.WasBingo)
	}
	if len(resp.Lines) != 1 || resp.Lines[0].Kind != "column" || resp.Lines[0].Index != 2 {
		t.Errorf("/state lines = %+v, want column 2", resp.Lines)
	}
}

// TestStateHandler_EmptyLines checks lines is an empty array, not null
func TestStateHandler_EmptyLines(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)
	w := doRequest(router, "GET", "/state", nil, false)
	if !strings.Contains(w.Body.String(), `"lines":[]`) {
		t.Errorf("/state without a win = %s, want empty lines array", w.Body.String())
	}
}

// TestHealthzHandler checks the health endpoint fields
func TestHealthzHandler(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)

	w := doRequest(router, "GET", "/healthz", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz returned status %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal /healthz response: %v", err)
	}
	if resp["phrases_loaded"] != float64(30) {
		t.Errorf("phrases_loaded = %v, want 30", resp["phrases_loaded"])
	}
	if resp["day_key"] != "2024-06-15" {
		t.Errorf("day_key = %v, want 2024-06-15", resp["day_key"])
	}
	if resp["reset_hour_utc"] != float64(5) {
		t.Errorf("reset_hour_utc = %v, want 5", resp["reset_hour_utc"])
	}
	if resp["env"] != "development" {
		t.Errorf("env = %v, want development", resp["env"])
	}
}

// TestRateLimitMiddleware checks toggles beyond the burst are rejected
func TestRateLimitMiddleware(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.RateLimitRPS = 1
	app.RateLimitBurst = 1
	router := setupTestRouter(app)
	cookie := sessionCookie(t, doRequest(router, "GET", "/", nil, false))

	if w := doRequest(router, "POST", "/toggle/0", cookie, true); w.Code != http.StatusOK {
		t.Fatalf("first toggle returned status %d", w.Code)
	}
	w := doRequest(router, "POST", "/toggle/1", cookie, true)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second toggle returned status %d, want 429", w.Code)
	}
	if w.Header().Get("HX-Trigger") != EventRateLimit {
		t.Errorf("HX-Trigger = %q, want %q", w.Header().Get("HX-Trigger"), EventRateLimit)
	}
}

// TestMiddlewareHeaders checks request IDs and cache headers
func TestMiddlewareHeaders(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)

	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	w = doRequest(router, "GET", "/healthz", nil, false)
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("missing generated X-Request-Id")
	}

	for _, bad := range []string{strings.Repeat("a", 65), "id with spaces", "<script>"} {
		req, _ := http.NewRequest("GET", "/healthz", nil)
		req.Header.Set("X-Request-Id", bad)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get("X-Request-Id"); got == bad || store.ValidateSessionID(got) != nil {
			t.Errorf("X-Request-Id %q echoed as %q, want a generated UUID", bad, got)
		}
	}
}

// TestHandlers_StoreLoadFailure checks a failing store yields 500 instead of a new card
func TestHandlers_StoreLoadFailure(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := setupTestRouter(app)
	cookie := sessionCookie(t, doRequest(router, "GET", "/", nil, false))
	doRequest(router, "POST", "/toggle/3", cookie, true)

	failing := &failingLoadStore{Store: app.Store, err: errors.New("i/o timeout")}
	app.Store = failing
	app.Sessions = make(map[string]*sessionEntry)

	if w := doRequest(router, "GET", "/", cookie, false); w.Code != http.StatusInternalServerError {
		t.Errorf("GET / with a failing store returned status %d, want 500", w.Code)
	}
	if w := doRequest(router, "POST", "/toggle/4", cookie, true); w.Code != http.StatusInternalServerError {
		t.Errorf("POST /toggle/4 with a failing store returned status %d, want 500", w.Code)
	}
	if failing.saves != 0 {
		t.Errorf("store was written %d times after a failed load", failing.saves)
	}
}
