// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/galaktika-app/galaktika/internal/events"
	"github.com/galaktika-app/galaktika/internal/graph"
	"github.com/galaktika-app/galaktika/internal/metadata"
	"github.com/galaktika-app/galaktika/internal/metrics"
	"github.com/galaktika-app/galaktika/internal/models"
)

const testSecret = "test-secret"

// capturePublisher records published events without running a router.
type capturePublisher struct {
	events  []events.BookAddedEvent
	running chan struct{}
}

func newCapturePublisher() *capturePublisher {
	ch := make(chan struct{})
	close(ch)
	return &capturePublisher{running: ch}
}

func (p *capturePublisher) PublishBookAdded(_ context.Context, e events.BookAddedEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Running() chan struct{} { return p.running }

// fakeEnricher serves canned metadata records.
type fakeEnricher struct {
	record *metadata.BookRecord
	err    error
}

func (f *fakeEnricher) Enrich(_ context.Context, _ string) (*metadata.BookRecord, error) {
	return f.record, f.err
}

type testServer struct {
	srv       *httptest.Server
	store     graph.Store
	publisher *capturePublisher
	handler   *Handler
}

func newTestServer(t *testing.T, enricher Enricher, gateOpts GateOptions) *testServer {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := graph.NewBadgerStore(db)
	publisher := newCapturePublisher()
	handler := NewHandler(store, publisher, enricher, gateOpts)
	auth := NewAuthenticator(true, testSecret)
	srv := httptest.NewServer(Setup(handler, auth, RouterConfig{}))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: store, publisher: publisher, handler: handler}
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("Authorization", bearerToken(t, userID))
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) models.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var env models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp := ts.do(t, http.MethodGet, "/api/v1/galaxy", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != models.ErrCodeUnauthorized {
		t.Errorf("error = %+v, want code %s", env.Error, models.ErrCodeUnauthorized)
	}
}

func TestAuthRejectsWrongSignature(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "reader-1"})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/galaxy", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateCategoryAndGetGalaxy(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/categories", "reader-1", map[string]interface{}{
		"name": "Sci-Fi", "x": 0.2, "y": 0.8,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/v1/galaxy", "reader-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get galaxy status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]interface{})
	galaxy := data["galaxy"].(map[string]interface{})
	cats := galaxy["categories"].([]interface{})
	if len(cats) != 1 {
		t.Fatalf("categories = %d, want 1", len(cats))
	}
	rankData := data["rank"].(map[string]interface{})
	if rankData["name"] != "Novice" {
		t.Errorf("rank name = %v, want Novice", rankData["name"])
	}
}

func TestGalaxyIsolatedPerUser(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/categories", "reader-1", map[string]interface{}{"name": "History"})
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/v1/galaxy", "reader-2", nil)
	env := decodeEnvelope(t, resp)
	galaxy := env.Data.(map[string]interface{})["galaxy"].(map[string]interface{})
	if cats := galaxy["categories"].([]interface{}); len(cats) != 0 {
		t.Errorf("reader-2 sees %d categories, want 0", len(cats))
	}
}

func TestAddBookPublishesEvent(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/categories", "reader-1", map[string]interface{}{"name": "Sci-Fi"})
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/v1/galaxy/categories/Sci-Fi/books", "reader-1", map[string]interface{}{
		"title": "Dune",
		"tags":  []string{"Ecology"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add book status = %d, want 201", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]interface{})
	if total := data["total_books"].(float64); total != 1 {
		t.Errorf("total_books = %v, want 1", total)
	}

	if len(ts.publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(ts.publisher.events))
	}
	e := ts.publisher.events[0]
	if e.UserID != "reader-1" || e.Category != "Sci-Fi" || e.BookTitle != "Dune" {
		t.Errorf("event = %+v", e)
	}
	if len(e.CategoryTags) != 1 || e.CategoryTags[0] != "Ecology" {
		t.Errorf("event tags = %v, want [Ecology]", e.CategoryTags)
	}
}

func TestAddBookUnknownCategory(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/categories/Nope/books", "reader-1", map[string]interface{}{"title": "Dune"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
	if len(ts.publisher.events) != 0 {
		t.Errorf("no event should be published on failure, got %d", len(ts.publisher.events))
	}
}

func TestAddBookValidation(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/categories/Sci-Fi/books", "reader-1", map[string]interface{}{"title": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateBridgeRejectsDuplicatePair(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})
	ctx := context.Background()

	for _, name := range []string{"Sci-Fi", "Ecology"} {
		if err := ts.store.CreateCategory(ctx, "reader-1", models.Category{Name: name}); err != nil {
			t.Fatalf("seed category: %v", err)
		}
	}

	body := map[string]interface{}{
		"from_category":    "Sci-Fi",
		"to_category":      "Ecology",
		"recommended_book": "The Word for World is Forest",
	}
	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/bridges", "reader-1", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first bridge status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	// Reversed order hits the same unordered pair.
	reversed := map[string]interface{}{"from_category": "Ecology", "to_category": "Sci-Fi"}
	resp = ts.do(t, http.MethodPost, "/api/v1/galaxy/bridges", "reader-1", reversed)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate bridge status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	// The accepted bridge appended a smart-link notification.
	resp = ts.do(t, http.MethodGet, "/api/v1/notifications", "reader-1", nil)
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]interface{})
	if unread := data["unread"].(float64); unread != 1 {
		t.Errorf("unread = %v, want 1", unread)
	}
}

func TestCreateBridgeSameEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	body := map[string]interface{}{"from_category": "Sci-Fi", "to_category": "Sci-Fi"}
	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/bridges", "reader-1", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFavoriteEnrichment(t *testing.T) {
	enricher := &fakeEnricher{record: &metadata.BookRecord{
		Title:   "Dune",
		Authors: []string{"Frank Herbert"},
		Image:   "https://covers.example.com/dune.jpg",
	}}
	ts := newTestServer(t, enricher, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/favorites", "reader-1", map[string]interface{}{"book_title": "Dune"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create favorite status = %d, want 201", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	fav := env.Data.(map[string]interface{})
	authors := fav["book_authors"].([]interface{})
	if len(authors) != 1 || authors[0] != "Frank Herbert" {
		t.Errorf("book_authors = %v, want [Frank Herbert]", authors)
	}
	if fav["book_image"] != "https://covers.example.com/dune.jpg" {
		t.Errorf("book_image = %v", fav["book_image"])
	}
}

func TestFavoriteEnrichmentDegrades(t *testing.T) {
	enricher := &fakeEnricher{err: metadata.ErrUnavailable}
	ts := newTestServer(t, enricher, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/favorites", "reader-1", map[string]interface{}{"book_title": "Dune"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create favorite status = %d, want 201 despite lookup failure", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	fav := env.Data.(map[string]interface{})
	if img, ok := fav["book_image"]; ok && img != "" {
		t.Errorf("book_image = %v, want empty on degraded enrichment", img)
	}
}

func TestFavoriteLifecycle(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp := ts.do(t, http.MethodPost, "/api/v1/favorites", "reader-1", map[string]interface{}{"book_title": "Dune"})
	resp.Body.Close()

	// Duplicate favorite conflicts.
	resp = ts.do(t, http.MethodPost, "/api/v1/favorites", "reader-1", map[string]interface{}{"book_title": "Dune"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate favorite status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/v1/favorites", "reader-1", nil)
	env := decodeEnvelope(t, resp)
	if favs := env.Data.([]interface{}); len(favs) != 1 {
		t.Errorf("favorites = %d, want 1", len(favs))
	}

	resp = ts.do(t, http.MethodDelete, "/api/v1/favorites/Dune", "reader-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete favorite status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/v1/favorites/Dune", "reader-1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete missing favorite status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRankEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})
	ctx := context.Background()

	if err := ts.store.CreateCategory(ctx, "reader-1", models.Category{Name: "Sci-Fi"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	for _, title := range []string{"Dune", "Foundation"} {
		if _, err := ts.store.AddBook(ctx, "reader-1", "Sci-Fi", title); err != nil {
			t.Fatalf("seed book: %v", err)
		}
	}

	resp := ts.do(t, http.MethodGet, "/api/v1/rank", "reader-1", nil)
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]interface{})
	if total := data["total_books"].(float64); total != 2 {
		t.Errorf("total_books = %v, want 2", total)
	}
	rankData := data["rank"].(map[string]interface{})
	if rankData["name"] != "Voyager" {
		t.Errorf("rank name = %v, want Voyager", rankData["name"])
	}
}

func TestCollapseCancelKeepsGalaxy(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{Countdown: 5, Interval: time.Hour})
	ctx := context.Background()

	if err := ts.store.CreateCategory(ctx, "reader-1", models.Category{Name: "Sci-Fi"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/collapse", "reader-1", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("begin status = %d, want 202", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	status := env.Data.(map[string]interface{})
	if status["state"] != "confirming" {
		t.Errorf("state = %v, want confirming", status["state"])
	}

	// Double begin conflicts.
	resp = ts.do(t, http.MethodPost, "/api/v1/galaxy/collapse", "reader-1", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double begin status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/v1/galaxy/collapse", "reader-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", resp.StatusCode)
	}
	env = decodeEnvelope(t, resp)
	status = env.Data.(map[string]interface{})
	if status["state"] != "idle" {
		t.Errorf("state after cancel = %v, want idle", status["state"])
	}
	if cd := status["countdown"].(float64); cd != 5 {
		t.Errorf("countdown after cancel = %v, want 5", cd)
	}

	galaxy, err := ts.store.LoadGalaxy(ctx, "reader-1")
	if err != nil {
		t.Fatalf("LoadGalaxy: %v", err)
	}
	if len(galaxy.Categories) != 1 {
		t.Errorf("categories = %d, want 1 after cancel", len(galaxy.Categories))
	}
}

func TestCollapseCommitResetsGalaxy(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{Countdown: 2, Interval: 5 * time.Millisecond})
	ctx := context.Background()

	if err := ts.store.CreateCategory(ctx, "reader-1", models.Category{Name: "Sci-Fi"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if err := ts.store.AppendNotification(ctx, "reader-1", models.Notification{ID: "n1", Type: models.NotificationAchievement}); err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	resetsBefore := testutil.ToFloat64(metrics.GalaxyResets)

	resp := ts.do(t, http.MethodPost, "/api/v1/galaxy/collapse", "reader-1", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("begin status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		galaxy, err := ts.store.LoadGalaxy(ctx, "reader-1")
		if err != nil {
			t.Fatalf("LoadGalaxy: %v", err)
		}
		if len(galaxy.Categories) == 0 {
			if len(galaxy.Notifications) != 1 {
				t.Errorf("notifications = %d, want 1 to survive collapse", len(galaxy.Notifications))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("collapse did not commit before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// One collapse counts once: the store owns the counter, the gate
	// commit must not add a second increment.
	deadline = time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(metrics.GalaxyResets) < resetsBefore+1 {
		if time.Now().After(deadline) {
			t.Fatal("reset counter never incremented")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := testutil.ToFloat64(metrics.GalaxyResets); got != resetsBefore+1 {
		t.Errorf("GalaxyResets delta = %v, want 1", got-resetsBefore)
	}

	// A finished gate is replaced, so a second collapse can start.
	deadline = time.Now().Add(2 * time.Second)
	for {
		resp = ts.do(t, http.MethodPost, "/api/v1/galaxy/collapse", "reader-1", nil)
		code := resp.StatusCode
		resp.Body.Close()
		if code == http.StatusAccepted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("second begin status = %d, want 202", code)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = ts.srv.Client().Get(ts.srv.URL + "/api/v1/health/ready")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}
}

func TestMarkNotificationsRead(t *testing.T) {
	ts := newTestServer(t, nil, GateOptions{})
	ctx := context.Background()

	for _, id := range []string{"n1", "n2"} {
		if err := ts.store.AppendNotification(ctx, "reader-1", models.Notification{ID: id, Type: models.NotificationAchievement}); err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	resp := ts.do(t, http.MethodPost, "/api/v1/notifications/read", "reader-1", nil)
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]interface{})
	if unread := data["unread"].(float64); unread != 0 {
		t.Errorf("unread = %v, want 0", unread)
	}

	galaxy, err := ts.store.LoadGalaxy(ctx, "reader-1")
	if err != nil {
		t.Fatalf("LoadGalaxy: %v", err)
	}
	for _, n := range galaxy.Notifications {
		if !n.IsRead {
			t.Errorf("notification %s still unread in store", n.ID)
		}
	}
}
