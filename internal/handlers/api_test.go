package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jaswdr/faker"

	"table-service-go/internal/app"
)

var fake = faker.New()

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newServer(t *testing.T) (*httptest.Server, *app.App) {
	t.Helper()
	cfg := app.Config{
		DataDir:           t.TempDir(),
		SessionHashKeyHex: strings.Repeat("c3", 32),
		BootstrapManager:  app.BootstrapConfig{Username: "boss", Password: "manager-pass", Name: fake.Person().Name()},
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), app.Options{SkipRabbitMQ: true})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	srv := httptest.NewServer(NewRouter(a))
	t.Cleanup(srv.Close)
	return srv, a
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

func (c *client) do(method, path string, body any, header ...string) (int, envelope) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp.StatusCode, env
}

// expect fails unless the call answers with status, then decodes data into out.
func (c *client) expect(status int, method, path string, body any, out any) envelope {
	c.t.Helper()
	got, env := c.do(method, path, body)
	if got != status {
		c.t.Fatalf("%s %s: status %d, want %d (%s %s)", method, path, got, status, env.Code, env.Error)
	}
	if env.Success != (status < 400) {
		c.t.Fatalf("%s %s: success=%v for status %d", method, path, env.Success, status)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
	return env
}

func (c *client) login(username, password string) {
	c.t.Helper()
	c.expect(http.StatusOK, http.MethodPost, "/api/login", map[string]string{"username": username, "password": password}, nil)
}

func staffClient(t *testing.T, srv *httptest.Server, boss *client, role string) *client {
	t.Helper()
	username := strings.ToLower(role) + "1"
	boss.expect(http.StatusCreated, http.MethodPost, "/api/staff", map[string]string{
		"username": username, "password": "staff-pass-1", "role": role, "display_name": fake.Person().Name(),
	}, nil)
	c := newClient(t, srv)
	c.login(username, "staff-pass-1")
	return c
}

func TestHealthAndLogin(t *testing.T) {
	srv, _ := newServer(t)
	c := newClient(t, srv)

	c.expect(http.StatusOK, http.MethodGet, "/health", nil, nil)
	env := c.expect(http.StatusUnauthorized, http.MethodGet, "/api/me", nil, nil)
	if env.Code != app.CodeUnauthorized {
		t.Fatalf("code %q", env.Code)
	}
	c.expect(http.StatusUnauthorized, http.MethodPost, "/api/login", map[string]string{"username": "boss", "password": "nope-nope"}, nil)

	c.login("boss", "manager-pass")
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	c.expect(http.StatusOK, http.MethodGet, "/api/me", nil, &me)
	if me.Username != "boss" || me.Role != app.RoleManager {
		t.Fatalf("me: %+v", me)
	}

	c.expect(http.StatusOK, http.MethodPost, "/api/logout", nil, nil)
	c.expect(http.StatusUnauthorized, http.MethodGet, "/api/me", nil, nil)
}

type tableJSON struct {
	ID     int64  `json:"table_id"`
	Status string `json:"status"`
}

type itemJSON struct {
	ID       int64   `json:"item_id"`
	TableID  int64   `json:"table_id"`
	Status   string  `json:"dish_status"`
	Rushed   bool    `json:"is_rushed"`
	Price    float64 `json:"unit_price"`
	Station  string  `json:"station"`
	Quantity int     `json:"quantity"`
}

type billJSON struct {
	Total    float64 `json:"total_amount"`
	Actual   float64 `json:"actual_amount"`
	Receipt  string  `json:"receipt_no"`
	OrderIDs []int64 `json:"order_ids"`
}

func TestTableServiceFlow(t *testing.T) {
	srv, _ := newServer(t)
	boss := newClient(t, srv)
	boss.login("boss", "manager-pass")
	waiter := staffClient(t, srv, boss, app.RoleWaiter)
	chef := staffClient(t, srv, boss, app.RoleChef)
	guest := newClient(t, srv)

	var dish struct {
		ID int64 `json:"dish_id"`
	}
	boss.expect(http.StatusCreated, http.MethodPost, "/api/dishes", map[string]any{
		"dish_name": "Kung Pao Chicken", "category": "Hot Dishes", "price": 20,
		"flavor_rounds": []map[string]any{{"round_name": "Spice", "options": []string{"mild", "hot"}}},
	}, &dish)
	waiter.expect(http.StatusForbidden, http.MethodPost, "/api/dishes", map[string]any{
		"dish_name": "Nope", "category": "Hot Dishes", "price": 1,
	}, nil)

	var tables []tableJSON
	guest.expect(http.StatusOK, http.MethodGet, "/api/tables/available", nil, &tables)
	if len(tables) == 0 {
		t.Fatal("no tables seeded")
	}

	guest.expect(http.StatusUnauthorized, http.MethodPost, "/api/tables/5/open", nil, nil)
	chef.expect(http.StatusForbidden, http.MethodPost, "/api/tables/5/open", nil, nil)
	var opened struct {
		OrderID int64 `json:"order_id"`
	}
	waiter.expect(http.StatusCreated, http.MethodPost, "/api/tables/5/open", nil, &opened)
	waiter.expect(http.StatusConflict, http.MethodPost, "/api/tables/5/open", nil, nil)

	var current struct {
		Order struct {
			ID int64 `json:"order_id"`
		} `json:"order"`
	}
	guest.expect(http.StatusOK, http.MethodGet, "/api/tables/5/current-order", nil, &current)
	if current.Order.ID != opened.OrderID {
		t.Fatalf("current order %d, opened %d", current.Order.ID, opened.OrderID)
	}

	itemsPath := fmt.Sprintf("/api/orders/%d/items", opened.OrderID)
	env := guest.expect(http.StatusUnprocessableEntity, http.MethodPost, itemsPath, map[string]any{
		"dish_id": dish.ID, "quantity": 2,
	}, nil)
	if env.Code != "FlavorSelectionInvalid" {
		t.Fatalf("code %q", env.Code)
	}
	var item itemJSON
	add := map[string]any{
		"dish_id": dish.ID, "quantity": 2,
		"flavor_choices": []map[string]string{{"round": "Spice", "choice": "hot"}},
	}
	status, env := guest.do(http.MethodPost, itemsPath, add, "Idempotency-Key", "tap-42")
	if status != http.StatusCreated {
		t.Fatalf("add item: %d %s", status, env.Error)
	}
	_ = json.Unmarshal(env.Data, &item)
	var replay itemJSON
	_, env = guest.do(http.MethodPost, itemsPath, add, "Idempotency-Key", "tap-42")
	_ = json.Unmarshal(env.Data, &replay)
	if replay.ID != item.ID || item.Price != 20 {
		t.Fatalf("item %+v, replay %+v", item, replay)
	}

	confirmPath := fmt.Sprintf("/api/orders/%d/confirm", opened.OrderID)
	guest.expect(http.StatusUnauthorized, http.MethodPost, confirmPath, nil, nil)
	waiter.expect(http.StatusOK, http.MethodPost, confirmPath, nil, nil)
	waiter.expect(http.StatusConflict, http.MethodPost, confirmPath, nil, nil)

	var queue []itemJSON
	chef.expect(http.StatusOK, http.MethodGet, "/api/kitchen/orders?station=hot&status=unmade,in_progress", nil, &queue)
	if len(queue) != 1 || queue[0].ID != item.ID || queue[0].TableID != 5 || queue[0].Station != "hot" {
		t.Fatalf("queue: %+v", queue)
	}
	chef.expect(http.StatusOK, http.MethodGet, "/api/kitchen/orders?station=cold", nil, &queue)
	if len(queue) != 0 {
		t.Fatalf("cold queue: %+v", queue)
	}
	waiter.expect(http.StatusForbidden, http.MethodGet, "/api/kitchen/orders", nil, nil)

	rushPath := fmt.Sprintf("/api/items/%d/rush", item.ID)
	waiter.expect(http.StatusOK, http.MethodPost, rushPath, nil, &item)
	if !item.Rushed {
		t.Fatal("rush flag not set")
	}
	waiter.expect(http.StatusConflict, http.MethodPost, rushPath, nil, nil)

	statusPath := fmt.Sprintf("/api/kitchen/items/%d/status", item.ID)
	chef.expect(http.StatusOK, http.MethodPut, statusPath, map[string]string{"status": "in_progress"}, nil)
	chef.expect(http.StatusConflict, http.MethodPut, statusPath, map[string]string{"status": "unmade"}, nil)
	chef.expect(http.StatusOK, http.MethodPut, statusPath, map[string]string{"status": "completed"}, &item)
	if item.Status != "completed" || item.Rushed {
		t.Fatalf("completed item: %+v", item)
	}

	refundPath := fmt.Sprintf("/api/items/%d/refund", item.ID)
	waiter.expect(http.StatusConflict, http.MethodPost, refundPath, map[string]string{"reason": "cold"}, nil)

	var history []struct {
		To   string `json:"to_status"`
		Name string `json:"changed_by_name"`
	}
	chef.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/items/%d/history", item.ID), nil, &history)
	if len(history) != 4 || history[len(history)-1].To != "completed" || history[len(history)-1].Name == "" {
		t.Fatalf("history: %+v", history)
	}

	checkoutPath := "/api/tables/5/checkout"
	env = waiter.expect(http.StatusUnprocessableEntity, http.MethodPost, checkoutPath, map[string]string{"discount_type": "half_off"}, nil)
	if env.Code != "InvalidDiscount" {
		t.Fatalf("code %q", env.Code)
	}
	var bill billJSON
	waiter.expect(http.StatusOK, http.MethodPost, checkoutPath, map[string]any{"discount_type": "twenty_off"}, &bill)
	if bill.Total != 40 || bill.Actual != 32 || bill.Receipt == "" || len(bill.OrderIDs) != 1 {
		t.Fatalf("bill: %+v", bill)
	}
	waiter.expect(http.StatusConflict, http.MethodPost, checkoutPath, nil, nil)

	var table tableJSON
	waiter.expect(http.StatusConflict, http.MethodPut, "/api/tables/5/status", map[string]string{"status": "needs_cleaning"}, nil)
	waiter.expect(http.StatusOK, http.MethodPut, "/api/tables/5/status", map[string]string{"status": "available"}, &table)
	if table.Status != "available" {
		t.Fatalf("table: %+v", table)
	}

	var rep struct {
		TotalSum  float64 `json:"total_sum"`
		ActualSum float64 `json:"actual_sum"`
		Bills     []struct {
			Receipt string `json:"receipt_no"`
		} `json:"bills"`
	}
	waiter.expect(http.StatusForbidden, http.MethodGet, "/api/revenue", nil, nil)
	boss.expect(http.StatusOK, http.MethodGet, "/api/revenue?from=2000-01-01", nil, &rep)
	if rep.TotalSum != 40 || rep.ActualSum != 32 || len(rep.Bills) != 1 || rep.Bills[0].Receipt != bill.Receipt {
		t.Fatalf("revenue: %+v", rep)
	}
	boss.expect(http.StatusUnprocessableEntity, http.MethodGet, "/api/revenue?from=yesterday", nil, nil)

	boss.expect(http.StatusNotFound, http.MethodPost, "/api/dishes/9999/delist", nil, nil)
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newServer(t)
	waiter := newClient(t, srv)
	waiter.login("boss", "manager-pass")

	cases := []struct {
		method, path string
		body         any
		status       int
		code         string
	}{
		{http.MethodPost, "/api/tables/abc/open", nil, http.StatusNotFound, "NotFound"},
		{http.MethodPost, "/api/tables/999/open", nil, http.StatusNotFound, "NotFound"},
		{http.MethodGet, "/api/orders/999", nil, http.StatusNotFound, "NotFound"},
		{http.MethodPut, "/api/tables/1/status", map[string]string{"status": "closed"}, http.StatusUnprocessableEntity, "InvalidInput"},
		{http.MethodPut, "/api/tables/1/status", map[string]string{"colour": "red"}, http.StatusUnprocessableEntity, "InvalidInput"},
		{http.MethodPost, "/api/tables/1/checkout", nil, http.StatusConflict, "InvalidState"},
		{http.MethodGet, "/api/tables/1/current-order", nil, http.StatusConflict, "InvalidState"},
		{http.MethodGet, "/api/kitchen/orders?station=grill", nil, http.StatusUnprocessableEntity, "InvalidInput"},
		{http.MethodPost, "/api/items/999/refund", map[string]string{"reason": "x"}, http.StatusNotFound, "NotFound"},
	}
	for _, c := range cases {
		t.Run(c.method+" "+c.path, func(t *testing.T) {
			waiter.t = t
			status, env := waiter.do(c.method, c.path, c.body)
			if status != c.status || env.Code != c.code || env.Success {
				t.Fatalf("got %d %q (%s), want %d %q", status, env.Code, env.Error, c.status, c.code)
			}
		})
	}
}

func TestEmptyOrderAndRefund(t *testing.T) {
	srv, _ := newServer(t)
	boss := newClient(t, srv)
	boss.login("boss", "manager-pass")

	var dish struct {
		ID int64 `json:"dish_id"`
	}
	boss.expect(http.StatusCreated, http.MethodPost, "/api/dishes", map[string]any{
		"dish_name": "Jasmine Tea", "category": "Drinks", "price": "8.00",
	}, &dish)

	var opened struct {
		OrderID int64 `json:"order_id"`
	}
	boss.expect(http.StatusCreated, http.MethodPost, "/api/tables/2/open", nil, &opened)
	env := boss.expect(http.StatusConflict, http.MethodPost, fmt.Sprintf("/api/orders/%d/confirm", opened.OrderID), nil, nil)
	if env.Code != "EmptyOrder" {
		t.Fatalf("code %q", env.Code)
	}

	var item itemJSON
	boss.expect(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/orders/%d/items", opened.OrderID),
		map[string]any{"dish_id": dish.ID, "quantity": 1}, &item)
	boss.expect(http.StatusUnprocessableEntity, http.MethodPost, fmt.Sprintf("/api/orders/%d/items", opened.OrderID),
		map[string]any{"dish_id": dish.ID, "quantity": 0}, nil)
	boss.expect(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/orders/%d/confirm", opened.OrderID), nil, nil)

	refund := fmt.Sprintf("/api/items/%d/refund", item.ID)
	env = boss.expect(http.StatusUnprocessableEntity, http.MethodPost, refund, map[string]string{"reason": " "}, nil)
	if env.Code != "ReasonRequired" {
		t.Fatalf("code %q", env.Code)
	}
	boss.expect(http.StatusOK, http.MethodPost, refund, map[string]string{"reason": fake.Lorem().Sentence(3)}, &item)
	if item.Status != "refunded" {
		t.Fatalf("item: %+v", item)
	}
	env = boss.expect(http.StatusConflict, http.MethodPost, "/api/tables/2/checkout", nil, nil)
	if env.Code != "NothingToBill" {
		t.Fatalf("code %q", env.Code)
	}

	var orders []struct {
		Items []itemJSON `json:"items"`
	}
	boss.expect(http.StatusOK, http.MethodGet, "/api/tables/2/confirmed-orders", nil, &orders)
	if len(orders) != 1 || len(orders[0].Items) != 1 {
		t.Fatalf("confirmed orders: %+v", orders)
	}

	boss.expect(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/dishes/%d/delist", dish.ID), nil, nil)
	var menu []struct {
		ID int64 `json:"dish_id"`
	}
	boss.expect(http.StatusOK, http.MethodGet, "/api/dishes?available=1", nil, &menu)
	for _, d := range menu {
		if d.ID == dish.ID {
			t.Fatal("delisted dish still offered")
		}
	}
	boss.expect(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/dishes/%d", dish.ID), nil, nil)
}

func TestEventsStream(t *testing.T) {
	srv, _ := newServer(t)
	guest := &http.Client{}
	waiter := newClient(t, srv)
	waiter.login("boss", "manager-pass")

	resp, err := guest.Get(srv.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous stream: %d", resp.StatusCode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?table=3", nil)
	resp, err = guest.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type %q", ct)
	}

	events := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				events <- name
			}
		}
		close(events)
	}()

	next := func() string {
		t.Helper()
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("stream closed")
			}
			return ev
		case <-time.After(3 * time.Second):
			t.Fatal("no event")
		}
		return ""
	}
	if ev := next(); ev != "hello" {
		t.Fatalf("first event %q", ev)
	}

	waiter.expect(http.StatusCreated, http.MethodPost, "/api/tables/4/open", nil, nil)
	waiter.expect(http.StatusCreated, http.MethodPost, "/api/tables/3/open", nil, nil)
	if ev := next(); ev != "table:status" {
		t.Fatalf("event %q", ev)
	}
	select {
	case ev := <-events:
		t.Fatalf("table 3 stream got a second event %q", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
