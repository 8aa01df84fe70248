package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deklata/deklata/internal/db"
)

const (
	testJWTSecret = "test-secret"
	testAward     = 10
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, testAward)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// registerUser creates an account over the API and returns its token.
func registerUser(t *testing.T, server *httptest.Server, name string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"email":    name + "@example.com",
		"password": "password1",
		"name":     name,
		"phone":    "0241234567",
		"campus":   "UDS Tamale",
	})
	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: %d", resp.StatusCode)
	}

	var reg map[string]string
	json.NewDecoder(resp.Body).Decode(&reg)
	if reg["token"] == "" {
		t.Fatal("empty token from register")
	}
	return reg["token"]
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON sends an authenticated request, checks the status and decodes the
// response body into out (which may be nil).
func doJSON(t *testing.T, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, url, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	server := setupTestServer(t)
	registerUser(t, server, "first")

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"duplicate email", map[string]string{
			"email": "first@example.com", "password": "password1",
			"name": "Other", "phone": "0240000000", "campus": "UDS Tamale",
		}, http.StatusConflict},
		{"short password", map[string]string{
			"email": "second@example.com", "password": "short",
			"name": "Second", "phone": "0240000000", "campus": "UDS Tamale",
		}, http.StatusBadRequest},
		{"missing profile fields", map[string]string{
			"email": "third@example.com", "password": "password1",
		}, http.StatusBadRequest},
		{"bad email", map[string]string{
			"email": "not-an-email", "password": "password1",
			"name": "Fourth", "phone": "0240000000", "campus": "UDS Tamale",
		}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.body)
			resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("register request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	server := setupTestServer(t)
	registerUser(t, server, "alice")

	// Wrong password.
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Fresh login.
	body, _ = json.Marshal(map[string]string{"email": "alice@example.com", "password": "password1"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	var login map[string]string
	json.NewDecoder(resp.Body).Decode(&login)
	resp.Body.Close()
	token := login["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	// Token works, then stops working after logout.
	doJSON(t, "GET", server.URL+"/api/me", token, nil, http.StatusOK, nil)
	doJSON(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)

	req, _ := authRequest("GET", server.URL+"/api/me", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuthRequired(t *testing.T) {
	server := setupTestServer(t)

	endpoints := []struct{ method, path string }{
		{"GET", "/api/me"},
		{"POST", "/api/items"},
		{"GET", "/api/requests/incoming"},
		{"POST", "/api/requests/1/approve"},
	}
	for _, ep := range endpoints {
		req, _ := http.NewRequest(ep.method, server.URL+ep.path, bytes.NewReader(nil))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", ep.method, ep.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", ep.method, ep.path, resp.StatusCode)
		}
	}
}

func TestExchangeAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	owner := registerUser(t, server, "owner")
	requester := registerUser(t, server, "requester")

	// Owner lists an item.
	var item struct {
		ID int64 `json:"id"`
	}
	doJSON(t, "POST", server.URL+"/api/items", owner, map[string]string{
		"name":            "Desk Fan",
		"description":     "Works fine",
		"category":        "electronics",
		"pickup_location": "Hall 2",
	}, http.StatusCreated, &item)
	if item.ID == 0 {
		t.Fatal("item id missing from create response")
	}

	// It shows up in the public listing without auth.
	resp, err := http.Get(server.URL + "/api/items?category=electronics")
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	var listing struct {
		Items      []json.RawMessage `json:"items"`
		TotalCount int               `json:"total_count"`
	}
	json.NewDecoder(resp.Body).Decode(&listing)
	resp.Body.Close()
	if listing.TotalCount != 1 || len(listing.Items) != 1 {
		t.Fatalf("expected 1 listed item, got %d", listing.TotalCount)
	}

	itemURL := fmt.Sprintf("%s/api/items/%d", server.URL, item.ID)

	// Owner cannot request their own item.
	doJSON(t, "POST", itemURL+"/requests", owner, nil, http.StatusConflict, nil)

	// Requester creates a request.
	var request struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	doJSON(t, "POST", itemURL+"/requests", requester, nil, http.StatusCreated, &request)
	if request.Status != "pending" {
		t.Errorf("expected pending request, got %q", request.Status)
	}

	// A duplicate active request conflicts.
	doJSON(t, "POST", itemURL+"/requests", requester, nil, http.StatusConflict, nil)

	// The item detail shows the caller's own active request, and nothing to
	// anonymous visitors.
	var detail struct {
		MyRequest *struct {
			Status string `json:"status"`
		} `json:"my_request"`
	}
	doJSON(t, "GET", itemURL, requester, nil, http.StatusOK, &detail)
	if detail.MyRequest == nil || detail.MyRequest.Status != "pending" {
		t.Errorf("expected pending my_request on item detail, got %+v", detail.MyRequest)
	}
	resp, err = http.Get(itemURL)
	if err != nil {
		t.Fatalf("item detail: %v", err)
	}
	detail.MyRequest = nil
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.MyRequest != nil {
		t.Error("anonymous item detail should not carry a request")
	}

	// Only the owner may approve.
	requestURL := fmt.Sprintf("%s/api/requests/%d", server.URL, request.ID)
	doJSON(t, "POST", requestURL+"/approve", requester, nil, http.StatusForbidden, nil)
	doJSON(t, "POST", requestURL+"/approve", owner, nil, http.StatusOK, nil)

	// Approving twice is an invalid transition.
	doJSON(t, "POST", requestURL+"/approve", owner, nil, http.StatusUnprocessableEntity, nil)

	// The approved request carries the owner's contact on the requester's
	// dashboard.
	var mine []struct {
		ContactName string `json:"contact_name"`
	}
	doJSON(t, "GET", server.URL+"/api/requests/mine", requester, nil, http.StatusOK, &mine)
	if len(mine) != 1 || mine[0].ContactName != "owner" {
		t.Errorf("expected owner contact on approved request, got %+v", mine)
	}

	// Completing before both confirmations is an invalid transition.
	doJSON(t, "POST", itemURL+"/complete", owner, nil, http.StatusUnprocessableEntity, nil)

	// Confirmation roles are enforced.
	doJSON(t, "POST", requestURL+"/confirm-given", requester, nil, http.StatusForbidden, nil)
	doJSON(t, "POST", requestURL+"/confirm-received", owner, nil, http.StatusForbidden, nil)

	// Both sides confirm; completion and the award follow.
	doJSON(t, "POST", requestURL+"/confirm-given", owner, nil, http.StatusOK, nil)
	doJSON(t, "POST", requestURL+"/confirm-received", requester, nil, http.StatusOK, nil)

	var me struct {
		Points struct {
			Total int64  `json:"total"`
			Tier  string `json:"tier"`
		} `json:"points"`
	}
	doJSON(t, "GET", server.URL+"/api/me", owner, nil, http.StatusOK, &me)
	if me.Points.Total != testAward {
		t.Errorf("expected %d points for giver, got %d", testAward, me.Points.Total)
	}

	// The explicit complete call is a retriable no-op afterwards.
	doJSON(t, "POST", itemURL+"/complete", owner, nil, http.StatusOK, nil)
	doJSON(t, "GET", server.URL+"/api/me", owner, nil, http.StatusOK, &me)
	if me.Points.Total != testAward {
		t.Errorf("points awarded more than once: %d", me.Points.Total)
	}

	// Completed items leave the public listing.
	resp, _ = http.Get(server.URL + "/api/items?category=electronics")
	json.NewDecoder(resp.Body).Decode(&listing)
	resp.Body.Close()
	if listing.TotalCount != 0 {
		t.Errorf("completed item still listed: %d", listing.TotalCount)
	}
}

func TestRejectAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	owner := registerUser(t, server, "owner")
	requester := registerUser(t, server, "requester")

	var item struct {
		ID int64 `json:"id"`
	}
	doJSON(t, "POST", server.URL+"/api/items", owner, map[string]string{
		"name":     "Physics Notes",
		"category": "books",
	}, http.StatusCreated, &item)

	itemURL := fmt.Sprintf("%s/api/items/%d", server.URL, item.ID)

	var request struct {
		ID int64 `json:"id"`
	}
	doJSON(t, "POST", itemURL+"/requests", requester, nil, http.StatusCreated, &request)

	requestURL := fmt.Sprintf("%s/api/requests/%d", server.URL, request.ID)
	doJSON(t, "POST", requestURL+"/reject", owner, nil, http.StatusOK, nil)

	// A rejected request no longer blocks a new one.
	doJSON(t, "POST", itemURL+"/requests", requester, nil, http.StatusCreated, nil)
}

func TestItemNotFound(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "someone")

	resp, _ := http.Get(server.URL + "/api/items/9999")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	doJSON(t, "POST", server.URL+"/api/items/9999/requests", token, nil, http.StatusNotFound, nil)
	doJSON(t, "DELETE", server.URL+"/api/items/9999", token, nil, http.StatusNotFound, nil)
}

func TestContactEndpoint(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"type":    "suggestion",
		"email":   "visitor@example.com",
		"message": "Add a search by campus",
	})
	resp, err := http.Post(server.URL+"/api/contact", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("contact request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}

	body, _ = json.Marshal(map[string]string{
		"type":    "nonsense",
		"email":   "visitor@example.com",
		"message": "hi",
	})
	resp, _ = http.Post(server.URL+"/api/contact", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad contact type, got %d", resp.StatusCode)
	}
}

func TestChangePassword(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "bob")

	doJSON(t, "PUT", server.URL+"/api/auth/password", token, map[string]string{
		"current_password": "wrong",
		"new_password":     "newpassword1",
	}, http.StatusUnauthorized, nil)

	doJSON(t, "PUT", server.URL+"/api/auth/password", token, map[string]string{
		"current_password": "password1",
		"new_password":     "newpassword1",
	}, http.StatusOK, nil)

	// Old password no longer works, new one does.
	body, _ := json.Marshal(map[string]string{"email": "bob@example.com", "password": "password1"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with old password, got %d", resp.StatusCode)
	}

	body, _ = json.Marshal(map[string]string{"email": "bob@example.com", "password": "newpassword1"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with new password, got %d", resp.StatusCode)
	}
}
