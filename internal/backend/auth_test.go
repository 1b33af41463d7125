package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "test-anon-key", 5*time.Second)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client, server
}

func TestNewClient_NotConfigured(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
	}{
		{"missing both", "", ""},
		{"missing key", "https://backend.example.com", ""},
		{"missing url", "", "anon-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.url, tt.key, 0)
			if !errors.Is(err, ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestClient_SignInWithPassword(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Errorf("expected grant_type=password, got %s", got)
		}
		if got := r.Header.Get("apikey"); got != "test-anon-key" {
			t.Errorf("expected apikey header, got %q", got)
		}

		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if creds["email"] != "chef@example.com" {
			t.Errorf("unexpected email %s", creds["email"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "chef@example.com"},
		})
	}))

	session, err := client.SignInWithPassword(context.Background(), "chef@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if session.AccessToken != "access-123" {
		t.Errorf("unexpected access token %s", session.AccessToken)
	}
	if session.RefreshToken != "refresh-456" {
		t.Errorf("unexpected refresh token %s", session.RefreshToken)
	}
	if session.User == nil || session.User.Email != "chef@example.com" {
		t.Errorf("expected user on session, got %+v", session.User)
	}
	if session.ExpiresAt.IsZero() || session.ExpiresAt.Before(time.Now()) {
		t.Errorf("expected future expiry, got %v", session.ExpiresAt)
	}
}

func TestClient_SignIn_InvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))

	_, err := client.SignInWithPassword(context.Background(), "chef@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "Invalid login credentials" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestClient_SignUp_ConfirmationRequired(t *testing.T) {
	// No session in the response means the account awaits email confirmation.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":    "user-9",
			"email": "new@example.com",
		})
	}))

	_, err := client.SignUp(context.Background(), "new@example.com", "secret123")
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Errorf("expected ErrConfirmationRequired, got %v", err)
	}
}

func TestClient_SignUp_WithSession(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-xyz",
			"refresh_token": "refresh-xyz",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-9", "email": "new@example.com"},
		})
	}))

	session, err := client.SignUp(context.Background(), "new@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign up failed: %v", err)
	}
	if session.AccessToken != "access-xyz" {
		t.Errorf("unexpected access token %s", session.AccessToken)
	}
}

func TestClient_RefreshSession_RotatesTokens(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("grant_type"); got != "refresh_token" {
			t.Errorf("expected grant_type=refresh_token, got %s", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "old-refresh" {
			t.Errorf("unexpected refresh token %s", body["refresh_token"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "chef@example.com"},
		})
	}))

	session, err := client.RefreshSession(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if session.RefreshToken != "new-refresh" {
		t.Errorf("expected rotated refresh token, got %s", session.RefreshToken)
	}
}

func TestClient_SignOut(t *testing.T) {
	var sawLogout bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/logout" {
			sawLogout = true
			if got := r.Header.Get("Authorization"); got != "Bearer access-123" {
				t.Errorf("expected user token, got %q", got)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if err := client.SignOut(context.Background(), "access-123"); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if !sawLogout {
		t.Error("logout endpoint was not called")
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.SignInWithPassword(context.Background(), "chef@example.com", "secret123")
	if err == nil {
		t.Fatal("expected error")
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("expected TransportError, got %T: %v", err, err)
	}
}

func TestClient_Health(t *testing.T) {
	var sawHealth bool
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/health" {
			sawHealth = true
			_, _ = w.Write([]byte(`{"version":"v2"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health probe failed: %v", err)
	}
	if !sawHealth {
		t.Error("health endpoint was not called")
	}

	server.Close()
	err := client.Health(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("expected TransportError for a dead backend, got %T: %v", err, err)
	}
}
