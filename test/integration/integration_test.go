package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
)

// These tests run against a live auth-local unit seeded with the user
// INTEGRATION_EMAIL / INTEGRATION_PASSWORD.
var (
	baseURL      = getEnv("AUTH_LOCAL_URL", "http://localhost:7120")
	testEmail    = getEnv("INTEGRATION_EMAIL", "admin@example.com")
	testPassword = getEnv("INTEGRATION_PASSWORD", "admin")
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		fmt.Println("Skipping integration tests. Set INTEGRATION_TEST=true to run.")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func postLogin(t *testing.T, email, password string) (*http.Response, map[string]interface{}) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/api/v1/local", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, result
}

func TestHealthCheck(t *testing.T) {
	resp, err := http.Get(baseURL + "/healthz")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestLoginSuccess(t *testing.T) {
	resp, result := postLogin(t, testEmail, testPassword)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %v", resp.StatusCode, result)
	}

	redirect, ok := result["redirect"].(string)
	if !ok {
		t.Fatalf("expected redirect in response, got %v", result)
	}

	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("invalid redirect %q: %v", redirect, err)
	}
	if u.Query().Get("jwt") == "" {
		t.Errorf("expected jwt query parameter in %q", redirect)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	resp, result := postLogin(t, testEmail, testPassword+"-wrong")

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.StatusCode)
	}
	if result["error"] != "InvalidCredentialsError" {
		t.Errorf("unexpected error tag %v", result["error"])
	}
}

func TestLoginValidation(t *testing.T) {
	resp, result := postLogin(t, "not-an-email", "")

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
	if errs, ok := result["validationErrors"].([]interface{}); !ok || len(errs) != 2 {
		t.Errorf("expected two validation errors, got %v", result["validationErrors"])
	}
}

func TestContact(t *testing.T) {
	resp, err := http.Get(baseURL + "/auth/contact")
	if err != nil {
		t.Fatalf("contact request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}
