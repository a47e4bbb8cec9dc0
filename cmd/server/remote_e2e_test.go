//go:build e2e

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

type credentials struct {
	playerID  string
	playerKey string
}

func TestRemoteAPI_MainEndpoints(t *testing.T) {
	baseURL := strings.TrimRight(envOr("SOURPLANET_E2E_BASE_URL", "http://localhost:8080"), "/")
	client := &http.Client{Timeout: 20 * time.Second}

	t.Run("status requires player headers", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodGet, baseURL+"/api/planet/status", credentials{}, nil)
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", status, string(body))
		}
	})

	t.Run("catalog is public", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodGet, baseURL+"/api/planet/catalog", credentials{}, nil)
		if status != http.StatusOK {
			t.Fatalf("catalog status=%d body=%s", status, string(body))
		}
		var catalog map[string]any
		if err := json.Unmarshal(body, &catalog); err != nil {
			t.Fatalf("unmarshal catalog: %v body=%s", err, string(body))
		}
		if len(asSlice(catalog["upgrades"])) == 0 {
			t.Fatalf("expected upgrades in catalog: %s", string(body))
		}
	})

	t.Run("register click status events ops", func(t *testing.T) {
		status, registerBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/planet/register", credentials{}, map[string]any{})
		if status != http.StatusCreated {
			t.Fatalf("register status=%d body=%s", status, string(registerBody))
		}
		var registered map[string]any
		if err := json.Unmarshal(registerBody, &registered); err != nil {
			t.Fatalf("unmarshal register: %v", err)
		}
		creds := credentials{}
		creds.playerID, _ = registered["player_id"].(string)
		creds.playerKey, _ = registered["player_key"].(string)
		if creds.playerID == "" || creds.playerKey == "" {
			t.Fatalf("register returned no credentials: %s", string(registerBody))
		}

		status, clickBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/planet/click", creds, map[string]any{"clicks": 5})
		if status != http.StatusOK {
			t.Fatalf("click status=%d body=%s", status, string(clickBody))
		}

		status, dtBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/planet/sync", creds, map[string]any{"dt": 30})
		if status != http.StatusBadRequest {
			t.Fatalf("expected client dt to be refused, got %d body=%s", status, string(dtBody))
		}

		status, buyBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/planet/purchase", creds, map[string]any{"upgrade_id": "acid_geyser"})
		if status != http.StatusConflict {
			t.Fatalf("expected locked purchase to be rejected, got %d body=%s", status, string(buyBody))
		}
		var rejected map[string]any
		_ = json.Unmarshal(buyBody, &rejected)
		if got := asMap(rejected["error"])["code"]; got != "locked_upgrade" {
			t.Fatalf("expected locked_upgrade, got %v", got)
		}

		status, statusBody := mustJSON(t, client, http.MethodGet, baseURL+"/api/planet/status", creds, nil)
		if status != http.StatusOK {
			t.Fatalf("status status=%d body=%s", status, string(statusBody))
		}
		var st map[string]any
		if err := json.Unmarshal(statusBody, &st); err != nil {
			t.Fatalf("unmarshal status: %v", err)
		}
		if _, ok := asMap(st["status"])["resource_amount"]; !ok {
			t.Fatalf("expected status.resource_amount: %s", string(statusBody))
		}

		status, eventsBody := mustJSON(t, client, http.MethodGet, baseURL+"/api/planet/events?limit=20", creds, nil)
		if status != http.StatusOK {
			t.Fatalf("events status=%d body=%s", status, string(eventsBody))
		}
		var events map[string]any
		if err := json.Unmarshal(eventsBody, &events); err != nil {
			t.Fatalf("unmarshal events: %v", err)
		}
		if len(asSlice(events["events"])) == 0 {
			t.Fatalf("expected events after clicking: %s", string(eventsBody))
		}

		status, kpiBody := mustJSON(t, client, http.MethodGet, baseURL+"/ops/kpi", credentials{}, nil)
		if status != http.StatusOK {
			t.Fatalf("kpi status=%d body=%s", status, string(kpiBody))
		}
	})
}

func mustJSON(t *testing.T, client *http.Client, method, url string, creds credentials, body any) (int, []byte) {
	t.Helper()
	status, respBody, err := doRequest(client, method, url, creds, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return status, respBody
}

func doRequest(client *http.Client, method, url string, creds credentials, body any) (int, []byte, error) {
	var payloadBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payloadBytes = b
	}

	var lastStatus int
	var lastBody []byte
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var payload io.Reader
		if len(payloadBytes) > 0 {
			payload = bytes.NewReader(payloadBytes)
		}
		req, err := http.NewRequest(method, url, payload)
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if creds.playerID != "" {
			req.Header.Set("X-Player-ID", creds.playerID)
		}
		if creds.playerKey != "" {
			req.Header.Set("X-Player-Key", creds.playerKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		lastStatus, lastBody, lastErr = resp.StatusCode, respBody, nil
		if resp.StatusCode >= 500 {
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

func envOr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
