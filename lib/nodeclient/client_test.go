// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package nodeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExchangeStatus_RequestShape(t *testing.T) {
	var gotPath, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		gotType, _ = body["type"].(string)
		json.NewEncoder(w).Encode(map[string]any{"specialStatuses": nil})
	}))
	defer server.Close()

	c := NewLocal(server.URL)
	if err := c.ExchangeStatus(context.Background()); err != nil {
		t.Fatalf("ExchangeStatus failed: %v", err)
	}
	if gotPath != "/info" {
		t.Errorf("request path = %q, want /info", gotPath)
	}
	if gotType != "exchangeStatus" {
		t.Errorf("query type = %q, want exchangeStatus", gotType)
	}
}

func TestMeta_RequestShape(t *testing.T) {
	var gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotType, _ = body["type"].(string)
		json.NewEncoder(w).Encode(map[string]any{"universe": []any{}})
	}))
	defer server.Close()

	c := NewPublic(server.URL)
	if err := c.Meta(context.Background()); err != nil {
		t.Fatalf("Meta failed: %v", err)
	}
	if gotType != "meta" {
		t.Errorf("query type = %q, want meta", gotType)
	}
}

func TestHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	c := NewLocal(server.URL)
	if !c.Healthy(context.Background()) {
		t.Error("Healthy = false against a responsive endpoint")
	}
	server.Close()
	if c.Healthy(context.Background()) {
		t.Error("Healthy = true against a closed endpoint")
	}
}

func TestExchangeStatus_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewLocal(server.URL)
	if err := c.ExchangeStatus(context.Background()); err == nil {
		t.Error("ExchangeStatus succeeded against a 503 endpoint")
	}
}

func TestExchangeStatus_ArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"ok":true}]`))
	}))
	defer server.Close()

	// Array-shaped responses are valid info replies; reachability only
	// needs well-formed JSON.
	c := NewLocal(server.URL)
	if err := c.ExchangeStatus(context.Background()); err != nil {
		t.Errorf("array response treated as failure: %v", err)
	}
}
