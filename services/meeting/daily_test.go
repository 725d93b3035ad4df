package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"selftape/models"

	"go.uber.org/zap"
)

func testBooking() models.Booking {
	start := time.Date(2030, 1, 8, 15, 0, 0, 0, time.UTC)
	return models.Booking{ID: "0f8fad5b-d9cb-469f-a165-70867728950e", StartTime: start, EndTime: start.Add(30 * time.Minute)}
}

func TestCreateRoom(t *testing.T) {
	var got createRoomRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"selftape-0f8fad5bd9cb","url":"https://example.daily.co/selftape-0f8fad5bd9cb"}`))
	}))
	defer srv.Close()

	b := testBooking()
	url, err := NewDailyProvisioner("key", srv.URL+"/", zap.NewNop()).CreateRoom(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://example.daily.co/selftape-0f8fad5bd9cb" {
		t.Fatalf("unexpected url %q", url)
	}
	if got.Name != "selftape-0f8fad5bd9cb" || got.Privacy != "private" {
		t.Fatalf("unexpected room request: %+v", got)
	}
	if got.Properties.Exp != b.EndTime.Add(time.Hour).Unix() {
		t.Fatalf("room should expire an hour after the session, got %d", got.Properties.Exp)
	}
}

func TestCreateRoomUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewDailyProvisioner("key", srv.URL, zap.NewNop()).CreateRoom(context.Background(), testBooking())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected a status error, got %v", err)
	}
}

func TestCreateRoomWithoutKey(t *testing.T) {
	url, err := NewDailyProvisioner("", "", zap.NewNop()).CreateRoom(context.Background(), testBooking())
	if err != nil || url != "" {
		t.Fatalf("expected an empty url, got %q %v", url, err)
	}
}

func TestRoomNameShortID(t *testing.T) {
	if got := roomName("abc"); got != "selftape-abc" {
		t.Fatalf("unexpected room name %q", got)
	}
}
