// Package meeting provisions private video rooms through the Daily REST API.
package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"selftape/models"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL  = "https://api.daily.co/v1"
	requestTimeout = 5 * time.Second
	roomGrace      = time.Hour
)

// DailyProvisioner creates one private room per booking. Without an API key
// CreateRoom returns an empty URL.
type DailyProvisioner struct {
	APIKey string
	APIURL string
	Client *http.Client
	Logger *zap.Logger
}

func NewDailyProvisioner(apiKey, apiURL string, logger *zap.Logger) *DailyProvisioner {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &DailyProvisioner{
		APIKey: apiKey,
		APIURL: strings.TrimRight(apiURL, "/"),
		Client: &http.Client{Timeout: requestTimeout},
		Logger: logger,
	}
}

type roomProperties struct {
	Exp        int64 `json:"exp"`
	EjectAtExp bool  `json:"eject_at_room_exp"`
	EnableChat bool  `json:"enable_chat"`
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Privacy    string         `json:"privacy"`
	Properties roomProperties `json:"properties"`
}

type createRoomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (p *DailyProvisioner) CreateRoom(ctx context.Context, b models.Booking) (string, error) {
	if p.APIKey == "" {
		return "", nil
	}
	body, err := json.Marshal(createRoomRequest{
		Name:    roomName(b.ID),
		Privacy: "private",
		Properties: roomProperties{
			Exp:        b.EndTime.Add(roomGrace).Unix(),
			EjectAtExp: true,
			EnableChat: true,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("daily: create room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("daily: create room: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var room createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return "", fmt.Errorf("daily: decode room: %w", err)
	}
	p.Logger.Debug("Meeting room created", zap.String("bookingID", b.ID), zap.String("room", room.Name))
	return room.URL, nil
}

func roomName(bookingID string) string {
	id := strings.ReplaceAll(bookingID, "-", "")
	if len(id) > 12 {
		id = id[:12]
	}
	return "selftape-" + id
}
