package types

import "time"

// Telemetry types reported by a running EA to the bridge. JSON names are
// lowerCamel; encoding/json matches keys case-insensitively, so PascalCase
// payloads decode as well.

type LivePosition struct {
	Ticket       int64     `json:"ticket"`
	Symbol       string    `json:"symbol"`
	Type         string    `json:"type"` // BUY or SELL
	Lots         float64   `json:"lots"`
	OpenPrice    float64   `json:"openPrice"`
	CurrentPrice float64   `json:"currentPrice"`
	StopLoss     float64   `json:"stopLoss"`
	TakeProfit   float64   `json:"takeProfit"`
	Profit       float64   `json:"profit"`
	OpenTime     time.Time `json:"openTime"`
	Comment      string    `json:"comment"`
}

type AccountInfo struct {
	Balance       float64   `json:"balance"`
	Equity        float64   `json:"equity"`
	Margin        float64   `json:"margin"`
	FreeMargin    float64   `json:"freeMargin"`
	DailyDrawdown float64   `json:"dailyDrawdown"`
	TotalDrawdown float64   `json:"totalDrawdown"`
	OpenPositions int       `json:"openPositions"`
	LastUpdate    time.Time `json:"lastUpdate"`
}

type EAStatus struct {
	IsConnected      bool      `json:"isConnected"`
	IsTradingEnabled bool      `json:"isTradingEnabled"`
	EAName           string    `json:"eaName"`
	EAVersion        string    `json:"eaVersion"`
	LastHeartbeat    time.Time `json:"lastHeartbeat"`
	ErrorMessage     string    `json:"errorMessage"`
}

// DefaultEAStatus is the status before any EA has reported.
func DefaultEAStatus() EAStatus {
	return EAStatus{EAName: "Bridge EA", EAVersion: "1.0"}
}

// EACommand is queued by an operator and handed to the EA on its next heartbeat.
type EACommand struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"` // START, STOP, UPDATE_PARAMS, CLOSE_ALL
	Parameters map[string]any `json:"parameters"`
	QueuedAt   time.Time      `json:"queuedAt"`
}

type EAResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// NewsEvent is one economic-calendar row used for the news blackout file.
type NewsEvent struct {
	Time     time.Time `json:"time"`
	Currency string    `json:"currency"`
	Impact   string    `json:"impact"`
	Title    string    `json:"title"`
}
