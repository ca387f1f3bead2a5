package scoreboard

import (
	"database/sql"
	"sync"
	"time"
)

type store struct {
	db *sql.DB
	mu sync.Mutex
}

// Board is a physical scoreboard device and its last known score.
type Board struct {
	DeviceID  string     `json:"device_id"`
	CourtID   *int64     `json:"court_id"`
	ScoreA    int        `json:"score_A"`
	ScoreB    int        `json:"score_B"`
	IsSwapped bool       `json:"is_swapped"`
	UpdatedBy string     `json:"updated_by"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
}

// Action is a score control issued from the web UI.
type Action string

const (
	IncA  Action = "inc_a"
	DecA  Action = "dec_a"
	IncB  Action = "inc_b"
	DecB  Action = "dec_b"
	Reset Action = "reset"
)

// controlSQL holds the SET clause for each action. Decrements stop at 0.
var controlSQL = map[Action]string{
	IncA:  "score_a = score_a + 1",
	DecA:  "score_a = MAX(0, score_a - 1)",
	IncB:  "score_b = score_b + 1",
	DecB:  "score_b = MAX(0, score_b - 1)",
	Reset: "score_a = 0, score_b = 0",
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := controlSQL[a]
	return ok
}

const (
	UpdatedByDevice = "device"
	UpdatedByWeb    = "web"
)

const (
	// SourceDeviceSocket marks reports relayed from the device websocket.
	SourceDeviceSocket = "device_socket"
	// SourceHTTP marks reports posted to the device score endpoint.
	SourceHTTP = "http"
)

// Report is a score pushed by a device. It is the message format on the
// redis channel.
type Report struct {
	DeviceID string `json:"device_id"`
	ScoreA   int    `json:"score_A"`
	ScoreB   int    `json:"score_B"`
	Source   string `json:"source"`
}
