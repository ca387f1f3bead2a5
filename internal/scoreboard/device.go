package scoreboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/realtime"
)

const deviceReadTimeout = 60 * time.Second

type deviceMessage struct {
	DeviceID string `json:"device_id"`
	ScoreA   *int   `json:"score_A"`
	ScoreB   *int   `json:"score_B"`
}

// DeviceHandler serves the socket scoreboard devices connect to. A device
// identifies itself with device_id in its first message; later messages
// carrying both scores are published as reports.
func DeviceHandler(pub ReportPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := realtime.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("Device websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		log.Info("Scoreboard device connected", "remote", r.RemoteAddr)

		var deviceID string
		for {
			conn.SetReadDeadline(time.Now().Add(deviceReadTimeout))
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Info("Scoreboard device disconnected", "deviceID", deviceID, "error", err)
				return
			}

			var msg deviceMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Warn("Received invalid JSON from device", "deviceID", deviceID, "error", err)
				continue
			}
			if deviceID == "" && msg.DeviceID != "" {
				deviceID = msg.DeviceID
				log.Info("Registered scoreboard device", "deviceID", deviceID)
			}
			if deviceID == "" || msg.ScoreA == nil || msg.ScoreB == nil {
				continue
			}

			report := Report{DeviceID: deviceID, ScoreA: *msg.ScoreA, ScoreB: *msg.ScoreB, Source: SourceDeviceSocket}
			if err := pub.Publish(r.Context(), report); err != nil {
				log.Error("Failed to publish device report", "deviceID", deviceID, "error", err)
			}
		}
	}
}
