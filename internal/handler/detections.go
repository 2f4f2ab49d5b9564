package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"partcounter/internal/logger"
	"partcounter/internal/model"
	"partcounter/internal/service"
)

// maxFrameBytes bounds a single tracker message.
const maxFrameBytes = 1 << 20

// DetectionsHandler handles POST /api/detections. The body is one tracker
// frame, either {"detections": [...]} or a bare array. The optional camera
// query parameter overrides the camera in the body.
func DetectionsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes+1))
		if err != nil {
			logger.Error("Error reading detections body: %v", err)
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}
		if len(body) > maxFrameBytes {
			http.Error(w, "Frame too large", http.StatusRequestEntityTooLarge)
			return
		}

		var frame model.Frame
		if err := json.Unmarshal(body, &frame); err != nil {
			logger.Warning("Invalid detections payload: %v", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if camera := r.URL.Query().Get("camera"); camera != "" {
			frame.Camera = camera
		}
		logDropped(logger, frame)

		writeJSON(w, logger, http.StatusOK, manager.ProcessDetections(frame))
	}
}

// TrackerWebsocketHandler accepts a long-lived tracker connection. Every text
// message is one frame; the result of each frame is written back.
func TrackerWebsocketHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("camera")

		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		connection.SetReadLimit(maxFrameBytes)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		logger.Info("Tracker connected: %s", camera)

		for {
			_, msg, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Tracker %s disconnected normally", camera)
				} else {
					logger.Error("Error reading tracker message: %v", err)
				}
				return
			}
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))

			var frame model.Frame
			if err := json.Unmarshal(msg, &frame); err != nil {
				logger.Warning("Invalid tracker frame from %s: %v", camera, err)
				continue
			}
			if camera != "" {
				frame.Camera = camera
			}
			logDropped(logger, frame)

			if err := connection.WriteJSON(manager.ProcessDetections(frame)); err != nil {
				logger.Error("Error writing tracker reply: %v", err)
				return
			}
		}
	}
}

func logDropped(logger *logger.Logger, frame model.Frame) {
	if frame.Dropped > 0 {
		logger.Warning("Dropped %d malformed detection(s) from camera %q", frame.Dropped, frame.Camera)
	}
}
