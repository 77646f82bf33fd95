package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"tournament-join-service/logger"
)

// StreamSession pushes a "session" event whenever the snapshot changes, so the browser can
// render the countdown and open the checkout. The stream ends once the session resolves or closes.
func StreamSession(c *fiber.Ctx, ctl *Controller, interval time.Duration, log *logger.Logger) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	done := c.Context().Done()
	stream := newSnapshotStream(ctl, log)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if finished, ok := stream.push(w); finished || !ok {
			return
		}

		for {
			select {
			case <-ticker.C:
				finished, ok := stream.push(w)
				if !ok || finished {
					// client gone or nothing more to report
					return
				}
			case <-done:
				return
			}
		}
	})

	return nil
}

type snapshotStream struct {
	ctl    *Controller
	encode func(v any) ([]byte, error)
	log    *logger.Logger
	last   []byte
}

func newSnapshotStream(ctl *Controller, log *logger.Logger) *snapshotStream {
	if log == nil {
		log = logger.Nop()
	}
	return &snapshotStream{ctl: ctl, encode: json.Marshal, log: log}
}

// push writes the current snapshot if it changed. ok is false when the stream must end
// without a further event.
func (s *snapshotStream) push(w *bufio.Writer) (finished bool, ok bool) {
	snap := s.ctl.Snapshot()
	payload, err := s.encode(snap)
	if err != nil {
		s.log.Error("[STREAM] failed to encode session snapshot", "session", snap.SessionID, "error", err)
		return false, false
	}
	finished = snap.Phase.Terminal() || s.ctl.Closed()
	if string(payload) == string(s.last) && !finished {
		return false, true
	}
	s.last = payload
	event := "session"
	if finished {
		event = "resolved"
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return finished, w.Flush() == nil
}
