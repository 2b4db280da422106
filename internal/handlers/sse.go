package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"table-service-go/internal/app"
	"table-service-go/internal/domain"
)

// topicsFor picks the event stream for the caller: guests follow one table,
// chefs their station (or every station), front of house the whole floor.
func topicsFor(r *http.Request) ([]string, bool) {
	q := r.URL.Query()
	var topics []string
	if id, ok := parseInt64(q.Get("table")); ok {
		topics = append(topics, app.TopicTable(id))
	}

	st := app.CurrentStaff(r)
	if st == nil {
		return topics, len(topics) > 0
	}
	switch st.Role {
	case app.RoleChef:
		if station, ok := domain.ParseStation(q.Get("station")); ok {
			topics = append(topics, app.TopicStation(station))
		} else {
			topics = append(topics, app.TopicRole(app.RoleChef))
		}
	default:
		if len(topics) == 0 {
			topics = append(topics, app.TopicFloor())
		}
	}
	return topics, true
}

func (s *Server) EventsGet(w http.ResponseWriter, r *http.Request) {
	topics, ok := topicsFor(r)
	if !ok {
		app.WriteFail(w, http.StatusUnauthorized, app.CodeUnauthorized, "login required, or pass ?table=<id>")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.WriteFail(w, http.StatusInternalServerError, "Internal", "streaming unsupported")
		return
	}

	ch, cancel := s.App.SSE().Subscribe(topics, 32)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	hello, _ := json.Marshal(map[string]any{"ok": true, "topics": topics, "ts": time.Now().Unix()})
	fmt.Fprintf(w, "event: hello\ndata: %s\n\n", hello)
	flusher.Flush()

	keep := time.NewTicker(25 * time.Second)
	defer keep.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keep.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(ev.Data)
			if err != nil {
				s.App.Logger().Error("encode sse event", "type", ev.Type, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, b)
			flusher.Flush()
		}
	}
}
