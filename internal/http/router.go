package http

import (
	"net/http"
	"strings"
)

// RouterConfig lists the handlers and middleware the router should mount.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Events     *EventHandler
	Calendars  *CalendarHandler
	Recurrence *RecurrenceHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the API routes on a plain ServeMux.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/events/")
			if id == "" {
				http.NotFound(w, r)
				return
			}

			if rest, ok := strings.CutSuffix(id, "/resize"); ok {
				if rest == "" {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				r = r.WithContext(ContextWithEventID(r.Context(), rest))
				cfg.Events.Resize(w, r)
				return
			}

			if strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}

			r = r.WithContext(ContextWithEventID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Events.Get(w, r)
			case http.MethodPut:
				cfg.Events.Update(w, r)
			case http.MethodDelete:
				cfg.Events.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Calendars != nil {
		mux.HandleFunc("/calendars/", func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimPrefix(r.URL.Path, "/calendars/")

			if id, ok := strings.CutSuffix(path, "/layout"); ok && id != "" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				r = r.WithContext(ContextWithCalendarID(r.Context(), id))
				cfg.Calendars.Layout(w, r)
				return
			}

			if id, ok := strings.CutSuffix(path, "/feed.ics"); ok && id != "" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				r = r.WithContext(ContextWithCalendarID(r.Context(), id))
				cfg.Calendars.Feed(w, r)
				return
			}

			http.NotFound(w, r)
		})
	}

	if cfg.Recurrence != nil {
		mux.HandleFunc("/recurrence/preview", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Recurrence.Preview(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
