package httpapi

import (
	"chat-hub/auth"
	"chat-hub/observability"
	"chat-hub/services"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Router exposes the hub over HTTP: account endpoints, group lifecycle,
// conversation history and search, presence, and the operational snapshot.
type Router struct {
	log         *slog.Logger
	authService services.IAuthService
	chat        services.IChatService
	groups      services.IGroupService
	stats       *observability.HubStats
	ws          http.Handler
	searchLimit int
}

func NewRouter(
	log *slog.Logger,
	authService services.IAuthService,
	chat services.IChatService,
	groups services.IGroupService,
	stats *observability.HubStats,
	ws http.Handler,
	searchLimit int,
) *Router {
	return &Router{
		log:         log,
		authService: authService,
		chat:        chat,
		groups:      groups,
		stats:       stats,
		ws:          ws,
		searchLimit: searchLimit,
	}
}

// Handler builds the full route tree. Everything under /api requires a
// Bearer token; /auth and /ws manage their own authentication.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(true)

	r.HandleFunc("/auth/register", rt.register).Methods("POST")
	r.HandleFunc("/auth/login", rt.login).Methods("POST")
	r.Handle("/ws", rt.ws)
	r.HandleFunc("/healthz", rt.health).Methods("GET")
	r.HandleFunc("/stats", rt.statsSnapshot).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware)
	api.HandleFunc("/groups", rt.createGroup).Methods("POST")
	api.HandleFunc("/groups/my", rt.myGroups).Methods("GET")
	api.HandleFunc("/groups/{id}", rt.getGroup).Methods("GET")
	api.HandleFunc("/groups/{id}", rt.updateGroup).Methods("PATCH")
	api.HandleFunc("/groups/{id}", rt.deleteGroup).Methods("DELETE")
	api.HandleFunc("/conversations/{conversation}/messages", rt.history).Methods("GET")
	api.HandleFunc("/conversations/{conversation}/search", rt.search).Methods("GET")
	api.HandleFunc("/conversations/{conversation}/seen", rt.markSeen).Methods("POST")
	api.HandleFunc("/presence/{identity}", rt.presence).Methods("GET")

	h := handlers.RecoveryHandler()(r)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(h)
	return handlers.CombinedLoggingHandler(os.Stdout, h)
}
