package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"CrewChat/internal/config"
	"CrewChat/internal/http-server/handlers/attachment"
	"CrewChat/internal/http-server/handlers/conversation"
	"CrewChat/internal/http-server/handlers/errors"
	"CrewChat/internal/http-server/handlers/group"
	"CrewChat/internal/http-server/handlers/message"
	"CrewChat/internal/http-server/middleware/authenticate"
	"CrewChat/internal/http-server/middleware/timeout"
	"CrewChat/internal/lib/sl"
	"CrewChat/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	conversation.Core
	message.Core
	group.Core
	attachment.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(timeout.Timeout(30))
		v1.Use(render.SetContentType(render.ContentTypeJSON))
		v1.Use(authenticate.New(log, handler))

		v1.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversation.List(log, handler))
			r.Post("/start", conversation.Start(log, handler))
			r.Post("/{id}/read", conversation.MarkRead(log, handler))
			r.Get("/{id}/messages", message.List(log, handler))
			r.Post("/{id}/messages", message.Send(log, handler))
		})
		v1.Route("/groups", func(r chi.Router) {
			r.Post("/", group.Create(log, handler))
			r.Post("/{id}/participants", group.AddParticipants(log, handler))
			r.Delete("/{id}/participants/{userID}", group.RemoveParticipant(log, handler))
			r.Delete("/{id}", group.Delete(log, handler))
		})
		v1.Route("/attachments", func(r chi.Router) {
			r.Post("/", attachment.Upload(log, handler))
		})
	})

	// Signed URLs carry their own authorization; stays outside the
	// bearer-token middleware.
	router.Get("/files/{id}", attachment.Download(log, handler))

	// WebSocket auth reads the token query param inside ServeWs.
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, handler, log, w, r)
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
