package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Himanshu5634/whiteboard-backend/internal/board"
	"github.com/Himanshu5634/whiteboard-backend/internal/router"
	"github.com/Himanshu5634/whiteboard-backend/internal/server/middleware"
	"github.com/Himanshu5634/whiteboard-backend/pkg/config"
	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore"
	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore/memstore"
	"github.com/Himanshu5634/whiteboard-backend/pkg/state"
	"github.com/Himanshu5634/whiteboard-backend/pkg/state/statemanager"
	"github.com/Himanshu5634/whiteboard-backend/pkg/transport"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

type App struct {
	logger       *slog.Logger
	stateManager state.Manager
	store        docstore.Store
	eventRouter  *router.EventRouter
	wg           sync.WaitGroup
	http         *http.Server
	config       *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config) (*App, error) {
	stateManager := statemanager.NewInMemoryManager(logger)

	store, err := newStore(logger, cfg.Store)
	if err != nil {
		return nil, err
	}
	coordinator := board.NewCoordinator(logger, stateManager, store)
	eventRouter := router.NewEventRouter(logger, stateManager, store, coordinator)

	app := &App{
		logger:       logger,
		stateManager: stateManager,
		store:        store,
		eventRouter:  eventRouter,
		config:       cfg,
		ctx:          rootCtx,
	}

	mux := http.NewServeMux()
	upgradeHandler := http.HandlerFunc(app.upgradeHandler)
	// Create a cycler that closes over the stateManager and logger.
	connCycler := func(ip string) {
		oldest, found := stateManager.FindOldestIPConnection(ip)
		if found {
			logger.Info("Cycling connection: closing oldest", "ip", ip, "connID", oldest.ID)
			oldest.Transport.Close(errors.New("connection cycled by new connection"))
		}
	}

	middlewares := []middleware.Middleware{
		middleware.RequestMetadataMiddleware(),
		middleware.NewRequestLogger(app.logger),
		middleware.NewConnectionLimiter(
			logger,
			stateManager.GetIPConnectionCount,
			connCycler,
			app.config.Server.ConnectionLimit,
		),
	}
	if cfg.Server.Auth.Enabled {
		middlewares = append(middlewares, middleware.NewAuthMiddleware(logger, cfg.Server.Auth.JWTSecret))
	}
	mux.Handle("/ws", middleware.Chain(upgradeHandler, middlewares...))

	app.http = &http.Server{Addr: app.config.Server.Address, Handler: mux, BaseContext: func(l net.Listener) context.Context {
		return app.ctx
	}}

	return app, nil
}

func newStore(logger *slog.Logger, cfg config.StoreConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memstore.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(slog.String("remoteAddr", reqMeta.IP))

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig{
			ReadTimeout: a.config.Transport.ReadTimeout,
			SendBuffer:  a.config.Transport.SendBuffer,
		},
		a.logger,
	)
	if _, err := a.stateManager.RegisterConnection(conn.ID(), conn, reqMeta.IP); err != nil {
		connLogger.Error("Failed to register connection state", slog.Any("error", err))
		conn.Close(err)
		return
	}

	conn.SetOnMessageHandler(a.eventRouter.HandleMessage)
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		connLogger.Info("Running leave protocol for closed connection", slog.String("connID", id.String()))
		// Leave first so remaining members see user-left and fresh presence,
		// then drop the registry entry. Unconditional: a connection that
		// never joined leaves nothing behind.
		a.eventRouter.HandleDisconnect(id)
		if dErr := a.stateManager.DeregisterConnection(id); dErr != nil {
			connLogger.Error("Failed to deregister connection from state", slog.Any("error", dErr))
		}
	})

	connLogger.Info("Connection fully established", slog.String("connID", conn.ID().String()))
	conn.Run()
	<-conn.Done()
}

// Shutdown runs the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	for _, conn := range a.stateManager.GetAllConnections() {
		conn.Transport.Close(errors.New("graceful shutdown"))
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	a.logger.Info("Server shut down gracefully.")
	return nil
}
