package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/ddp/client"
	"github.com/luma/ddp/internal/env"
)

var (
	// The DDP endpoint to connect to
	serverURL string

	// The subscriptions to open once connected
	subscriptions []string

	// The host to serve the status endpoints on
	host string

	// The port to serve the status endpoints on
	httpPort string
)

func init() {
	flags := WatchCmd.PersistentFlags()

	flags.StringVarP(&serverURL, "url", "u", "", "The DDP endpoint, e.g. ws://example.com/websocket")
	flags.StringArrayVarP(&subscriptions, "subscribe", "s", nil, "A subscription to open once connected (repeatable)")
	flags.StringVar(&httpPort, "http-port", "7362", "The port to serve the status endpoints on")
	flags.StringVarP(&host, "host", "a", "0.0.0.0", "The host to serve the status endpoints on")
}

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect to a DDP server and log collection changes",
	Long: `Connect to a DDP server and log collection changes

Usage
	ddp watch --url ws://example.com/websocket --subscribe todos

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger()
		if err != nil {
			return err
		}

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		if serverURL == "" {
			serverURL = conf.ServerURL
		}
		if serverURL == "" {
			return errors.New("no DDP endpoint given, pass --url or set DDP_SERVER_URL")
		}

		c, err := client.New(client.Options{
			URL: serverURL,
			Log: log.Named("ddp"),
		})
		if err != nil {
			return err
		}

		c.SetCallback(&watchCallback{log: log.Named("events"), client: c})

		if err := c.Connect(); err != nil {
			return err
		}

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(gc *gin.Context) {
			gc.String(http.StatusOK, "pong")
		})

		router.GET("/status", func(gc *gin.Context) {
			gc.JSON(http.StatusOK, gin.H{"connected": c.IsConnected()})
		})

		s := &http.Server{
			Addr:    net.JoinHostPort(host, httpPort),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Watching",
			zap.String("url", serverURL),
			zap.Strings("subscriptions", subscriptions),
			zap.String("host", host),
			zap.String("httpPort", httpPort))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(ctx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		c.Disconnect()

		log.Info("Exiting")
		return nil
	},
}

// watchCallback logs every server event and opens the requested subscriptions
// each time a session is established.
type watchCallback struct {
	log    *zap.Logger
	client *client.Client
}

func (w *watchCallback) OnConnect() {
	w.log.Info("Connected")

	for _, name := range subscriptions {
		name := name
		w.client.Subscribe(name, nil, client.SubscribeFunc{
			Ready: func() {
				w.log.Info("Subscription ready", zap.String("name", name))
			},
			Error: func(errName, reason, details string) {
				w.log.Warn("Subscription refused",
					zap.String("name", name),
					zap.String("error", errName),
					zap.String("reason", reason),
					zap.String("details", details))
			},
		})
	}
}

func (w *watchCallback) OnDisconnect(code int, reason string) {
	w.log.Warn("Disconnected",
		zap.Int("code", code),
		zap.String("reason", reason))
}

func (w *watchCallback) OnException(err error) {
	w.log.Error("Session error", zap.Error(err))
}

func (w *watchCallback) OnDataAdded(collection, documentID, fieldsJSON string) {
	w.log.Info("Added",
		zap.String("collection", collection),
		zap.String("id", documentID),
		zap.String("fields", fieldsJSON))
}

func (w *watchCallback) OnDataChanged(collection, documentID, updatedJSON, clearedJSON string) {
	w.log.Info("Changed",
		zap.String("collection", collection),
		zap.String("id", documentID),
		zap.String("updated", updatedJSON),
		zap.String("cleared", clearedJSON))
}

func (w *watchCallback) OnDataRemoved(collection, documentID string) {
	w.log.Info("Removed",
		zap.String("collection", collection),
		zap.String("id", documentID))
}

var _ client.Callback = (*watchCallback)(nil)

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))

	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}
