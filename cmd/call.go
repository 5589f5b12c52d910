package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/ddp/client"
	"github.com/luma/ddp/internal/env"
)

var (
	// The DDP endpoint to connect to
	callURL string

	// The method parameters, each a JSON value
	callParams []string

	// How long to wait for the server's reply
	callTimeout time.Duration
)

func init() {
	flags := CallCmd.PersistentFlags()

	flags.StringVarP(&callURL, "url", "u", "", "The DDP endpoint, e.g. ws://example.com/websocket")
	flags.StringArrayVarP(&callParams, "param", "p", nil, "A method parameter as a JSON value (repeatable)")
	flags.DurationVar(&callTimeout, "timeout", 10*time.Second, "How long to wait for the reply")
}

var CallCmd = &cobra.Command{
	Use:   "call <method>",
	Short: "Invoke a single remote procedure and print its result",
	Long: `Invoke a single remote procedure and print its result

Usage
	ddp call getServerTime --url ws://example.com/websocket
	ddp call /todos/insert -p '{"title":"hi"}'

`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		log, err := env.MakeLogger()
		if err != nil {
			return err
		}

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		if callURL == "" {
			callURL = conf.ServerURL
		}
		if callURL == "" {
			return errors.New("no DDP endpoint given, pass --url or set DDP_SERVER_URL")
		}

		params := make([]interface{}, 0, len(callParams))
		for _, raw := range callParams {
			if !gjson.Valid(raw) {
				return fmt.Errorf("parameter is not valid JSON: %s", raw)
			}
			params = append(params, gjson.Parse(raw).Value())
		}

		c, err := client.New(client.Options{
			URL: callURL,
			Log: log.Named("ddp"),
		})
		if err != nil {
			return err
		}
		defer c.Disconnect()

		done := make(chan error, 1)
		c.SetCallback(callCallback{log: log, done: done})

		if err := c.Connect(); err != nil {
			return err
		}

		c.Call(args[0], params, client.ResultFunc{
			Success: func(resultJSON string) {
				fmt.Println(resultJSON)
				done <- nil
			},
			Error: func(errName, reason, details string) {
				done <- fmt.Errorf("%s: %s %s", errName, reason, details)
			},
		})

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

// callCallback surfaces session failures so a one-shot call does not hang
// until the timeout when the handshake goes wrong.
type callCallback struct {
	log  *zap.Logger
	done chan error
}

func (c callCallback) OnConnect() {}

func (c callCallback) OnDisconnect(code int, reason string) {
	select {
	case c.done <- fmt.Errorf("disconnected: %d %s", code, reason):
	default:
	}
}

func (c callCallback) OnException(err error) {
	c.log.Warn("Session error", zap.Error(err))
}

func (c callCallback) OnDataAdded(collection, documentID, fieldsJSON string)                  {}
func (c callCallback) OnDataChanged(collection, documentID, updatedJSON, clearedJSON string) {}
func (c callCallback) OnDataRemoved(collection, documentID string)                           {}

var _ client.Callback = callCallback{}
