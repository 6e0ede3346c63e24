package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-astrox/config"
	"github.com/gaborage/go-astrox/httpclient"
	"github.com/gaborage/go-astrox/logger"
	"github.com/gaborage/go-astrox/observability"
)

// RequestOptions holds the flags shared by commands that call the API
type RequestOptions struct {
	DataFile   string
	ConfigPath string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func (o *RequestOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.DataFile, "data", "d", "", "Request body file, or - for stdin (default {})")
	flags.StringVarP(&o.ConfigPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&o.BaseURL, "base-url", "", "Override api.baseurl")
	flags.DurationVar(&o.Timeout, "timeout", 0, "Override api.timeout")
	flags.IntVar(&o.MaxRetries, "max-retries", 0, "Override api.maxretries")
	flags.DurationVar(&o.RetryDelay, "retry-delay", 0, "Override api.retrydelay")
}

// runner is what a command needs to issue requests.
type runner struct {
	log       logger.Logger
	client    httpclient.Client
	payload   httpclient.Payload
	telemetry observability.Provider
}

func (s *runner) close() {
	if err := observability.Shutdown(s.telemetry, 0); err != nil {
		s.log.Warn().Err(err).Msg("Failed to flush telemetry")
	}
}

// open loads configuration, applies flag overrides and builds the client.
func (o *RequestOptions) open(cmd *cobra.Command) (*runner, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	reqCfg := cfg.RequestConfig()
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		reqCfg.BaseURL = o.BaseURL
	}
	if flags.Changed("timeout") {
		reqCfg.Timeout = o.Timeout
	}
	if flags.Changed("max-retries") {
		reqCfg.MaxRetries = o.MaxRetries
	}
	if flags.Changed("retry-delay") {
		reqCfg.RetryDelay = o.RetryDelay
	}

	payload, err := readPayload(cmd.InOrStdin(), o.DataFile)
	if err != nil {
		return nil, err
	}

	log := cfg.NewLogger(cmd.ErrOrStderr())
	client, err := httpclient.New(reqCfg, cfg.ClientOptions(log)...)
	if err != nil {
		return nil, err
	}

	telemetry, err := cfg.NewTelemetry(cmd.ErrOrStderr(), log)
	if err != nil {
		return nil, err
	}

	return &runner{log: log, client: client, payload: payload, telemetry: telemetry}, nil
}

// NewPostCommand creates the post command
func NewPostCommand() *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "post <endpoint>",
		Short: "POST a JSON object to an ASTROX endpoint",
		Long: `Posts a JSON object to the given endpoint and prints the response object.

Transient failures (5xx, timeouts, dropped connections) are retried with
exponential backoff. Logs go to stderr; the response goes to stdout.`,
		Example: `  # Body from a file
  astrox post /Propagator/TwoBody -d twobody.json

  # Body from stdin against a local server
  cat sgp4.json | astrox post /Propagator/sgp4 -d - --base-url http://localhost:8765`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, args[0], opts)
		},
	}

	opts.bind(cmd)
	return cmd
}

func runPost(cmd *cobra.Command, endpoint string, opts *RequestOptions) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := logger.WithAPICounter(cmd.Context())
	data, err := s.client.Post(ctx, endpoint, s.payload)

	event := s.log.Info()
	if err != nil {
		event = s.log.Error().Err(err)
	}
	event.Str("endpoint", endpoint).
		Int64("api_calls", logger.APICallCount(ctx)).
		Dur("api_elapsed", logger.APIElapsed(ctx)).
		Msg("ASTROX call finished")

	if err != nil {
		return err
	}
	return writeJSON(cmd, data)
}

// readPayload returns nil (an empty object) when source is empty.
func readPayload(stdin io.Reader, source string) (httpclient.Payload, error) {
	var (
		raw []byte
		err error
	)
	switch source {
	case "":
		return nil, nil
	case "-":
		raw, err = io.ReadAll(stdin)
	default:
		raw, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("request body must be a JSON object, got null")
	}
	return httpclient.Raw(fields), nil
}
