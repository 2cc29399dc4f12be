// Package remote hands a synthesized circuit to an execution service over
// socket.io and waits for the measured counts.
//
// The service receives one submit event carrying
//
//	{"circuit": <artifact>, "shots": N, "seed": S}
//
// and answers with a result event carrying {"counts": {"00": 510, ...}} or
// {"error": "..."}.
package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/sim"
	"github.com/pkg/errors"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	DefaultSubmitEvent = "circuit"
	DefaultResultEvent = "counts"
	DefaultTimeout     = 30 * time.Second
)

// ErrRemote wraps every failure reported by, or talking to, the service.
var ErrRemote = errors.New("remote: execution failed")

// Options configures a Client.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	SubmitEvent        string
	ResultEvent        string
	Timeout            time.Duration
}

// Client submits circuits to one service.
type Client struct {
	opts    Options
	baseURL string
	path    string
}

// New validates opts and fills in defaults. It does not connect.
func New(opts Options) (*Client, error) {
	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, errors.Wrapf(ErrRemote, "failed to parse URL %q: %v", opts.URL, err)
	}
	switch parsedURL.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, errors.Wrapf(ErrRemote, "unsupported URL scheme %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, errors.Wrapf(ErrRemote, "URL %q has no host", opts.URL)
	}
	if opts.Namespace == "" {
		opts.Namespace = "/"
	}
	if opts.SubmitEvent == "" {
		opts.SubmitEvent = DefaultSubmitEvent
	}
	if opts.ResultEvent == "" {
		opts.ResultEvent = DefaultResultEvent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		opts:    opts,
		baseURL: fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host),
		path:    parsedURL.Path,
	}, nil
}

type opResult struct {
	counts sim.Counts
	err    error
}

// Execute connects, submits c and returns the counts the service reports.
// The whole exchange is bounded by the client timeout and ctx.
func (cl *Client) Execute(ctx context.Context, c *circuit.Circuit, shots int, seed uint64) (sim.Counts, error) {
	logger := ctxlog.FromContext(ctx).With("backend", "remote", "url", cl.baseURL, "namespace", cl.opts.Namespace)
	logger.Debug("Remote execution started.")
	defer logger.Debug("Remote execution finished.")

	artifact, err := c.Artifact()
	if err != nil {
		return nil, err
	}
	payload := map[string]any{"circuit": artifact, "shots": shots, "seed": seed}

	opts := socket.DefaultOptions()
	if cl.path != "" {
		opts.SetPath(cl.path)
	}
	if cl.opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	opCtx, cancel := context.WithTimeout(ctx, cl.opts.Timeout)
	defer cancel()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	send := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	manager := socket.NewManager(cl.baseURL, opts)
	io := manager.Socket(cl.opts.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Connected, submitting circuit.", "sid", io.Id(), "ops", c.Len(), "shots", shots)
		io.Emit(cl.opts.SubmitEvent, payload)
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		var err error = errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		send(opResult{err: errors.Wrapf(ErrRemote, "socket.io connection failed: %v", err)})
	})
	io.On(types.EventName(cl.opts.ResultEvent), func(data ...any) {
		if len(data) == 0 {
			send(opResult{err: errors.Wrap(ErrRemote, "empty result event")})
			return
		}
		counts, err := parseCounts(data[0])
		send(opResult{counts: counts, err: err})
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, errors.Wrapf(ErrRemote, "timed out after connecting while waiting for event %q", cl.opts.ResultEvent)
		}
		return nil, errors.Wrap(ErrRemote, "timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		logger.Info("Received counts.", "outcomes", len(res.counts), "shots", res.counts.Total())
		return res.counts, nil
	}
}

// parseCounts reads a decoded JSON result event.
func parseCounts(data any) (sim.Counts, error) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrRemote, "result is %T, want an object", data)
	}
	if msg, ok := obj["error"]; ok && msg != nil {
		return nil, errors.Wrapf(ErrRemote, "service error: %v", msg)
	}
	raw, ok := obj["counts"].(map[string]any)
	if !ok {
		return nil, errors.Wrap(ErrRemote, "result has no counts object")
	}
	counts := make(sim.Counts, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
			return nil, errors.Wrapf(ErrRemote, "count for %q is %v, want a non-negative integer", k, v)
		}
		for _, r := range k {
			if r != '0' && r != '1' {
				return nil, errors.Wrapf(ErrRemote, "outcome %q is not a bit string", k)
			}
		}
		counts[k] = int(f)
	}
	return counts, nil
}
