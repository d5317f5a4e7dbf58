package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/wildnest/wildnest/internal/appstate"
	"github.com/wildnest/wildnest/internal/client"
	"github.com/wildnest/wildnest/internal/localstore"
	"github.com/wildnest/wildnest/internal/shared/logging"
)

var errNotSignedIn = errors.New("not signed in: set a token with --token, WILDNEST_TOKEN or the config file")

// Deps are the process-level collaborators of the CLI.
type Deps struct {
	Out        io.Writer
	Err        io.Writer
	HTTPClient *http.Client
	Now        func() time.Time
	Rand       *rand.Rand
}

// app is one CLI invocation: the local engine plus, when signed in, the API client.
type app struct {
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
	store  localstore.Store
	api    *client.Client
	engine *appstate.Engine
}

func openApp(ctx context.Context, s Settings, deps Deps) (*app, error) {
	logger := logging.NewCLILogger(deps.Err, s.Debug)

	store, err := localstore.OpenSQLite(s.DBPath, s.Debug)
	if err != nil {
		return nil, err
	}

	opts := appstate.Options{Store: store, Logger: logger, Clock: deps.Now, Rand: deps.Rand}
	var api *client.Client
	if s.APIURL != "" {
		var clientOpts []client.Option
		if deps.HTTPClient != nil {
			clientOpts = append(clientOpts, client.WithHTTPClient(deps.HTTPClient))
		}
		api = client.New(s.APIURL, s.Token, s.Timeout, clientOpts...)
		if api.Authenticated() {
			opts.Remote = api
			opts.Identifier = api
		}
	}

	a := &app{
		out:    deps.Out,
		errOut: deps.Err,
		logger: logger,
		store:  store,
		api:    api,
		engine: appstate.NewEngine(opts),
	}
	if err := a.engine.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// signIn resolves the token's user and binds local state to it. Failures are shown as
// a notice; the command still runs against local state.
func (a *app) signIn(ctx context.Context) {
	if !a.signedIn() {
		return
	}
	me, err := a.api.Me(ctx)
	if err != nil {
		a.notice("could not reach WildNest: %s", message(err))
		return
	}
	if err := a.engine.Authenticate(ctx, me.ID); err != nil {
		a.notice("profile sync failed: %s", message(err))
	}
}

func (a *app) signedIn() bool { return a.api != nil && a.api.Authenticated() }

func (a *app) requireAPI() (*client.Client, error) {
	if !a.signedIn() {
		return nil, errNotSignedIn
	}
	return a.api, nil
}

func (a *app) notice(format string, args ...any) {
	fmt.Fprintf(a.errOut, "warning: "+format+"\n", args...)
}

func (a *app) Close() error {
	return a.store.Close()
}

// message is the user-facing text of err.
func message(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
