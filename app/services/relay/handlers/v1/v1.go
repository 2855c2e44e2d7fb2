// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/chainrelay/app/services/relay/handlers/v1/private"
	"github.com/ardanlabs/chainrelay/app/services/relay/handlers/v1/public"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/state"
	"github.com/ardanlabs/chainrelay/foundation/events"
	"github.com/ardanlabs/chainrelay/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/proof/asset/:txid", pbl.AssetProof)
	app.Handle(http.MethodPost, version, "/proof/extend", pbl.ExtendProof)
	app.Handle(http.MethodGet, version, "/proof/root/:symbol/:ccid/:height", pbl.ProofRoot)
	app.Handle(http.MethodGet, version, "/notarization/next/:txid", pbl.NextBackNotarization)
	app.Handle(http.MethodPost, version, "/import/complete", pbl.CompleteImport)
	app.Handle(http.MethodPost, version, "/import/verify", pbl.VerifyImport)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/block/:number", prv.BlockByNumber)
	app.Handle(http.MethodPost, version, "/node/block", prv.ProposeBlock)
	app.Handle(http.MethodPost, version, "/node/tx", prv.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/node/notarizations", prv.AddNotarizations)
	app.Handle(http.MethodPost, version, "/node/backnotarization", prv.AddBackNotarization)
}
