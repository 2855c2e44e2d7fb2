// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/chainrelay/business/sys/validate"
	"github.com/ardanlabs/chainrelay/business/web/errs"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/state"
	"github.com/ardanlabs/chainrelay/foundation/events"
	"github.com/ardanlabs/chainrelay/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of proof endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the relay.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the relay or ticker.
	for {
		select {
		case e, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, e.JSON()); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// AssetProof returns the proof of a transaction of this chain up to the MoM
// of the checkpoint covering it.
func (h Handlers) AssetProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txid, err := toHash("txid", web.Param(r, "txid"))
	if err != nil {
		return err
	}

	p, err := h.State.AssetChainProof(txid)
	if err != nil {
		return fmt.Errorf("asset proof: %w", err)
	}

	resp, err := toProof(txid, p)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ExtendProof extends an asset chain proof up to the MoMoM of the target
// chain.
func (h Handlers) ExtendProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req extendRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	txid, err := toHash("txid", req.Txid)
	if err != nil {
		return err
	}

	src, err := merkle.TxProofFromHex(req.Proof)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("proof: %w", err), http.StatusBadRequest)
	}

	p, err := h.State.ExtendProof(txid, req.Symbol, req.CCID, src)
	if err != nil {
		return fmt.Errorf("extend proof: %w", err)
	}

	resp, err := toProof(txid, p)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProofRoot returns the MoMoM over the window ending at the notarization of
// the named chain at or below the height.
func (h Handlers) ProofRoot(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ccid, err := strconv.ParseUint(web.Param(r, "ccid"), 10, 32)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("ccid: %w", err), http.StatusBadRequest)
	}

	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("height: %w", err), http.StatusBadRequest)
	}

	pr, err := h.State.ProofRoot(web.Param(r, "symbol"), uint32(ccid), height)
	if err != nil {
		return fmt.Errorf("proof root: %w", err)
	}

	return web.Respond(ctx, w, toProofRoot(pr), http.StatusOK)
}

// NextBackNotarization returns the back notarization following the one that
// acknowledges the reference chain transaction.
func (h Handlers) NextBackNotarization(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	refTxid, err := toHash("txid", web.Param(r, "txid"))
	if err != nil {
		return err
	}

	nota, err := h.State.NextBackNotarization(refTxid)
	if err != nil {
		return fmt.Errorf("next back notarization: %w", err)
	}

	return web.Respond(ctx, w, nota, http.StatusOK)
}

// CompleteImport swaps the asset chain proof carried by an import
// transaction for the proof against the target chain's MoMoM.
func (h Handlers) CompleteImport(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req importRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	tx, err := toTx(req.Tx)
	if err != nil {
		return err
	}

	final, err := h.State.CompleteImport(tx)
	if err != nil {
		return fmt.Errorf("complete import: %w", err)
	}

	resp, err := toImportTx(final)
	if err != nil {
		return err
	}

	h.Log.Infow("complete import", "traceid", v.TraceID, "txid", resp.Txid)

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// VerifyImport checks an import transaction against the MoMoM of this chain.
func (h Handlers) VerifyImport(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req verifyRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	tx, err := toTx(req.Tx)
	if err != nil {
		return err
	}

	momom, err := toHash("momom", req.MoMoM)
	if err != nil {
		return err
	}

	burn, err := h.State.VerifyImport(tx, importParams(req), momom)
	if err != nil {
		return fmt.Errorf("verify import: %w", err)
	}

	return web.Respond(ctx, w, verified{Valid: true, Burn: burn}, http.StatusOK)
}
