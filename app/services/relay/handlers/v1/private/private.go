// Package private maintains the group of handlers that feed chain data into
// the relay node.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/chainrelay/business/sys/validate"
	"github.com/ardanlabs/chainrelay/business/web/errs"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/database"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/notarydb"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/state"
	"github.com/ardanlabs/chainrelay/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node feed endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// ProposeBlock takes a block received from the chain feed, validates it and
// if that passes, adds the block to the local chain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	// Decode the JSON in the post call into a file system block.
	var blockData database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	// Convert the block data into a block. The hash carried by the feed
	// must match the header.
	block, err := database.ToBlock(blockData)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode block: %w", err), http.StatusBadRequest)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the chain database.
	if err := h.State.ProcessProposedBlock(block); err != nil {
		if errors.Is(err, database.ErrChainForked) || errors.Is(err, state.ErrBlockUnlinked) {
			return errs.NewTrusted(err, http.StatusConflict)
		}

		return errs.NewTrusted(fmt.Errorf("block not accepted: %w", err), http.StatusNotAcceptable)
	}

	return web.Respond(ctx, w, accepted{Status: "accepted"}, http.StatusOK)
}

// SubmitTransaction records a transaction that is not yet in a block.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.BlockTx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if len(tx.Data) == 0 {
		return errs.NewTrusted(errors.New("transaction data is empty"), http.StatusBadRequest)
	}

	h.State.SubmitTransaction(tx)

	txid := tx.TxID()
	h.Log.Infow("submit tran", "traceid", v.TraceID, "txid", txid)

	return web.Respond(ctx, w, submitted{Txid: txid, Status: "unconfirmed"}, http.StatusOK)
}

// AddNotarizations indexes the notarizations carried by a block.
func (h Handlers) AddNotarizations(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req notarizations
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	if err := h.State.AddNotarizations(req.BlockHash, req.Notarizations); err != nil {
		return fmt.Errorf("add notarizations: %w", err)
	}

	return web.Respond(ctx, w, accepted{Status: "indexed"}, http.StatusOK)
}

// AddBackNotarization records a back notarization of this chain.
func (h Handlers) AddBackNotarization(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nota crosschain.Notarization
	if err := web.Decode(r, &nota); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	idx, err := h.State.AddBackNotarization(nota)
	if err != nil {
		if errors.Is(err, notarydb.ErrCheckpointOrder) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return err
	}

	return web.Respond(ctx, w, checkpoint{Index: idx}, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status, err := h.State.QueryStatus()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlockByNumber returns the block at the specified height.
func (h Handlers) BlockByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	num, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil || num == 0 {
		return errs.NewTrusted(fmt.Errorf("invalid block number %q", web.Param(r, "number")), http.StatusBadRequest)
	}

	if num > h.State.QueryLatestBlock().Number {
		return errs.NewTrusted(fmt.Errorf("block %d not found", num), http.StatusNotFound)
	}

	block, err := h.State.QueryBlock(num)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}
