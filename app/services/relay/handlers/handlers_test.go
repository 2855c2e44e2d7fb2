package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ardanlabs/chainrelay/app/services/relay/handlers"
	"github.com/ardanlabs/chainrelay/business/web/errs"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/database"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/database/storage"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/notarydb"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/state"
	"github.com/ardanlabs/chainrelay/foundation/events"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Routes(t *testing.T) {
	public, private := newMuxes(t)

	b1, err := database.NewBlock(database.BlockHeader{}, time.Unix(1_700_000_000, 0), []database.BlockTx{
		database.NewBlockTx([]byte("burn")),
		database.NewBlockTx([]byte("other")),
	})
	if err != nil {
		t.Fatalf("Should be able to build a block: %v", err)
	}
	txid := b1.Trans[0].TxID()

	t.Log("Given the need to serve proofs over http.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the chain is fed a block.", testID)
		{
			w := call(t, private, http.MethodPost, "/v1/node/block", database.NewBlockData(b1))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould accept the block: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the block.", success, testID)

			w = call(t, private, http.MethodGet, "/v1/node/status", nil)
			var status state.Status
			decode(t, w, &status)
			if w.Code != http.StatusOK || status.Chain.Height != 1 || status.ScanWindow != crosschain.DefaultScanWindow {
				t.Fatalf("\t%s\tTest %d:\tShould report the node status: %d %+v", failed, testID, w.Code, status)
			}
			t.Logf("\t%s\tTest %d:\tShould report the node status.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a proof is asked for before a back notarization.", testID)
		{
			w := call(t, public, http.MethodGet, "/v1/proof/asset/"+txid.Hex(), nil)
			var er errs.Response
			decode(t, w, &er)
			if w.Code != http.StatusNotFound || !er.Retryable || er.Kind != crosschain.ErrNotFound.Error() {
				t.Fatalf("\t%s\tTest %d:\tShould report a retryable not found: %d %+v", failed, testID, w.Code, er)
			}
			t.Logf("\t%s\tTest %d:\tShould report a retryable not found.", success, testID)

			w = call(t, public, http.MethodGet, "/v1/proof/asset/0x1234", nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject a malformed txid: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a malformed txid.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the block is covered by a back notarization.", testID)
		{
			anchor := common.HexToHash("0xaa")
			bn := crosschain.Notarization{
				Txid: common.HexToHash("0xbb"),
				Data: crosschain.NotarizationData{
					Symbol:    "ALPHA",
					CCID:      2,
					Height:    1,
					BlockHash: b1.Hash(),
					MoM:       merkle.Root([]common.Hash{b1.Header.MerkleRoot}),
					MoMDepth:  1,
					DestTxid:  anchor,
				},
			}

			w := call(t, private, http.MethodPost, "/v1/node/backnotarization", bn)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould accept the back notarization: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the back notarization.", success, testID)

			w = call(t, private, http.MethodPost, "/v1/node/backnotarization", bn)
			if w.Code != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould reject a checkpoint that does not advance: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a checkpoint that does not advance.", success, testID)

			w = call(t, public, http.MethodGet, "/v1/proof/asset/"+txid.Hex(), nil)
			var resp struct {
				Proof  string      `json:"proof"`
				Anchor common.Hash `json:"anchor"`
			}
			decode(t, w, &resp)
			if w.Code != http.StatusOK || resp.Anchor != anchor {
				t.Fatalf("\t%s\tTest %d:\tShould return the asset proof: %d %s", failed, testID, w.Code, w.Body)
			}

			proof, err := merkle.TxProofFromHex(resp.Proof)
			if err != nil || proof.Branch.Verify(txid, bn.Data.MoM) != nil {
				t.Fatalf("\t%s\tTest %d:\tShould return a proof reducing to the MoM: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould return a proof reducing to the MoM.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the reference chain requests are invalid.", testID)
		{
			w := call(t, public, http.MethodGet, "/v1/proof/root/ALPHA/1/1", nil)
			var root struct {
				Null bool `json:"null"`
			}
			decode(t, w, &root)
			if w.Code != http.StatusOK || !root.Null {
				t.Fatalf("\t%s\tTest %d:\tShould return a null root for a reserved ccid: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould return a null root for a reserved ccid.", success, testID)

			w = call(t, public, http.MethodPost, "/v1/proof/extend", map[string]any{"ccid": 2})
			var er errs.Response
			decode(t, w, &er)
			if w.Code != http.StatusBadRequest || len(er.Fields) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould report the missing fields: %d %+v", failed, testID, w.Code, er)
			}
			t.Logf("\t%s\tTest %d:\tShould report the missing fields.", success, testID)

			w = call(t, public, http.MethodPost, "/v1/import/complete", map[string]any{"tx": "0x00ff"})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject a malformed import: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a malformed import.", success, testID)
		}
	}
}

// =============================================================================

func newMuxes(t *testing.T) (http.Handler, http.Handler) {
	t.Helper()

	db, err := database.New(storage.NewMemory(), nil)
	if err != nil {
		t.Fatalf("Should be able to open the database: %v", err)
	}

	index, err := notarydb.Open("", nil)
	if err != nil {
		t.Fatalf("Should be able to open the index: %v", err)
	}

	st, err := state.New(state.Config{Symbol: "ALPHA", CCID: 2, DB: db, Index: index})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	}

	return handlers.PublicMux(cfg), handlers.PrivateMux(cfg)
}

func call(t *testing.T, h http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Should be able to encode the request: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, val any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), val); err != nil {
		t.Fatalf("Should be able to decode the response %q: %v", w.Body.String(), err)
	}
}
