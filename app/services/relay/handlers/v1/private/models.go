package private

import (
	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ethereum/go-ethereum/common"
)

type notarizations struct {
	BlockHash     common.Hash               `json:"block_hash" validate:"required"`
	Notarizations []crosschain.Notarization `json:"notarizations" validate:"required,min=1,dive"`
}

type checkpoint struct {
	Index int `json:"index"`
}

type submitted struct {
	Txid   common.Hash `json:"txid"`
	Status string      `json:"status"`
}

type accepted struct {
	Status string `json:"status"`
}
