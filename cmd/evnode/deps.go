package main

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/log"

	"evrollup/common"
	"evrollup/config"
	"evrollup/engine"
	"evrollup/ledger"
	"evrollup/rpcclient"
)

// buildDependencies wires the external collaborators engine.Engine needs:
// an HTTP JSON-RPC reader/sender, a websocket subscriber factory, an
// in-memory ledger, and a deterministic-but-unpredictable blockhash source —
// the same role cmd/utils dependency wiring plays in the teacher repository,
// kept in its own file since main.go is meant to stay a thin bootstrap.
func buildDependencies(cfg config.Config) (engine.Dependencies, error) {
	http := rpcclient.NewHTTPClient(cfg.BaseChainRPCEndpoint)

	subscriberFactory := func() rpcclient.BaseChainSubscriber {
		ws, err := rpcclient.DialWSClient(cfg.BaseChainWSEndpoint)
		if err != nil {
			log.Error("Failed to dial base-chain websocket endpoint", "endpoint", cfg.BaseChainWSEndpoint, "err", err)
			return nil
		}
		return ws
	}

	ledgerStore := ledger.NewMemoryStore()

	acceptCommits := func(common.Slot) bool { return true }

	return engine.Dependencies{
		Reader:            http,
		SubscriberFactory: subscriberFactory,
		Sender:            http,
		Ledger:            ledgerStore,
		NextBlockhash:     nextBlockhash,
		AcceptCommits:     acceptCommits,
	}, nil
}

// nextBlockhash derives a local blockhash deterministically from the slot
// number. Real block production (and therefore a genuine content hash of
// executed transactions) is out of this engine's scope (spec section 1
// non-goals); this only needs to look unpredictable enough that stale
// blockhashes are rejected by downstream consumers.
func nextBlockhash(slot common.Slot) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], slot)
	return sha256.Sum256(buf[:])
}
