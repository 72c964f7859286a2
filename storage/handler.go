package storage

import (
	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/log"
	"github.com/ndn-go/ndnkit/ndn"
)

// StoreHandler answers Interests from Data wires held in a Store.
type StoreHandler struct {
	store ndn.Store
	// fallback is called when the store has no match.
	fallback ndn.InterestHandler
}

func NewStoreHandler(store ndn.Store) *StoreHandler {
	return &StoreHandler{store: store}
}

// WithFallback sets the handler called on a store miss.
func (h *StoreHandler) WithFallback(fallback ndn.InterestHandler) *StoreHandler {
	h.fallback = fallback
	return h
}

func (h *StoreHandler) String() string {
	return "store-handler"
}

// Handle is an ndn.InterestHandler.
func (h *StoreHandler) Handle(args ndn.InterestHandlerArgs) {
	name := args.Interest.Name()

	// Strip the implicit digest; the store is keyed by explicit names.
	// The name may be empty for a handler attached at the root prefix.
	if len(name) > 0 && name.At(-1).Typ == enc.TypeImplicitSha256DigestComponent {
		name = name.Prefix(-1)
	}

	wire, err := h.store.Get(name, args.Interest.CanBePrefix())
	if err != nil {
		log.Warn(h, "Store lookup failed", "name", name, "err", err)
		return
	}
	if wire == nil {
		if h.fallback != nil {
			h.fallback(args)
		}
		return
	}

	if err := args.Reply(enc.Wire{wire}); err != nil {
		log.Warn(h, "Failed to reply from store", "name", name, "err", err)
	}
}
