package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rzbill/relay/internal/table"
)

// endpointKey addresses the singleton endpoint record. The CONFIG prefix
// is foreign to the dispatcher's classifier, so writes here never fan out.
const endpointKey = "CONFIG|endpoint"

type endpointRecord struct {
	Address string `json:"address"`
}

// EndpointConfig lazily resolves and caches the advertised endpoint
// address. On first contact the record is read from the table; if absent
// it is seeded with the fallback address. Broker correctness never
// depends on this record, it only tells clients where to reconnect.
type EndpointConfig struct {
	tbl      *table.Table
	fallback string

	once sync.Once
	addr string
}

// NewEndpointConfig builds the resolver. fallback is typically the
// configured listen address.
func NewEndpointConfig(tbl *table.Table, fallback string) *EndpointConfig {
	return &EndpointConfig{tbl: tbl, fallback: fallback}
}

// Address resolves the endpoint address, reading and caching the record
// on first call.
func (e *EndpointConfig) Address(ctx context.Context) string {
	e.once.Do(func() {
		e.addr = e.fallback
		value, err := e.tbl.Get(ctx, endpointKey, endpointKey)
		if errors.Is(err, table.ErrNotFound) {
			seed, _ := json.Marshal(endpointRecord{Address: e.fallback})
			_ = e.tbl.Put(ctx, endpointKey, endpointKey, seed)
			return
		}
		if err != nil {
			return
		}
		var stored endpointRecord
		if json.Unmarshal(value, &stored) == nil && stored.Address != "" {
			e.addr = stored.Address
		}
	})
	return e.addr
}
