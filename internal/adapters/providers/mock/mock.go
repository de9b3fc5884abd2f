// Package mock provides deterministic stand-ins for every provider endpoint.
// Outputs depend only on their inputs, so repeated runs produce identical artifacts.
package mock

import (
	"hash/fnv"

	"github.com/zatekoja/articleforge/internal/domain/providers"
)

// ProviderName tags every mock result
const ProviderName = "mock"

// NewAdapters returns a full set of mock adapters
func NewAdapters() providers.Adapters {
	return providers.Adapters{
		Keywords:   Keywords{},
		SERP:       SERP{},
		PAA:        PAA{},
		Analytical: Analytical{},
		Generative: Generative{},
		Images:     Images{},
		Valuation:  Valuation{},
		Publisher:  Publisher{},
	}
}

func meta(endpoint string) providers.ResultMeta {
	return providers.ResultMeta{Endpoint: endpoint, Provider: ProviderName, Mock: true}
}

func hash(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum32()
}
