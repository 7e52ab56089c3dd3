package lumen

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oliverbestmann/webgpu/wgpu"
)

// SamplerCache caches samplers by their descriptor. Samplers are tied
// to a device, so the cache belongs to a Context and is not shared
// between contexts.
type SamplerCache struct {
	device *wgpu.Device
	cache  *lru.Cache[wgpu.SamplerDescriptor, *wgpu.Sampler]
}

func NewSamplerCache(ctx *Context) *SamplerCache {
	cache, _ := lru.NewWithEvict[wgpu.SamplerDescriptor, *wgpu.Sampler](16, samplerCacheOnEvict)

	return &SamplerCache{
		device: ctx.Device,
		cache:  cache,
	}
}

func samplerCacheOnEvict(_ wgpu.SamplerDescriptor, value *wgpu.Sampler) {
	value.Release()
}

// Get returns a sampler matching the description. The sampler is
// cached, you must not call wgpu.Sampler.Release() on it.
func (sc *SamplerCache) Get(desc wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	cachedSampler, ok := sc.cache.Get(desc)
	if ok {
		return cachedSampler, nil
	}

	sampler, err := sc.device.CreateSampler(&desc)
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	sc.cache.Add(desc, sampler)

	return sampler, nil
}

func (sc *SamplerCache) Purge() {
	sc.cache.Purge()
}
