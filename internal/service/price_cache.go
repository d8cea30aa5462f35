package service

import (
	"fmt"
	"time"

	"watchlist-sync/internal/dto"
	"watchlist-sync/pkg/cache"
	"watchlist-sync/pkg/common"
	"watchlist-sync/pkg/utils"
)

// PriceLevelCache is the live (symbol, horizon) layer that wins over persisted item levels.
type PriceLevelCache struct {
	cache cache.Cache
	now   func() time.Time
}

func NewPriceLevelCache(c cache.Cache) *PriceLevelCache {
	return &PriceLevelCache{cache: c, now: time.Now}
}

func priceLevelKey(symbol string, h dto.Horizon) string {
	return fmt.Sprintf(common.KEY_PRICE_LEVEL, utils.NormalizeSymbol(symbol), h)
}

func (c *PriceLevelCache) Get(symbol string, h dto.Horizon) (dto.PriceLevels, bool) {
	return cache.GetFromCache[dto.PriceLevels](c.cache, priceLevelKey(symbol, h))
}

// Merge writes the non-nil fields of pl over the cached entry. Empty input is ignored.
func (c *PriceLevelCache) Merge(symbol string, h dto.Horizon, pl dto.PriceLevels) {
	if pl.IsEmpty() {
		return
	}
	current, _ := c.Get(symbol, h)
	if pl.Support != nil {
		current.Support = pl.Support
	}
	if pl.Resistance != nil {
		current.Resistance = pl.Resistance
	}
	if pl.Risk != nil {
		current.Risk = pl.Risk
	}
	current.UpdatedAt = pl.UpdatedAt
	if current.UpdatedAt.IsZero() {
		current.UpdatedAt = c.now()
	}
	c.cache.Set(priceLevelKey(symbol, h), current, cache.DefaultExpiration)
}

// Clear drops every entry.
func (c *PriceLevelCache) Clear() {
	c.cache.Flush()
}

// Forget drops every horizon of symbol.
func (c *PriceLevelCache) Forget(symbol string) {
	for _, h := range dto.Horizons {
		c.cache.Delete(priceLevelKey(symbol, h))
	}
}
