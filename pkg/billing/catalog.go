package billing

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/verdantlab/sprout/pkg/entitlement"
)

// Price is one purchasable entry in the catalog.
type Price struct {
	Tier     entitlement.Tier `yaml:"tier"`
	PriceID  string           `yaml:"price_id"` // provider's price identifier
	Amount   int64            `yaml:"amount"`   // minor currency units
	Currency string           `yaml:"currency"`
	Interval string           `yaml:"interval"` // monthly or annual
}

// Catalog maps the app's paid tiers to provider prices. Checkout requests
// arrive with an amount; the catalog resolves it to the provider price ID,
// and webhooks resolve price IDs back to tiers.
type Catalog struct {
	byAmount  map[int64]Price
	byPriceID map[string]Price
}

type catalogFile struct {
	Prices []Price `yaml:"prices"`
}

// LoadCatalog reads and validates a YAML price catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	return ParseCatalog(f)
}

// ParseCatalog decodes and validates a YAML price catalog.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	if len(file.Prices) == 0 {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("catalog has no prices"))
	}

	c := &Catalog{
		byAmount:  make(map[int64]Price, len(file.Prices)),
		byPriceID: make(map[string]Price, len(file.Prices)),
	}
	for _, p := range file.Prices {
		if _, err := entitlement.ParseTier(string(p.Tier)); err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}
		if p.PriceID == "" {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("tier %s has no price_id", p.Tier))
		}
		if p.Amount <= 0 {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("price %s has non-positive amount %d", p.PriceID, p.Amount))
		}
		if p.Currency == "" {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("price %s has no currency", p.PriceID))
		}
		if _, dup := c.byPriceID[p.PriceID]; dup {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate price_id %s", p.PriceID))
		}
		if _, dup := c.byAmount[p.Amount]; dup {
			// Amounts double as checkout selectors, so they must be unique.
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate amount %d", p.Amount))
		}
		c.byPriceID[p.PriceID] = p
		c.byAmount[p.Amount] = p
	}
	return c, nil
}

// ByAmount resolves a checkout amount (minor units) to its catalog entry.
func (c *Catalog) ByAmount(amount int64) (Price, error) {
	p, ok := c.byAmount[amount]
	if !ok {
		return Price{}, fmt.Errorf("%w: amount %d", ErrUnknownPrice, amount)
	}
	return p, nil
}

// ByPriceID resolves a provider price ID to its catalog entry.
func (c *Catalog) ByPriceID(id string) (Price, error) {
	p, ok := c.byPriceID[id]
	if !ok {
		return Price{}, fmt.Errorf("%w: price_id %s", ErrUnknownPrice, id)
	}
	return p, nil
}

// TierFor maps a provider price ID to the tier it purchases.
func (c *Catalog) TierFor(priceID string) (entitlement.Tier, error) {
	p, err := c.ByPriceID(priceID)
	if err != nil {
		return "", err
	}
	return p.Tier, nil
}
