package nomenclature

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/scrapscan-backend/pkg/config"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

const defaultCacheTTL = 30 * time.Second

// Provider hands out the active nomenclature, reloading stored rules at most once per TTL.
type Provider struct {
	repo     Repository
	fallback string
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	current  *Nomenclature
	loadedAt time.Time
}

// NewProvider builds a provider. The configured weight pattern is used when no rules are stored.
func NewProvider(repo Repository, cfg config.BarcodeConfig) (*Provider, error) {
	if repo == nil {
		return nil, errors.New("barcode rule repository required")
	}
	return &Provider{
		repo:     repo,
		fallback: strings.TrimSpace(cfg.WeightPattern),
		ttl:      defaultCacheTTL,
		now:      time.Now,
	}, nil
}

// Current returns the active parser, or nil when neither stored rules nor a fallback pattern exist.
func (p *Provider) Current(ctx context.Context) (Parser, error) {
	p.mu.RLock()
	cached, loadedAt := p.current, p.loadedAt
	p.mu.RUnlock()
	if !loadedAt.IsZero() && p.now().Sub(loadedAt) < p.ttl {
		return asParser(cached), nil
	}

	next, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = next
	p.loadedAt = p.now()
	p.mu.Unlock()
	return asParser(next), nil
}

func (p *Provider) load(ctx context.Context) (*Nomenclature, error) {
	stored, err := p.repo.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	rules := make([]Rule, 0, len(stored))
	for _, r := range stored {
		rules = append(rules, Rule{Name: r.Name, Type: r.Type, Pattern: r.Pattern, Sequence: r.Sequence})
	}
	if len(rules) == 0 && p.fallback != "" {
		rules = append(rules, Rule{Name: "Default Weight", Type: enums.BarcodeRuleTypeWeight, Pattern: p.fallback})
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return New(rules)
}

// asParser avoids handing out a typed nil inside the interface.
func asParser(n *Nomenclature) Parser {
	if n == nil {
		return nil
	}
	return n
}
