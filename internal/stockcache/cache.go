// Package stockcache guarda, por sessão de formulário, o último estoque conhecido
// de cada (local, produto, variação).
package stockcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"goerp/internal/domain"
	"goerp/internal/pkg/logger"
)

// Lookup é o colaborador externo de consulta de estoque.
type Lookup interface {
	GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error)
}

// Options controla tempo limite por consulta e paralelismo de RefreshAll.
type Options struct {
	FetchTimeout time.Duration
	Concurrency  int
}

// Cache é o armazenamento de snapshots de uma sessão. Cada Refresh recebe um token
// monotônico por chave; respostas cujo token já não é o mais recente são descartadas.
type Cache struct {
	lookup Lookup
	logger logger.Logger
	opts   Options

	mu      sync.Mutex
	entries map[string]domain.StockEntry
	tokens  map[string]uint64
}

// New cria um cache vazio.
func New(lookup Lookup, log logger.Logger, opts Options) *Cache {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Cache{
		lookup:  lookup,
		logger:  log,
		opts:    opts,
		entries: make(map[string]domain.StockEntry),
		tokens:  make(map[string]uint64),
	}
}

// Get retorna a entrada da chave, se houver.
func (c *Cache) Get(key domain.StockKey) (domain.StockEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key.String()]
	return entry, ok
}

// Refresh consulta o estoque, guarda e retorna o resultado. Falhas de consulta
// não são propagadas: o snapshot fica zerado e Warning descreve o problema.
func (c *Cache) Refresh(ctx context.Context, key domain.StockKey) domain.StockEntry {
	if !key.Complete() {
		return domain.StockEntry{
			Snapshot: domain.ZeroSnapshot(key),
			Warning:  "Selecione produto e local para consultar o estoque.",
		}
	}

	k := key.String()

	c.mu.Lock()
	c.tokens[k]++
	token := c.tokens[k]
	c.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	var entry domain.StockEntry
	snapshot, err := c.lookup.GetSnapshot(fetchCtx, key)
	if err != nil {
		c.logger.Warn("Falha ao consultar estoque; usando snapshot zerado.", map[string]interface{}{
			"key":   k,
			"error": err.Error(),
		})
		entry = domain.StockEntry{
			Snapshot: domain.ZeroSnapshot(key),
			Warning:  fmt.Sprintf("Não foi possível consultar o estoque: %v", err),
		}
	} else {
		snapshot.Key = key
		entry = domain.StockEntry{Snapshot: snapshot}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokens[k] != token {
		c.logger.Debug("Resposta de estoque desatualizada descartada.", map[string]interface{}{
			"key":    k,
			"token":  token,
			"latest": c.tokens[k],
		})
		entry.Stale = true
		return entry
	}

	c.entries[k] = entry
	return entry
}

// Invalidate remove a entrada e invalida qualquer consulta ainda em andamento para a chave.
func (c *Cache) Invalidate(key domain.StockKey) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, k)
	c.tokens[k]++
}

// RefreshAll consulta várias chaves em paralelo (limitado por Options.Concurrency).
// O resultado é indexado por StockKey.String(); chaves repetidas são consultadas uma vez.
func (c *Cache) RefreshAll(ctx context.Context, keys []domain.StockKey) map[string]domain.StockEntry {
	var (
		mu      sync.Mutex
		results = make(map[string]domain.StockEntry, len(keys))
		seen    = make(map[domain.StockKey]bool, len(keys))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for _, key := range keys {
		if !key.Complete() || seen[key] {
			continue
		}
		seen[key] = true

		key := key
		g.Go(func() error {
			entry := c.Refresh(gctx, key)
			mu.Lock()
			results[key.String()] = entry
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // Refresh nunca retorna erro

	return results
}

// Entries devolve uma cópia de todas as entradas guardadas.
func (c *Cache) Entries() map[string]domain.StockEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]domain.StockEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
