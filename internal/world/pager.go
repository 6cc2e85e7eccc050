package world

import (
	"log/slog"
	"sync"
)

// Storage persists chunk content keyed by the chunk's region. Load reports
// ok=false when nothing is stored for the region.
type Storage interface {
	Load(region Region) (data []Material, ok bool, err error)
	Save(region Region, data []Material) error
}

// Generator fills a freshly created chunk for the given region. It must be a
// pure function of its own parameters and the region.
type Generator interface {
	Populate(region Region, c *Chunk)
}

// Pager moves chunk content between memory and its backing source. Neither
// operation returns an error; failures are logged and absorbed.
type Pager interface {
	PageIn(region Region, c *Chunk)
	PageOut(region Region, c *Chunk)
}

// StoragePager loads chunks from a Storage and falls back to a Generator when
// the storage has nothing for the region or fails to read it.
type StoragePager struct {
	log     *slog.Logger
	storage Storage

	mu  sync.RWMutex
	gen Generator
}

// NewStoragePager creates a pager. A nil storage makes every page-in generate
// and every page-out a no-op.
func NewStoragePager(storage Storage, gen Generator, log *slog.Logger) *StoragePager {
	if log == nil {
		log = slog.Default()
	}
	return &StoragePager{log: log, storage: storage, gen: gen}
}

// SetGenerator swaps the generator used for chunks that are not in storage.
func (p *StoragePager) SetGenerator(gen Generator) {
	p.mu.Lock()
	p.gen = gen
	p.mu.Unlock()
}

// Generator returns the current generator.
func (p *StoragePager) Generator() Generator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gen
}

// PageIn loads the chunk from storage, or generates it. Generated chunks stay
// dirty so the next page-out persists them.
func (p *StoragePager) PageIn(region Region, c *Chunk) {
	if p.storage != nil {
		data, ok, err := p.storage.Load(region)
		switch {
		case err != nil:
			p.log.Warn("pager: load failed, regenerating", "region", region.String(), "err", err)
		case ok:
			if err := c.Load(data); err != nil {
				p.log.Warn("pager: stored chunk rejected, regenerating", "region", region.String(), "err", err)
				break
			}
			return
		}
	}
	gen := p.Generator()
	if gen == nil {
		return
	}
	gen.Populate(region, c)
	c.SetDirty()
}

// PageOut persists the chunk when it is dirty. On failure the chunk stays
// dirty so a later page-out can retry.
func (p *StoragePager) PageOut(region Region, c *Chunk) {
	if p.storage == nil || !c.Dirty() {
		return
	}
	if err := p.storage.Save(region, c.Data()); err != nil {
		p.log.Error("pager: save failed", "region", region.String(), "err", err)
		return
	}
	c.SetClean()
}
