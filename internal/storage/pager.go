// Package storage implements the page-oriented file format and its cache:
// a fixed 4096-byte frame size, demand-loaded from a single on-disk file and
// held in memory until the pager is closed.
package storage

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/nrummel-labs/minidb/internal/crashreport"
)

const (
	// PageSize is the fixed size, in bytes, of every page frame.
	PageSize = 4096
	// MaxPages is the hard ceiling on cached (and therefore addressable)
	// pages. There is no page recycling, so this also bounds the file size.
	MaxPages = 100
)

// Page is one raw 4096-byte block, addressed by page number within the file.
type Page [PageSize]byte

// Pager owns the database file handle and a write-back page cache. All
// mutation happens on cached frames; nothing reaches disk until Flush/Close.
type Pager struct {
	file       *os.File
	pages      map[uint32]*Page
	numPages   uint32 // high-water mark: pages [0, numPages) are addressable
	fileLength int64
}

// Open opens or creates the database file. A file whose length is not a
// whole multiple of PageSize is treated as corrupt and is fatal.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "pager: open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "pager: stat %s", path)
	}
	length := info.Size()
	if length%PageSize != 0 {
		crashreport.Fatalf("db file is not a whole number of pages. Corrupt file: length %d is not a multiple of %d", length, PageSize)
	}
	return &Pager{
		file:       f,
		pages:      make(map[uint32]*Page),
		numPages:   uint32(length / PageSize),
		fileLength: length,
	}, nil
}

// NumPages reports the current high-water page count.
func (p *Pager) NumPages() uint32 { return p.numPages }

// GetUnusedPageNum returns the page number that a subsequent GetPage call
// would materialize as a brand-new, empty page. Allocation is append-only:
// it never recycles a page number.
func (p *Pager) GetUnusedPageNum() uint32 { return p.numPages }

// GetPage demand-loads page n into the cache and returns a mutable handle to
// its frame. The handle aliases the cache entry directly: callers mutate the
// frame in place. Callers must refetch by page number after any pager call
// that could have allocated a new page, since that can mutate the cache's
// backing storage.
func (p *Pager) GetPage(n uint32) *Page {
	if n >= MaxPages {
		crashreport.Fatalf("Error: Table Full.")
	}
	pageReadsTotal.Inc()

	if pg, ok := p.pages[n]; ok {
		return pg
	}
	cacheMissesTotal.Inc()

	pg := new(Page)
	if n < p.numPages {
		if err := p.readPageFromDisk(n, pg); err != nil {
			crashreport.Fatalf("pager: read page %d: %v", n, err)
		}
	}
	if n >= p.numPages {
		p.numPages = n + 1
		pagesAllocatedTotal.Inc()
	}
	p.pages[n] = pg
	cacheOccupancy.Set(float64(len(p.pages)))
	return pg
}

// Flush writes the cached frame for page n back to disk. n must already be
// cached; flushing an uncached page is a programming error and is fatal.
func (p *Pager) Flush(n uint32) {
	pg, ok := p.pages[n]
	if !ok {
		crashreport.Fatalf("pager: flush of uncached page %d", n)
	}
	if _, err := p.file.WriteAt(pg[:], int64(n)*PageSize); err != nil {
		crashreport.Fatalf("pager: write page %d: %v", n, err)
	}
	flushesTotal.Inc()
}

// Close flushes every allocated page, in page-number order, then releases
// the file handle.
func (p *Pager) Close() error {
	for n := uint32(0); n < p.numPages; n++ {
		if _, ok := p.pages[n]; ok {
			p.Flush(n)
		}
	}
	if err := p.file.Close(); err != nil {
		return errors.Wrap(err, "pager: close")
	}
	return nil
}

func (p *Pager) readPageFromDisk(n uint32, pg *Page) error {
	_, err := p.file.ReadAt(pg[:], int64(n)*PageSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
