package controls

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/goliatone/go-table-controls/layering"
	"github.com/goliatone/go-table-controls/pkg/state"
)

// DefaultItemsPerPage applies when PaginationConfig.InitialItemsPerPage is unset.
const DefaultItemsPerPage = 10

// DefaultPerPageOptions is offered by PaginationProps when none are configured.
var DefaultPerPageOptions = []int{10, 20, 50, 100}

type pageSettings struct {
	PageNumber   *int
	ItemsPerPage *int
}

// PaginationState holds the 1-based page number and the page size.
type PaginationState struct {
	mu           sync.RWMutex
	pageNumber   int
	itemsPerPage int
	options      []int
	p            *persister
}

func newPaginationState(ctx context.Context, p *persister, cfg PaginationConfig) *PaginationState {
	perPage := cfg.InitialItemsPerPage
	if perPage < 1 {
		perPage = DefaultItemsPerPage
	}
	options := cfg.PerPageOptions
	if len(options) == 0 {
		options = DefaultPerPageOptions
	}
	s := &PaginationState{
		pageNumber:   1,
		itemsPerPage: perPage,
		options:      append([]int(nil), options...),
		p:            p,
	}

	snapshot, ok := p.load(ctx)
	if !ok {
		return s
	}
	hydrated, err := parsePageSettings(snapshot)
	if err != nil {
		p.reset(ctx, err)
		return s
	}
	defaults := pageSettings{PageNumber: &s.pageNumber, ItemsPerPage: &s.itemsPerPage}
	merged := layering.MergeLayers(hydrated, defaults)
	s.pageNumber = *merged.PageNumber
	s.itemsPerPage = *merged.ItemsPerPage
	return s
}

func parsePageSettings(snapshot state.Snapshot) (pageSettings, error) {
	var out pageSettings
	for field, target := range map[string]**int{
		fieldPageNumber:   &out.PageNumber,
		fieldItemsPerPage: &out.ItemsPerPage,
	} {
		raw := snapshot.Get(field)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pageSettings{}, fmt.Errorf("%s: %w", field, err)
		}
		if n < 1 {
			return pageSettings{}, fmt.Errorf("%s: must be positive, got %d", field, n)
		}
		*target = &n
	}
	return out, nil
}

func (s *PaginationState) PageNumber() int {
	if s == nil {
		return 1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageNumber
}

func (s *PaginationState) ItemsPerPage() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsPerPage
}

// PerPageOptions returns the page sizes offered to the user.
func (s *PaginationState) PerPageOptions() []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s.options...)
}

// SetPageNumber moves to page n, clamped to at least 1.
func (s *PaginationState) SetPageNumber(ctx context.Context, n int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	n = max(n, 1)
	if n == s.pageNumber {
		s.mu.Unlock()
		return
	}
	old := s.pageNumber
	s.pageNumber = n
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, n)
}

// SetItemsPerPage changes the page size and always returns to page 1.
func (s *PaginationState) SetItemsPerPage(ctx context.Context, n int) {
	if s == nil || n < 1 {
		return
	}
	s.mu.Lock()
	if n == s.itemsPerPage && s.pageNumber == 1 {
		s.mu.Unlock()
		return
	}
	old := s.itemsPerPage
	s.itemsPerPage = n
	s.pageNumber = 1
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, n)
}

// LastPage returns the last valid page for totalItemCount, at least 1.
func (s *PaginationState) LastPage(totalItemCount int) int {
	perPage := s.ItemsPerPage()
	if perPage < 1 || totalItemCount <= 0 {
		return 1
	}
	return (totalItemCount + perPage - 1) / perPage
}

// Reconcile clamps the page number into [1, LastPage(totalItemCount)] and
// reports whether it changed.
func (s *PaginationState) Reconcile(ctx context.Context, totalItemCount int) bool {
	if s == nil {
		return false
	}
	last := s.LastPage(totalItemCount)
	page := s.PageNumber()
	if page >= 1 && page <= last {
		return false
	}
	s.SetPageNumber(ctx, min(max(page, 1), last))
	return true
}

func (s *PaginationState) snapshotLocked() state.Snapshot {
	snapshot := state.Snapshot{}
	snapshot.Set(fieldPageNumber, strconv.Itoa(s.pageNumber))
	snapshot.Set(fieldItemsPerPage, strconv.Itoa(s.itemsPerPage))
	return snapshot
}
