// Package matcher builds and maintains the bipartite graph linking Files
// to MediaItems: grouping duplicate copies of the same movie or episode
// under one logical item so the rest of the system can reason about
// "this title" rather than "this specific file".
package matcher

import (
	"context"

	"github.com/milestonehq/milestone/internal/apperr"
	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/metrics"
	"github.com/milestonehq/milestone/internal/parser"
)

// Matcher groups files into media items: files sharing an identity
// (content fingerprints, or failing that, parsed title/year/season/
// episode) are collapsed into one logical group, one file at a time,
// inside the catalog's own transactions.
type Matcher struct {
	cat *catalog.Catalog
}

// New constructs a Matcher over cat.
func New(cat *catalog.Catalog) *Matcher {
	return &Matcher{cat: cat}
}

// FindMatch returns the id of an item already linked to a file sharing
// quickSig or fullHash with the given fingerprints, preferring an exact
// full-hash match, plus which kind of fingerprint the match was found by
// ("full_hash" or "quick_sig"). When only a quick-signature match is
// found, the matched item's status is demoted to needs_verification
// since a quick signature can collide without the files being identical.
func (m *Matcher) FindMatch(ctx context.Context, quickSig, fullHash *string) (*int64, string, error) {
	if fullHash != nil {
		files, err := m.cat.FindByFullHash(ctx, *fullHash)
		if err != nil {
			return nil, "", err
		}
		if id, ok := firstLinkedItem(ctx, m.cat, files); ok {
			return &id, "full_hash", nil
		}
	}
	if quickSig != nil {
		files, err := m.cat.FindByQuickSig(ctx, *quickSig)
		if err != nil {
			return nil, "", err
		}
		if id, ok := firstLinkedItem(ctx, m.cat, files); ok {
			if err := m.cat.SetItemStatus(ctx, id, catalog.StatusNeedsVerification); err != nil {
				return nil, "", err
			}
			return &id, "quick_sig", nil
		}
	}
	return nil, "", nil
}

func firstLinkedItem(ctx context.Context, cat *catalog.Catalog, files []*catalog.File) (int64, bool) {
	for _, f := range files {
		item, err := cat.ItemForFile(ctx, f.ID)
		if err == nil {
			return item.ID, true
		}
	}
	return 0, false
}

// CreateOrLink links fileID to an existing matching item, or creates a
// new one from the file's parsed path when no match exists. Non-video
// files and files already linked are skipped (not an error).
func (m *Matcher) CreateOrLink(ctx context.Context, fileID int64) error {
	f, err := m.cat.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if !parser.IsVideoFile(f.Ext) {
		return nil
	}
	if _, err := m.cat.ItemForFile(ctx, fileID); err == nil {
		return nil
	} else if apperr.CategoryOf(err) != apperr.NotFound {
		return err
	}

	itemID, matchKind, err := m.FindMatch(ctx, f.QuickSig, f.FullHash)
	if err != nil {
		return err
	}
	if itemID != nil {
		metrics.MatcherItemsLinked.WithLabelValues(matchKind).Inc()
		return m.cat.LinkFile(ctx, *itemID, fileID, false)
	}

	parsed := parser.Parse(f.Path)
	item, err := newItemFromParse(ctx, m.cat, parsed)
	if err != nil {
		return err
	}
	metrics.MatcherItemsLinked.WithLabelValues("new_item").Inc()
	return m.cat.LinkFile(ctx, item.ID, fileID, true)
}

func newItemFromParse(ctx context.Context, cat *catalog.Catalog, p parser.ParsedMedia) (*catalog.MediaItem, error) {
	var year, season, episode *int
	if p.Year != 0 {
		y := p.Year
		year = &y
	}
	if p.Season != 0 {
		s := p.Season
		season = &s
	}
	if p.Episode != 0 {
		e := p.Episode
		episode = &e
	}
	title := p.Title
	return cat.CreateItem(ctx, catalog.MediaType(p.Kind), &title, year, season, episode)
}

// Merge reparents every file linked to each of sourceIDs onto targetID,
// deletes the now-empty source items, and marks targetID verified — an
// operator has confirmed these are genuinely the same title.
func (m *Matcher) Merge(ctx context.Context, targetID int64, sourceIDs []int64) error {
	for _, sourceID := range sourceIDs {
		if sourceID == targetID {
			continue
		}
		files, err := m.cat.ItemFiles(ctx, sourceID)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := m.cat.RelinkFile(ctx, f.ID, targetID, false); err != nil {
				return err
			}
		}
		if err := m.cat.DeleteItem(ctx, sourceID); err != nil {
			return err
		}
	}
	return m.cat.SetItemStatus(ctx, targetID, catalog.StatusVerified)
}

// Split moves fileID out of its current item into a brand new item built
// from the file's own parsed metadata, marked verified and primary.
// Refuses when fileID is the sole member of its current item, since
// there is nothing to split.
func (m *Matcher) Split(ctx context.Context, fileID int64) error {
	item, err := m.cat.ItemForFile(ctx, fileID)
	if err != nil {
		return err
	}
	siblings, err := m.cat.ItemFiles(ctx, item.ID)
	if err != nil {
		return err
	}
	if len(siblings) < 2 {
		return apperr.Conflictf("matcher.Split", "file %d is the only member of item %d", fileID, item.ID)
	}

	f, err := m.cat.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	parsed := parser.Parse(f.Path)
	newItem, err := newItemFromParse(ctx, m.cat, parsed)
	if err != nil {
		return err
	}
	if err := m.cat.RelinkFile(ctx, fileID, newItem.ID, true); err != nil {
		return err
	}
	return m.cat.SetItemStatus(ctx, newItem.ID, catalog.StatusVerified)
}

// ProcessUnlinked applies CreateOrLink to every file across every root
// that has no item link yet.
func (m *Matcher) ProcessUnlinked(ctx context.Context) (int, error) {
	drives, err := m.cat.ListDrives(ctx)
	if err != nil {
		return 0, err
	}
	var processed int
	for _, d := range drives {
		roots, err := m.cat.ListRoots(ctx, &d.ID)
		if err != nil {
			return processed, err
		}
		for _, r := range roots {
			files, err := m.cat.ListFilesByRoot(ctx, r.ID)
			if err != nil {
				return processed, err
			}
			for _, f := range files {
				if f.Missing() {
					continue
				}
				if _, err := m.cat.ItemForFile(ctx, f.ID); err == nil {
					continue
				}
				if err := m.CreateOrLink(ctx, f.ID); err != nil {
					return processed, err
				}
				processed++
			}
		}
	}
	return processed, nil
}
