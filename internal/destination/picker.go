// Package destination ranks candidate drives as copy targets for a file,
// combining live free-space measurements with user-configured rules.
package destination

import (
	"context"
	"sort"
	"time"

	"github.com/milestonehq/milestone/internal/catalog"
)

// statTimeout bounds every statfs call so one unresponsive mount cannot
// stall ranking; 5s gives a spun-down external drive time to wake without
// hanging a request indefinitely.
const statTimeout = 5 * time.Second

// minFreeFloor is the absolute minimum headroom required on a candidate
// drive regardless of file size.
const minFreeFloor = 10 * 1024 * 1024 * 1024 // 10 GiB

// preferredBonus is added to a preferred drive's score so it always
// outranks a non-preferred drive, regardless of either drive's free space.
const preferredBonus = 10 * 1024 * 1024 * 1024 * 1024 * 1024 // 10 * 1024^5

// Candidate is one ranked destination drive.
type Candidate struct {
	Drive     *catalog.Drive
	FreeSpace int64
	Preferred bool
	Score     int64
}

// Pick ranks every drive eligible to receive sourceFileID's contents,
// highest score first. mediaType narrows which prefer_<type> rules apply;
// pass catalog.MediaUnknown to only consider prefer_all rules.
func Pick(ctx context.Context, cat *catalog.Catalog, sourceFileID int64, mediaType catalog.MediaType) ([]Candidate, error) {
	f, err := cat.GetFile(ctx, sourceFileID)
	if err != nil {
		return nil, err
	}
	sourceRoot, err := cat.GetRoot(ctx, f.RootID)
	if err != nil {
		return nil, err
	}

	drives, err := cat.ListDrives(ctx)
	if err != nil {
		return nil, err
	}

	rules, err := cat.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	denylist := make(map[int64]bool)
	preferred := make(map[int64]bool)
	for _, r := range rules {
		switch r.RuleType {
		case catalog.RuleDenylist:
			denylist[r.DriveID] = true
		case catalog.RulePreferAll:
			preferred[r.DriveID] = true
		case catalog.RulePreferMovie:
			if mediaType == catalog.MediaMovie {
				preferred[r.DriveID] = true
			}
		case catalog.RulePreferTV:
			if mediaType == catalog.MediaTVEpisode {
				preferred[r.DriveID] = true
			}
		}
	}

	var minFree int64 = minFreeFloor
	if tenPercent := f.Size / 10; tenPercent > minFree {
		minFree = tenPercent
	}
	required := f.Size + minFree

	var candidates []Candidate
	for _, d := range drives {
		if d.ID == sourceRoot.DriveID {
			continue
		}
		if denylist[d.ID] {
			continue
		}
		free, err := freeSpace(d.MountPath, statTimeout)
		if err != nil {
			continue
		}
		if free < required {
			continue
		}
		isPreferred := preferred[d.ID]
		score := free
		if isPreferred {
			score += preferredBonus
		}
		candidates = append(candidates, Candidate{
			Drive:     d,
			FreeSpace: free,
			Preferred: isPreferred,
			Score:     score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return candidates, nil
}
