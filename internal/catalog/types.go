package catalog

import "time"

// Drive is a registered storage volume.
type Drive struct {
	ID           int64
	MountPath    string
	VolumeSerial *string
	VolumeLabel  *string
	CreatedAt    time.Time
}

// Root is an indexed subtree of a drive.
type Root struct {
	ID        int64
	DriveID   int64
	Path      string
	Excluded  bool
	CreatedAt time.Time
}

// HashStatus is the fingerprinting state of a File.
type HashStatus string

const (
	HashPending     HashStatus = "pending"
	HashComputing   HashStatus = "computing"
	HashComplete    HashStatus = "complete"
	HashError       HashStatus = "error"
	HashQuarantined HashStatus = "quarantined"
)

// File is one on-disk file instance.
type File struct {
	ID         int64
	RootID     int64
	Path       string
	Size       int64
	Mtime      time.Time
	Ext        string
	LastSeen   *time.Time
	QuickSig   *string
	FullHash   *string
	HashStatus HashStatus
}

// Missing reports whether the file was absent from the most recent scan.
func (f *File) Missing() bool { return f.LastSeen == nil }

// MediaType classifies a MediaItem.
type MediaType string

const (
	MediaMovie     MediaType = "movie"
	MediaTVEpisode MediaType = "tv_episode"
	MediaUnknown   MediaType = "unknown"
)

// ItemStatus is the confidence state of a MediaItem's grouping.
type ItemStatus string

const (
	StatusAuto              ItemStatus = "auto"
	StatusNeedsVerification ItemStatus = "needs_verification"
	StatusVerified          ItemStatus = "verified"
)

// MediaItem is the logical work shared by one or more File instances, e.g.
// a movie or a single TV episode that may exist as several copies.
type MediaItem struct {
	ID        int64
	Type      MediaType
	Title     *string
	Year      *int
	Season    *int
	Episode   *int
	Status    ItemStatus
	CreatedAt time.Time
}

// MediaItemFile links exactly one File to exactly one MediaItem.
type MediaItemFile struct {
	ItemID    int64
	FileID    int64
	IsPrimary bool
}

// RuleType classifies a UserRule.
type RuleType string

const (
	RuleDenylist    RuleType = "denylist"
	RulePreferMovie RuleType = "prefer_movie"
	RulePreferTV    RuleType = "prefer_tv"
	RulePreferAll   RuleType = "prefer_all"
)

// UserRule is a destination-policy row governing which drives the picker
// may choose and how strongly it should prefer them.
type UserRule struct {
	ID       int64
	RuleType RuleType
	DriveID  int64
	Priority int
}

// OperationType classifies an Operation. Only "copy" exists today; the type
// is a string so future operation kinds don't require a schema migration.
type OperationType string

const OperationCopy OperationType = "copy"

// OperationStatus is the lifecycle state of an Operation.
type OperationStatus string

const (
	OpPending   OperationStatus = "pending"
	OpRunning   OperationStatus = "running"
	OpPaused    OperationStatus = "paused"
	OpCompleted OperationStatus = "completed"
	OpFailed    OperationStatus = "failed"
	OpCancelled OperationStatus = "cancelled"
)

// Terminal reports whether status never transitions again.
func (s OperationStatus) Terminal() bool {
	return s == OpCompleted || s == OpFailed || s == OpCancelled
}

// Operation is a queued, resumable unit of copy work.
type Operation struct {
	ID           int64
	Type         OperationType
	Status       OperationStatus
	SourceFileID int64
	DestDriveID  int64
	DestPath     string
	TotalSize    int64
	VerifyHash   bool
	Progress     int64
	Error        *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}
