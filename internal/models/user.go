package models

// TargetKind discriminates owned registry entries from entries mirrored
// into a beneficiary's view by a share.
type TargetKind int

const (
	TargetOwned TargetKind = iota
	TargetSharedIn
)

// PathEntry is a user's registry record for one visible path. For owned
// entries Target is the path relative to the owner's physical tree and
// Owner is empty. For shared-in entries Target is the path relative to the
// *owner's* tree and Owner names that owner; the physical location is
// always Owner/Target, so a shared-in entry can never point outside the
// owner's tree.
type PathEntry struct {
	Kind      TargetKind `json:"kind"`
	Target    string     `json:"target"`
	Owner     string     `json:"owner,omitempty"`
	IsDir     bool       `json:"is_dir"`
	Writable  bool       `json:"writable"`
	MD5       string     `json:"md5,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

// User is an active account. Paths maps every visible slash-separated
// relative path (root = "") to its entry. Timestamp is the last time any
// visible path changed, owned or shared-in; it never decreases.
type User struct {
	Username     string               `json:"username"`
	PasswordHash string               `json:"-"`
	Paths        map[string]PathEntry `json:"paths"`
	Timestamp    int64                `json:"timestamp"`
}
