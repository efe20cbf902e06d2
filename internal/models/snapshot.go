package models

// FileState is the per-file detail reported by a snapshot.
type FileState struct {
	MD5       string `json:"md5"`
	Timestamp int64  `json:"timestamp"`
}

// Snapshot is a timestamped, grouped view of a user's visible files, used
// by sync clients for cheap change detection: compare Timestamp first,
// fetch group detail only when it moved. Groups are keyed by the top-level
// path segment and map each full visible path to its state. Directories
// are not listed.
type Snapshot struct {
	Timestamp int64                           `json:"timestamp"`
	Groups    map[string]map[string]FileState `json:"snapshot"`
}
