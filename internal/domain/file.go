package domain

import "time"

// FileRecord is locally mirrored metadata about a remote file, kept for
// quick listings and statistics. It is eventually consistent with the
// remote server: the remote FTP state is authoritative and records may
// transiently diverge.
type FileRecord struct {
	ConnectionID string    `json:"connectionId"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModifiedAt   time.Time `json:"modifiedAt"`
	LastSyncAt   time.Time `json:"lastSyncAt"`
}

// FileEntry is a single directory listing entry as returned to clients.
type FileEntry struct {
	Name        string    `json:"name"`
	IsDirectory bool      `json:"isDirectory"`
	Size        int64     `json:"size"`
	Modified    time.Time `json:"modified"`
}
