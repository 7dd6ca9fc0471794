package models

// Environment is the virtual environment aggregate root. UserID is immutable
// after creation; every access path must verify it against the caller.
type Environment struct {
	ID     int64
	Name   string
	UserID int64
}

// EnvironmentFile describes one uploaded payload owned by an environment.
// ObjectKey is the object-storage path; it is derived once at creation time
// and never mutated. The payload itself lives in object storage.
type EnvironmentFile struct {
	ID               int64
	FileType         string
	OriginalFileName string
	ObjectKey        string
	EnvironmentID    int64
}
