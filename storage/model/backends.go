package model

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Subjects      SubjectsStore
	Checkpoints   CheckpointStore
	Notifications NotificationsStore
	Journal       JournalStore
	Owners        OwnersStore
	Users         UsersStore
	KV            KeyValueStore
}
