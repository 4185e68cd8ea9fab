package fsops

// FS abstracts the filesystem operations the acquirer needs
// Enables mocking in tests to prove stale destinations are wiped before
// every clone attempt without touching a real disk
type FS interface {
	RemoveAll(path string) error
	Exists(path string) (bool, error)
}
