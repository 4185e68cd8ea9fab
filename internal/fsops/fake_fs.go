package fsops

// FakeFS implements FS for testing
// Records removals and answers existence checks from a scripted map
type FakeFS struct {
	Removed []string
	Present map[string]bool
}

func (f *FakeFS) RemoveAll(path string) error {
	f.Removed = append(f.Removed, path)
	if f.Present != nil {
		delete(f.Present, path)
	}
	return nil
}

func (f *FakeFS) Exists(path string) (bool, error) {
	return f.Present[path], nil
}

// MarkPresent scripts a path as existing for subsequent Exists calls
func (f *FakeFS) MarkPresent(path string) {
	if f.Present == nil {
		f.Present = make(map[string]bool)
	}
	f.Present[path] = true
}
