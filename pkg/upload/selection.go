package upload

// Selection is the image picked for a page's file input.
type Selection struct {
	store Store
	file  *File
}

// NewSelection creates an empty selection backed by store.
func NewSelection(store Store) *Selection {
	return &Selection{store: store}
}

// Select replaces the current selection with a staged file, discarding the
// previous one. The file is checked again against config.
func (s *Selection) Select(tempID string, config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}
	f, err := s.store.Stat(tempID)
	if err != nil {
		return err
	}
	if err := config.Check(f.ContentType, f.Size); err != nil {
		s.store.Delete(tempID)
		return err
	}
	if s.file != nil && s.file.ID != tempID {
		s.store.Delete(s.file.ID)
	}
	s.file = f
	return nil
}

// Remove clears the selection and discards the staged file.
func (s *Selection) Remove() error {
	if s.file == nil {
		return nil
	}
	id := s.file.ID
	s.file = nil
	return s.store.Delete(id)
}

// File returns the selected file, or nil.
func (s *Selection) File() *File {
	return s.file
}

// PreviewURL returns the preview path of the selection under prefix, or ""
// when nothing is selected.
func (s *Selection) PreviewURL(prefix string) string {
	if s.file == nil {
		return ""
	}
	return prefix + "/" + s.file.ID
}
