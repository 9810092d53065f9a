package domain

// Selection is the shared cell holding the currently selected region. It is
// created empty and handed by reference to every renderer of a view.
//
// Selection is not safe for concurrent use. The owning session serializes
// clicks, filter changes and renders, so mutation and the reads that follow
// it never overlap.
type Selection struct {
	region    string
	selected  bool
	observers []func(region string)
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Region returns the selected region name. ok is false when nothing is selected.
func (s *Selection) Region() (region string, ok bool) {
	return s.region, s.selected
}

// IsSelected reports whether name is the selected region.
func (s *Selection) IsSelected(name string) bool {
	return s.selected && s.region == name
}

// Select sets the selected region and notifies observers. Selecting the
// region that is already selected keeps it selected; it never toggles off.
func (s *Selection) Select(name string) {
	s.region = name
	s.selected = true
	s.notify()
}

// Clear empties the selection. It backs the explicit "clear" control only;
// map clicks always go through Select.
func (s *Selection) Clear() {
	if !s.selected {
		return
	}
	s.region = ""
	s.selected = false
	s.notify()
}

// Subscribe registers fn to run after every selection change, in
// registration order. fn receives "" after Clear.
func (s *Selection) Subscribe(fn func(region string)) {
	s.observers = append(s.observers, fn)
}

func (s *Selection) notify() {
	for _, fn := range s.observers {
		fn(s.region)
	}
}
