package world

// SelectionModel tracks the single selected entity and fans out changes to
// observers. Subscribe returns an unsubscribe func; observers must call it
// on dispose, there is no hidden lifetime.
type SelectionModel struct {
	selected *Entity

	nextObs   int
	observers map[int]func(*Entity)
}

func NewSelectionModel() *SelectionModel {
	return &SelectionModel{observers: map[int]func(*Entity){}}
}

func (s *SelectionModel) Selected() *Entity { return s.selected }

func (s *SelectionModel) Select(e *Entity) {
	if s.selected == e {
		return
	}
	s.selected = e
	for _, cb := range s.observers {
		cb(e)
	}
}

func (s *SelectionModel) Deselect() { s.Select(nil) }

func (s *SelectionModel) OnSelectionChanged(cb func(*Entity)) (unsubscribe func()) {
	id := s.nextObs
	s.nextObs++
	s.observers[id] = cb
	return func() { delete(s.observers, id) }
}
