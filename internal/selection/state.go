package selection

import "slices"

type Character struct {
	Name     string
	FileName string
	World    string
}

// CharLore links extra worlds to a character, keyed by the character's
// file name.
type CharLore struct {
	Name       string
	ExtraBooks []string
}

// State is everything that decides which worlds feed a scan.
type State struct {
	GlobalSelect []string
	CharLore     []CharLore
	Character    *Character
	Strategy     Strategy
}

func (s *State) ExtraBooks(fileName string) []string {
	for _, link := range s.CharLore {
		if link.Name == fileName {
			return link.ExtraBooks
		}
	}
	return nil
}

// SetExtraBooks replaces the character's extra worlds. An empty list
// removes the link.
func (s *State) SetExtraBooks(fileName string, books []string) {
	idx := slices.IndexFunc(s.CharLore, func(link CharLore) bool { return link.Name == fileName })
	if len(books) == 0 {
		if idx >= 0 {
			s.CharLore = slices.Delete(s.CharLore, idx, idx+1)
		}
		return
	}
	books = slices.Clone(books)
	if idx >= 0 {
		s.CharLore[idx].ExtraBooks = books
		return
	}
	s.CharLore = append(s.CharLore, CharLore{Name: fileName, ExtraBooks: books})
}

func (s *State) Select(name string) {
	if !slices.Contains(s.GlobalSelect, name) {
		s.GlobalSelect = append(s.GlobalSelect, name)
	}
}

func (s *State) ClearSelection() {
	s.GlobalSelect = nil
}

// RemoveWorld forgets every reference to a deleted world.
func (s *State) RemoveWorld(name string) {
	s.GlobalSelect = slices.DeleteFunc(s.GlobalSelect, func(w string) bool { return w == name })
	for i := range s.CharLore {
		s.CharLore[i].ExtraBooks = slices.DeleteFunc(s.CharLore[i].ExtraBooks, func(w string) bool { return w == name })
	}
	s.CharLore = slices.DeleteFunc(s.CharLore, func(link CharLore) bool { return len(link.ExtraBooks) == 0 })
	if s.Character != nil && s.Character.World == name {
		s.Character.World = ""
	}
}

// RenameWorld points every reference to oldName at newName.
func (s *State) RenameWorld(oldName, newName string) {
	rename := func(names []string) {
		for i, w := range names {
			if w == oldName {
				names[i] = newName
			}
		}
	}
	rename(s.GlobalSelect)
	s.GlobalSelect = slices.Compact(s.GlobalSelect)
	for i := range s.CharLore {
		rename(s.CharLore[i].ExtraBooks)
	}
	if s.Character != nil && s.Character.World == oldName {
		s.Character.World = newName
	}
}

func (s State) Clone() State {
	out := State{
		GlobalSelect: slices.Clone(s.GlobalSelect),
		Strategy:     s.Strategy,
	}
	for _, link := range s.CharLore {
		out.CharLore = append(out.CharLore, CharLore{Name: link.Name, ExtraBooks: slices.Clone(link.ExtraBooks)})
	}
	if s.Character != nil {
		c := *s.Character
		out.Character = &c
	}
	return out
}
