package session

import (
	"strings"

	"github.com/youruser/certgen/internal/cert"
)

// CategoryNames is one category's registration list.
type CategoryNames struct {
	Category string   `json:"category"`
	Names    []string `json:"names"`
}

// CategoryCount is used by Stats.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarizes registrations and issued certificates.
type Stats struct {
	TotalRegistered int             `json:"total_registered"`
	Certificates    int             `json:"certificates"`
	Categories      []CategoryCount `json:"categories"`
}

// addCategory must be called with s.mu held for writing and with a name
// that passed cert.CheckCategory.
func (s *Store) addCategory(c string) bool {
	if _, ok := s.registered[c]; ok {
		return false
	}
	s.categories = append(s.categories, c)
	s.registered[c] = []string{}
	s.version++
	return true
}

// register must be called with s.mu held for writing.
func (s *Store) register(e cert.Entry) bool {
	s.addCategory(e.Category)
	for _, n := range s.registered[e.Category] {
		if n == e.Name {
			return false
		}
	}
	s.registered[e.Category] = append(s.registered[e.Category], e.Name)
	return true
}

// AddCategory adds an empty category and reports whether it is new.
func (s *Store) AddCategory(c string) (bool, error) {
	c, err := cert.CheckCategory(c)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategory(c), nil
}

// Categories returns category names in creation order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.categories...)
}

// Register adds e unless its name is already listed in its category. The
// category is created on first use.
func (s *Store) Register(e cert.Entry) (bool, error) {
	c, err := cert.CheckCategory(e.Category)
	if err != nil {
		return false, err
	}
	e.Category = c
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(e), nil
}

// RegisterMany merges names into category keeping first-seen order and
// returns how many were new.
func (s *Store) RegisterMany(category string, names []string) (int, error) {
	category, err := cert.CheckCategory(category)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, n := range names {
		if s.register(cert.Entry{Name: n, Category: category}) {
			added++
		}
	}
	return added, nil
}

// ReplaceCategory sets the names of category to the de-duplicated, trimmed
// names and returns the stored list.
func (s *Store) ReplaceCategory(category string, names []string) ([]string, error) {
	category, err := cert.CheckCategory(category)
	if err != nil {
		return nil, err
	}
	out := []string{}
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCategory(category)
	s.registered[category] = out
	return append([]string(nil), out...), nil
}

// Registrations returns every category with its names.
func (s *Store) Registrations() []CategoryNames {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CategoryNames, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, CategoryNames{Category: c, Names: append([]string{}, s.registered[c]...)})
	}
	return out
}

// Entries flattens registrations, category by category.
func (s *Store) Entries() []cert.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []cert.Entry{}
	for _, c := range s.categories {
		for _, n := range s.registered[c] {
			out = append(out, cert.Entry{Name: n, Category: c})
		}
	}
	return out
}

// AppendRecord logs one self-service issuance and, in the same critical
// section, registers its name when the category already exists. Categories
// are only created by the organizer.
func (s *Store) AppendRecord(r cert.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registered[r.Category]; ok {
		s.register(cert.Entry{Name: r.Name, Category: r.Category})
	}
	s.log = append(s.log, r)
	s.logged[r.Name] = true
}

// AppendIfAbsent logs each record whose name is not in the log yet and
// returns the ones appended.
func (s *Store) AppendIfAbsent(recs []cert.Record) []cert.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := []cert.Record{}
	for _, r := range recs {
		if s.logged[r.Name] {
			continue
		}
		s.log = append(s.log, r)
		s.logged[r.Name] = true
		added = append(added, r)
	}
	return added
}

// Log returns a copy of the certificate log.
func (s *Store) Log() []cert.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]cert.Record{}, s.log...)
}

// ClearLog empties the certificate log and returns how many records it held.
func (s *Store) ClearLog() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.log)
	s.log = nil
	s.logged = map[string]bool{}
	return n
}

// Stats counts registrations per category and logged certificates.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Certificates: len(s.log), Categories: []CategoryCount{}}
	for _, c := range s.categories {
		n := len(s.registered[c])
		st.TotalRegistered += n
		st.Categories = append(st.Categories, CategoryCount{Category: c, Count: n})
	}
	return st
}
