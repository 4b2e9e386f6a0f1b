// Package env holds the run-scoped variable store shared by every test row
// and the $KEY template substitution applied to request fields before they
// are parsed.
package env

// Store is a mutable key-value dictionary with run lifetime. Keys are
// case-sensitive and the last write for a key wins. The orchestrator is the
// only writer, so the store needs no locking in a single-run process.
type Store struct {
	vars map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{vars: make(map[string]string)}
}

// Get reports the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.vars[key]
	return v, ok
}

// Set stores value under key, unconditionally overwriting any prior value.
func (s *Store) Set(key, value string) {
	s.vars[key] = value
}

// Len reports the number of stored variables.
func (s *Store) Len() int {
	return len(s.vars)
}

// Snapshot copies the current contents. Mutating the returned map does not
// affect the store.
func (s *Store) Snapshot() map[string]string {
	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Substitute replaces $KEY tokens in text with their stored values. A token
// is '$' followed by a maximal run of letters, digits, and underscores.
// Unknown tokens are left untouched so the caller can log a warning without
// failing the row. Substitution is single-pass: inserted values are never
// re-scanned, which prevents injection loops.
func (s *Store) Substitute(text string) string {
	out, _ := s.substitute(text)
	return out
}

// SubstituteTracking behaves like Substitute and additionally reports the
// tokens that had no definition in the store.
func (s *Store) SubstituteTracking(text string) (string, []string) {
	return s.substitute(text)
}

func (s *Store) substitute(text string) (string, []string) {
	var (
		out     []byte
		missing []string
	)

	i := 0
	for i < len(text) {
		c := text[i]
		if c != '$' {
			out = append(out, c)
			i++
			continue
		}

		end := i + 1
		for end < len(text) && isIdentChar(text[end]) {
			end++
		}
		if end == i+1 {
			// Bare '$' with no identifier.
			out = append(out, c)
			i++
			continue
		}

		key := text[i+1 : end]
		if val, ok := s.vars[key]; ok {
			out = append(out, val...)
		} else {
			out = append(out, text[i:end]...)
			missing = append(missing, key)
		}
		i = end
	}

	return string(out), missing
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
