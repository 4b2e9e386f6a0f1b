package value

import (
	"fmt"
	"strconv"
	"strings"
)

// PathError reports a failed path resolution. It carries the full path and
// the furthest prefix that resolved successfully so diagnostics can point at
// the exact segment that broke.
type PathError struct {
	Path     string
	Resolved string
	Reason   string
}

func (e *PathError) Error() string {
	if e.Resolved == "" {
		return fmt.Sprintf("path %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("path %q: %s (resolved up to %q)", e.Path, e.Reason, e.Resolved)
}

type segment struct {
	key     string
	index   int
	isIndex bool
}

func (s segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.key
}

// Resolve navigates the value tree by a dotted/bracketed path such as
// "body.data.users[0].address.city". Identifier segments may contain any
// character except '.' and '[', so header names like Content-Type work as
// single segments. A "length" segment applied to a list yields its element
// count; indexes are zero-based and must be in range. Resolution is pure:
// the same root and path always produce the same result.
func Resolve(root Value, path string) (Value, error) {
	segments, err := parsePath(path)
	if err != nil {
		return Null(), err
	}

	current := root
	for i, seg := range segments {
		next, ok := step(current, seg)
		if !ok {
			return Null(), &PathError{
				Path:     path,
				Resolved: joinSegments(segments[:i]),
				Reason:   describeFailure(current, seg),
			}
		}
		current = next
	}

	return current, nil
}

func step(current Value, seg segment) (Value, bool) {
	if seg.isIndex {
		list, ok := current.ListValue()
		if !ok || seg.index < 0 || seg.index >= len(list) {
			return Null(), false
		}
		return list[seg.index], true
	}

	if m, ok := current.MapValue(); ok {
		item, found := m[seg.key]
		return item, found
	}

	if list, ok := current.ListValue(); ok && seg.key == "length" {
		return Number(float64(len(list))), true
	}

	return Null(), false
}

func describeFailure(current Value, seg segment) string {
	if seg.isIndex {
		if list, ok := current.ListValue(); ok {
			return fmt.Sprintf("index %d out of range (length %d)", seg.index, len(list))
		}
		return fmt.Sprintf("cannot index into %s", current.Kind())
	}
	switch current.Kind() {
	case KindMap:
		return fmt.Sprintf("key %q not found", seg.key)
	case KindList:
		return fmt.Sprintf("segment %q is not valid for a list", seg.key)
	default:
		return fmt.Sprintf("segment %q cannot be resolved on %s", seg.key, current.Kind())
	}
}

func parsePath(path string) ([]segment, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, &PathError{Path: path, Reason: "path is empty"}
	}

	var segments []segment
	i := 0
	expectSegment := true
	for i < len(trimmed) {
		switch trimmed[i] {
		case '.':
			if expectSegment {
				return nil, &PathError{Path: path, Reason: "unexpected '.'"}
			}
			expectSegment = true
			i++
		case '[':
			close := strings.IndexByte(trimmed[i:], ']')
			if close < 0 {
				return nil, &PathError{Path: path, Reason: "unterminated index"}
			}
			raw := trimmed[i+1 : i+close]
			index, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || index < 0 {
				return nil, &PathError{Path: path, Reason: fmt.Sprintf("invalid index %q", raw)}
			}
			segments = append(segments, segment{index: index, isIndex: true})
			expectSegment = false
			i += close + 1
		default:
			if !expectSegment {
				return nil, &PathError{Path: path, Reason: fmt.Sprintf("unexpected character %q", trimmed[i])}
			}
			end := i
			for end < len(trimmed) && trimmed[end] != '.' && trimmed[end] != '[' {
				end++
			}
			key := trimmed[i:end]
			if key == "" {
				return nil, &PathError{Path: path, Reason: "empty segment"}
			}
			segments = append(segments, segment{key: key})
			expectSegment = false
			i = end
		}
	}

	if expectSegment {
		return nil, &PathError{Path: path, Reason: "trailing '.'"}
	}

	return segments, nil
}

func joinSegments(segments []segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if seg.isIndex {
			sb.WriteString(seg.String())
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.key)
	}
	return sb.String()
}
