// Package rewrite replaces environment hostnames inside SQL dumps that carry
// PHP-serialized data, keeping serialized string length prefixes consistent
// with the rewritten content.
package rewrite

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoSourceHosts is returned when the source host set is empty
	ErrNoSourceHosts = errors.New("at least one source hostname is required")
	// ErrEmptyHost is returned for a blank source or destination hostname
	ErrEmptyHost = errors.New("hostname must not be empty")
)

// lengthPrefix finds the head of a serialized string, either plain
// (s:5:"hello";) or as escaped by mysqldump (s:5:\"hello\";).
var lengthPrefix = regexp.MustCompile(`s:(\d+):(\\?")`)

const bufferSize = 64 * 1024

// Stats summarizes a rewrite run
type Stats struct {
	Lines          int
	Bytes          int64
	Substitutions  int
	LengthPrefixes int
}

// Rewriter rewrites every recognized occurrence of a set of source hostnames
// to a single destination hostname.
//
// A hostname is recognized after "://" when it is not directly followed by
// a ".", or when it is wrapped in single quotes. Serialized string fields
// whose content changes get their declared length adjusted by the sum of
// all substitutions inside them.
type Rewriter struct {
	sources []string
	dest    string
}

// New returns a Rewriter for the given source hostnames (primary first,
// then aliases) and destination hostname.
func New(sources []string, dest string) (*Rewriter, error) {
	if len(sources) == 0 {
		return nil, ErrNoSourceHosts
	}
	if dest == "" {
		return nil, errors.Wrap(ErrEmptyHost, "destination")
	}

	var (
		hosts = make([]string, 0, len(sources))
		seen  = make(map[string]bool, len(sources))
	)
	for _, host := range sources {
		if host == "" {
			return nil, errors.Wrap(ErrEmptyHost, "source")
		}
		if seen[host] {
			continue
		}
		seen[host] = true
		hosts = append(hosts, host)
	}

	// longest first, so a host that is a prefix of another never shadows it
	sort.SliceStable(hosts, func(i, j int) bool { return len(hosts[i]) > len(hosts[j]) })

	return &Rewriter{sources: hosts, dest: dest}, nil
}

// Line rewrites a single line
func (r *Rewriter) Line(line string) string {
	out, _, _ := r.rewrite(line)
	return out
}

// Copy streams src to dst line by line, rewriting each line independently.
// Line terminators are reproduced exactly.
func (r *Rewriter) Copy(dst io.Writer, src io.Reader) (Stats, error) {
	var (
		stats  Stats
		reader = bufio.NewReaderSize(src, bufferSize)
		writer = bufio.NewWriterSize(dst, bufferSize)
	)

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			out, substitutions, prefixes := r.rewrite(line)
			stats.Lines++
			stats.Bytes += int64(len(line))
			stats.Substitutions += substitutions
			stats.LengthPrefixes += prefixes

			if _, werr := writer.WriteString(out); werr != nil {
				return stats, errors.Wrap(werr, "writing rewritten line")
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, errors.Wrapf(err, "reading line %d", stats.Lines+1)
		}
	}

	return stats, errors.Wrap(writer.Flush(), "flushing rewritten output")
}

type span struct {
	start, end int
}

func (s span) within(outer span) bool {
	return s.start >= outer.start && s.end <= outer.end
}

// field is a structurally valid serialized string on a line
type field struct {
	digits  span
	content span
	length  int
}

func (r *Rewriter) rewrite(line string) (string, int, int) {
	matches := r.matches(line)
	if len(matches) == 0 {
		return line, 0, 0
	}

	fields := serializedFields(line)
	lengths, fixed := r.lengths(fields, matches)

	var (
		b    strings.Builder
		last int
		i, j int
	)
	b.Grow(len(line) + len(matches)*len(r.dest))
	write := func(s span, text string) {
		b.WriteString(line[last:s.start])
		b.WriteString(text)
		last = s.end
	}
	// matches and fields are both in line order and never overlap
	for i < len(matches) || j < len(fields) {
		if j < len(fields) && lengths[j] == "" {
			j++
			continue
		}
		if j == len(fields) || (i < len(matches) && matches[i].start < fields[j].digits.start) {
			write(matches[i], r.dest)
			i++
			continue
		}
		write(fields[j].digits, lengths[j])
		j++
	}
	b.WriteString(line[last:])

	return b.String(), len(matches), fixed
}

// lengths returns the rewritten length prefix of every field, or "" where the
// prefix stays as it is. A field absorbs every substitution inside its content
// plus the digit growth of every prefix nested inside it.
func (r *Rewriter) lengths(fields []field, matches []span) ([]string, int) {
	var (
		lengths = make([]string, len(fields))
		parent  = make([]int, len(fields))
		nested  = make([]int, len(fields))
		removed = make([]int, len(matches)+1)
		stack   []int
		fixed   int
	)
	for i, m := range matches {
		removed[i+1] = removed[i] + m.end - m.start
	}

	// fields come in order of their start, so an enclosing field is always
	// still on the stack when the fields inside it are reached
	for i, f := range fields {
		for len(stack) > 0 && !f.digits.within(fields[stack[len(stack)-1]].content) {
			stack = stack[:len(stack)-1]
		}
		parent[i] = -1
		if len(stack) > 0 {
			parent[i] = stack[len(stack)-1]
		}
		stack = append(stack, i)
	}

	// inner fields have higher indexes than the fields enclosing them
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		lo := sort.Search(len(matches), func(k int) bool { return matches[k].start >= f.content.start })
		hi := sort.Search(len(matches), func(k int) bool { return matches[k].end > f.content.end })

		delta := nested[i]
		if hi > lo {
			delta += (hi-lo)*len(r.dest) - (removed[hi] - removed[lo])
		}

		grown := 0
		if delta != 0 {
			lengths[i] = strconv.Itoa(f.length + delta)
			grown = len(lengths[i]) - (f.digits.end - f.digits.start)
			fixed++
		}
		if p := parent[i]; p >= 0 {
			nested[p] += nested[i] + grown
		}
	}

	return lengths, fixed
}

// matches returns the spans of every source hostname occurrence that one of
// the substitution rules applies to, in line order.
func (r *Rewriter) matches(line string) []span {
	var found []span

	for i := 0; i < len(line); {
		var (
			at     int
			quoted bool
		)
		switch {
		case line[i] == ':' && strings.HasPrefix(line[i:], "://"):
			at = i + 3
		case line[i] == '\'':
			at, quoted = i+1, true
		default:
			i++
			continue
		}

		if host, ok := r.hostAt(line[at:], quoted); ok {
			found = append(found, span{start: at, end: at + len(host)})
			i = at + len(host)
			continue
		}
		i++
	}

	return found
}

func (r *Rewriter) hostAt(rest string, quoted bool) (string, bool) {
	for _, host := range r.sources {
		if !strings.HasPrefix(rest, host) {
			continue
		}
		next := len(host)
		if quoted {
			if next < len(rest) && rest[next] == '\'' {
				return host, true
			}
			continue
		}
		if next == len(rest) || rest[next] != '.' {
			return host, true
		}
	}
	return "", false
}

// serializedFields returns every serialized string on the line whose
// declared length lands exactly on its closing quote. Malformed fields are
// skipped and therefore never adjusted.
func serializedFields(line string) []field {
	var fields []field

	for _, m := range lengthPrefix.FindAllStringSubmatchIndex(line, -1) {
		length, err := strconv.Atoi(line[m[2]:m[3]])
		if err != nil {
			continue
		}
		escaped := m[5]-m[4] == 2
		end, ok := contentEnd(line, m[5], length, escaped)
		if !ok {
			continue
		}
		fields = append(fields, field{
			digits:  span{start: m[2], end: m[3]},
			content: span{start: m[5], end: end},
			length:  length,
		})
	}

	return fields
}

// contentEnd walks length content bytes from start. In escaped dumps every
// backslash sequence stands for a single byte of the serialized value.
func contentEnd(line string, start, length int, escaped bool) (int, bool) {
	closing := `";`
	i := start

	if escaped {
		closing = `\";`
		for n := 0; n < length; n++ {
			if i >= len(line) {
				return 0, false
			}
			if line[i] == '\\' {
				i++
			}
			i++
		}
		if i > len(line) {
			return 0, false
		}
	} else {
		if length > len(line)-start {
			return 0, false
		}
		i += length
	}

	if !strings.HasPrefix(line[i:], closing) {
		return 0, false
	}
	return i, true
}
