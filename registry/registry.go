// Package registry holds the canonical record set produced by every release source.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Registry is a set of weekly releases (band -> album) plus a free-text message.
//
// The message is a diagnostic ("CoS doesn't respond") or, for some sources, the main payload
// (the album of the week). Band and album names are stored lower-cased and trimmed.
type Registry struct {
	message  string
	releases map[string]string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{releases: map[string]string{}}
}

// NewWithMessage creates an empty Registry carrying the given message.
func NewWithMessage(msg string) *Registry {
	r := New()
	r.SetMessage(msg)
	return r
}

// SetMessage replaces the registry message.
func (r *Registry) SetMessage(msg string) {
	r.message = msg
}

// Message returns the registry message, empty if there is none.
func (r *Registry) Message() string {
	if r == nil {
		return ""
	}
	return r.message
}

// Add inserts one release. A band already present (case-insensitive) gets its album replaced.
// Empty band names are ignored.
func (r *Registry) Add(band, album string) {
	b := normalize(band)
	if b == "" {
		return
	}
	r.releases[b] = normalize(album)
}

// AddAll inserts every band -> album pair of m.
func (r *Registry) AddAll(m map[string]string) {
	for b, a := range m {
		r.Add(b, a)
	}
}

// Remove deletes the release of the given band, if any.
func (r *Registry) Remove(band string) {
	delete(r.releases, normalize(band))
}

// Album returns the album released by band.
func (r *Registry) Album(band string) (string, bool) {
	if r == nil {
		return "", false
	}
	a, ok := r.releases[normalize(band)]
	return a, ok
}

// Releases returns a copy of the band -> album mapping. It is never nil.
func (r *Registry) Releases() map[string]string {
	if r == nil {
		return map[string]string{}
	}
	return lo.Assign(r.releases)
}

// Bands returns all band names sorted alphabetically.
func (r *Registry) Bands() []string {
	if r == nil {
		return nil
	}
	bands := lo.Keys(r.releases)
	sort.Strings(bands)
	return bands
}

// Len returns the number of releases.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.releases)
}

// IsEmpty reports whether the registry has neither releases nor a message.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0 && strings.TrimSpace(r.Message()) == ""
}

func (r *Registry) String() string {
	return fmt.Sprintf("Registry(message=%q, releases=%v)", r.Message(), r.Releases())
}

// Merge combines two registries into a new one. Messages are joined with a new line
// (a's first), releases are united and b wins on collisions. Nil registries count as empty.
// Neither argument is modified.
func Merge(a, b *Registry) *Registry {
	m := New()
	m.SetMessage(strings.TrimSpace(a.Message() + "\n" + b.Message()))
	m.releases = lo.Assign(a.Releases(), b.Releases())
	return m
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
