package songcode

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// PatternID returns the alphabetic pattern ID for index n: a..z, aa, ab, ...
func PatternID(n int) string {
	n++
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('a' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}

// HashPattern returns the BLAKE3 hash of normalized pattern source, the
// deduplication key for the document's pattern table.
func HashPattern(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// allocator assigns alphabetic IDs to distinct pattern bodies and maps
// user pattern names onto them, deduplicating identical sources.
type allocator struct {
	byHash map[string]string // source hash -> allocated ID
	byName map[string]string // user name -> allocated ID
	order  []string          // allocated IDs in first-definition order
}

func newAllocator() *allocator {
	return &allocator{
		byHash: make(map[string]string),
		byName: make(map[string]string),
	}
}

// define registers name for the given normalized source and returns the
// allocated ID plus the source hash. Identical sources share an ID.
func (a *allocator) define(name, source string) (id, hash string) {
	hash = HashPattern(source)
	id, ok := a.byHash[hash]
	if !ok {
		id = PatternID(len(a.order))
		a.byHash[hash] = id
		a.order = append(a.order, id)
	}
	a.byName[name] = id
	return id, hash
}

// lookup resolves a user pattern name to its allocated ID.
func (a *allocator) lookup(name string) (string, bool) {
	id, ok := a.byName[name]
	return id, ok
}
