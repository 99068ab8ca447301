package project

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/classcleaner/classcleaner/pkg/models"
)

// Fingerprint hashes the structure of a forest and the multiset of its calls.
// Element IDs do not contribute, so two scans of the same files produce the
// same fingerprint.
func Fingerprint(roots []*models.Element, calls []models.CallSite) uint64 {
	d := xxhash.New()
	var visit func(el *models.Element, level int)
	visit = func(el *models.Element, level int) {
		writeInt(d, level)
		writeString(d, string(el.Kind))
		writeString(d, el.Name)
		writeString(d, strings.Join(el.Parameters, "\x1f"))
		writeString(d, el.Location.Path)
		writeInt(d, el.Location.Line)
		writeInt(d, el.Location.EndLine)
		for _, c := range el.Children {
			visit(c, level+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}

	keys := make([]string, len(calls))
	for i, c := range calls {
		keys[i] = strings.Join([]string{
			c.Name, c.ClassHint, c.Description(), strconv.FormatBool(c.Parameters == nil), c.Location.String(),
		}, "\x1e")
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeString(d, k)
	}
	return d.Sum64()
}

func writeString(d *xxhash.Digest, s string) {
	writeInt(d, len(s))
	_, _ = d.WriteString(s)
}

func writeInt(d *xxhash.Digest, n int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	_, _ = d.Write(buf[:])
}
