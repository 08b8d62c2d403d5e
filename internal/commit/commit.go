// Package commit implements the commit record: its canonical serialization,
// its identity (the hash of that serialization), and loading it back out of
// the object store.
package commit

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"minigit/internal/hash"
	"minigit/internal/objectstore"
	"minigit/shared/pathutil"
)

// Record is an immutable commit: parents, a second-resolution ISO-8601
// local timestamp, a single-line message, and the path→blob-id file set.
type Record struct {
	Parents   []string
	Timestamp string
	Message   string
	Files     map[string]string
}

// Now formats the current local time the way commits record it: ISO-8601,
// second resolution, no timezone offset.
func Now() string {
	return time.Now().Format("2006-01-02T15:04:05")
}

// Serialize produces the canonical byte form: parents in recorded order,
// then timestamp, then message, then files in lexicographic path order.
// Writers must use this exact order — it's what Sum(Serialize(r)) hashes.
func Serialize(r Record) []byte {
	var b bytes.Buffer
	for _, p := range r.Parents {
		fmt.Fprintf(&b, "parent %s\n", p)
	}
	fmt.Fprintf(&b, "timestamp %s\n", r.Timestamp)
	fmt.Fprintf(&b, "message %s\n", r.Message)

	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&b, "%s:%s\n", p, r.Files[p])
	}
	return b.Bytes()
}

// ID returns the commit identity for r: the Hasher of its canonical
// serialization.
func ID(r Record) string {
	return hash.Sum(Serialize(r))
}

// Parse loads a Record from serialized bytes, tolerating any line order:
// each line is dispatched by its prefix ("parent ", "timestamp ",
// "message ") and everything else is treated as a "path:blob-id" file
// entry. Writers must still emit the canonical order (Serialize) so that
// id recomputation stays reproducible.
func Parse(data []byte) (Record, error) {
	r := Record{Files: make(map[string]string)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "parent "):
			r.Parents = append(r.Parents, strings.TrimPrefix(line, "parent "))
		case strings.HasPrefix(line, "timestamp "):
			r.Timestamp = strings.TrimPrefix(line, "timestamp ")
		case strings.HasPrefix(line, "message "):
			r.Message = strings.TrimPrefix(line, "message ")
		default:
			pos := strings.LastIndex(line, ":")
			if pos < 0 {
				continue
			}
			r.Files[line[:pos]] = line[pos+1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("parsing commit: %w", err)
	}
	return r, nil
}

// Store persists and loads commit Records through an object store.
type Store struct {
	objects *objectstore.Store
}

func NewStore(objects *objectstore.Store) *Store {
	return &Store{objects: objects}
}

// Save validates r's message, serializes it canonically, writes it to the
// object store, and returns its id.
func (s *Store) Save(r Record) (string, error) {
	if !pathutil.ValidMessage(r.Message) {
		return "", fmt.Errorf("commit message must be a single line")
	}
	data := Serialize(r)
	id, err := s.objects.Put(data)
	if err != nil {
		return "", fmt.Errorf("storing commit: %w", err)
	}
	return id, nil
}

// Load reads a commit Record by id.
func (s *Store) Load(id string) (Record, error) {
	data, err := s.objects.Get(id)
	if err != nil {
		return Record{}, err
	}
	return Parse(data)
}

// Exists reports whether id resolves to an object in the underlying store,
// without distinguishing a commit from a blob that happens to share the id
// space. Callers that need to tell "is this a commit" from "is this any
// object" should load and inspect the result instead.
func (s *Store) Exists(id string) bool {
	return s.objects.Exists(id)
}
