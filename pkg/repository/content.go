package repository

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"
)

// Blob describes stored document content.
type Blob struct {
	Path   string
	Digest string
	Size   int64
}

// ContentStore keeps document content blobs on a filesystem and computes
// their digest on write. Backed by afero so tests run against an in-memory
// filesystem.
type ContentStore struct {
	fs afero.Fs
}

// NewContentStore returns a content store over fs.
func NewContentStore(fs afero.Fs) *ContentStore {
	return &ContentStore{fs: fs}
}

// Put writes the content of a document and returns its blob descriptor.
func (s *ContentStore) Put(docID string, r io.Reader) (*Blob, error) {
	p := blobPath(docID)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return nil, fmt.Errorf("creating blob %q: %w", p, err)
	}
	defer f.Close()

	h := sha1.New()
	size, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		return nil, fmt.Errorf("writing blob %q: %w", p, err)
	}
	return &Blob{
		Path:   p,
		Digest: hex.EncodeToString(h.Sum(nil)),
		Size:   size,
	}, nil
}

// Open returns a reader over the content of a document.
func (s *ContentStore) Open(docID string) (io.ReadCloser, error) {
	f, err := s.fs.Open(blobPath(docID))
	if err != nil {
		return nil, fmt.Errorf("opening blob for document %q: %w", docID, err)
	}
	return f, nil
}

// ReadString returns the content of a document as a string, or "" when the
// document has no content.
func (s *ContentStore) ReadString(docID string) string {
	f, err := s.Open(docID)
	if err != nil {
		return ""
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return ""
	}
	return string(b)
}

// Remove drops the content of a document, if any.
func (s *ContentStore) Remove(docID string) error {
	err := s.fs.Remove(blobPath(docID))
	if err != nil && !isNotExist(err) {
		return err
	}
	return nil
}

func blobPath(docID string) string {
	// Two-level fanout keeps directories small.
	prefix := "00"
	if len(docID) >= 2 {
		prefix = docID[:2]
	}
	return path.Join("blobs", prefix, docID)
}

func isNotExist(err error) bool {
	return err != nil && os.IsNotExist(err)
}
