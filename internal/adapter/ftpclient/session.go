package ftpclient

import (
	"bytes"

	"github.com/gonzalop/ftp"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/port"
)

// session wraps one live control connection behind port.Session.
type session struct {
	client *ftp.Client
}

var _ port.Session = (*session)(nil)

// List returns the entries under path. MLSD is preferred when the server
// advertises it (structured entries with reliable mod times); otherwise the
// adapter falls back to LIST parsing, where mod times are unavailable and
// left zero.
func (s *session) List(path string) ([]domain.FileEntry, error) {
	if s.client.HasFeature("MLST") {
		if entries, err := s.client.MLList(path); err == nil {
			return fromMLEntries(entries), nil
		}
		// Some servers advertise MLST but reject MLSD; fall through to LIST.
	}

	entries, err := s.client.List(path)
	if err != nil {
		return nil, err
	}
	return fromListEntries(entries), nil
}

func fromMLEntries(entries []*ftp.MLEntry) []domain.FileEntry {
	out := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		// cdir/pdir are the listing's own "." and ".." facts.
		if e.Type == "cdir" || e.Type == "pdir" || e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, domain.FileEntry{
			Name:        e.Name,
			IsDirectory: e.Type == "dir",
			Size:        e.Size,
			Modified:    e.ModTime,
		})
	}
	return out
}

func fromListEntries(entries []*ftp.Entry) []domain.FileEntry {
	out := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, domain.FileEntry{
			Name:        e.Name,
			IsDirectory: e.Type == "dir",
			Size:        e.Size,
		})
	}
	return out
}

// Download retrieves the full content of the remote file.
func (s *session) Download(path string) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.client.Retrieve(path, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Upload overwrites or creates the remote file with data.
func (s *session) Upload(path string, data []byte) error {
	return s.client.Store(path, bytes.NewReader(data))
}

// Rename moves the remote file from oldPath to newPath.
func (s *session) Rename(oldPath, newPath string) error {
	return s.client.Rename(oldPath, newPath)
}

// Remove deletes the remote file.
func (s *session) Remove(path string) error {
	return s.client.Delete(path)
}

// ChangeDir changes the working directory, used as a cheap liveness probe
// when testing connections.
func (s *session) ChangeDir(path string) error {
	return s.client.ChangeDir(path)
}
