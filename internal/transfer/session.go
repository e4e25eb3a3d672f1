package transfer

import (
	"os"
	"path/filepath"

	"github.com/fabricmesh/peerfabric/internal/ferr"
)

// session tracks one in-flight inbound transfer (spec.md C6). It exists
// only between the first StartFileTransfer/FileTransferBlob for a given
// name and either a whole-file Ack or Nack; the Receiver deletes it on
// either outcome.
type session struct {
	name    string
	file    *os.File
	destDir string

	chunkCount   uint64
	expectedBlob uint64
	expectedSum  string
	haveParams   bool // true once a StartFileTransfer has populated the three fields above

	lastWritten int // -1 until the first chunk (index 0) lands; monotonically increasing
	cached      map[int][]byte
}

func newSession(name, destDir string) (*session, error) {
	f, err := os.OpenFile(filepath.Join(destDir, name), os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, ferr.Wrap("create", name, err)
	}
	return &session{
		name:        name,
		file:        f,
		destDir:     destDir,
		lastWritten: -1,
		cached:      make(map[int][]byte),
	}, nil
}

func (s *session) setParams(chunkCount, blobSize uint64, checksum string) {
	s.chunkCount = chunkCount
	s.expectedBlob = blobSize
	s.expectedSum = checksum
	s.haveParams = true
}

// write appends bytes at chunkNum's offset and advances lastWritten. Only
// valid for the in-order case (chunkNum == lastWritten+1).
func (s *session) write(chunkNum int, data []byte) error {
	off := int64(chunkNum) * int64(BlobSize)
	if _, err := s.file.WriteAt(data, off); err != nil {
		return ferr.Wrap("write", s.name, err)
	}
	s.lastWritten = chunkNum
	return nil
}

// drainCache writes any previously out-of-order chunks that are now
// contiguous with lastWritten, in order, stopping at the first gap.
// onWrite is called once per chunk actually written, so the caller can
// ack it the same way it would an in-order arrival.
func (s *session) drainCache(onWrite func(chunkNum int)) error {
	for {
		next := s.lastWritten + 1
		data, ok := s.cached[next]
		if !ok {
			return nil
		}
		if err := s.write(next, data); err != nil {
			return err
		}
		delete(s.cached, next)
		onWrite(next)
	}
}

// complete reports whether every expected chunk (indices 0..chunkCount-1)
// has been written.
func (s *session) complete() bool {
	return s.haveParams && s.lastWritten >= 0 && uint64(s.lastWritten+1) >= s.chunkCount
}

func (s *session) close() error { return s.file.Close() }

func (s *session) discard() {
	s.file.Close()
	os.Remove(filepath.Join(s.destDir, s.name))
}
