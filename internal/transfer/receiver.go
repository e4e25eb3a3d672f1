package transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/fabricmesh/peerfabric/internal/ferr"
	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// Receiver drives the inbound half of the file-transfer protocol
// (spec.md C6), grounded on original_source's handle_packet. One
// Receiver tracks every concurrent inbound transfer, keyed by
// (sender, file name), since nothing in spec.md limits a peer to a
// single simultaneous transfer.
type Receiver struct {
	destDir  string
	emit     func(protocol.Envelope)
	sessions map[string]*session
}

// NewReceiver returns a Receiver that writes incoming files under destDir
// and calls emit for every Ack/Nack reply it produces.
func NewReceiver(destDir string, emit func(protocol.Envelope)) *Receiver {
	return &Receiver{destDir: destDir, emit: emit, sessions: make(map[string]*session)}
}

func sessionKey(sender protocol.PeerId, name string) string {
	return string(sender) + "\x00" + name
}

func (r *Receiver) reply(to protocol.PeerId, cmd protocol.Command) {
	r.emit(protocol.Envelope{Command: cmd, Destination: protocol.SingleDest(to)})
}

func (r *Receiver) sessionFor(sender protocol.PeerId, name string) (*session, error) {
	k := sessionKey(sender, name)
	if s, ok := r.sessions[k]; ok {
		return s, nil
	}
	s, err := newSession(name, r.destDir)
	if err != nil {
		return nil, err
	}
	r.sessions[k] = s
	return s, nil
}

// Handle processes one StartFileTransfer or FileTransferBlob command
// arriving from sender. Any other kind is ignored.
func (r *Receiver) Handle(sender protocol.PeerId, cmd protocol.Command) error {
	switch cmd.Kind {
	case protocol.CommandStartFileTransfer:
		return r.handleStart(sender, cmd)
	case protocol.CommandFileTransferBlob:
		return r.handleBlob(sender, cmd)
	}
	return nil
}

func (r *Receiver) handleStart(sender protocol.PeerId, cmd protocol.Command) error {
	s, err := r.sessionFor(sender, cmd.Name)
	if err != nil {
		return err
	}
	s.setParams(cmd.ChunkCount, uint64(cmd.BlobSize), cmd.Checksum)
	r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferAck, Name: cmd.Name, Start: true})

	// A blob that raced ahead of Start may already be cached and ready to
	// drain now that the session has its parameters.
	if err := s.drainCache(func(chunkNum int) {
		r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferAck, Name: cmd.Name, ChunkNum: chunkNum})
	}); err != nil {
		return err
	}
	if s.complete() {
		return r.finish(sender, s)
	}
	return nil
}

func (r *Receiver) handleBlob(sender protocol.PeerId, cmd protocol.Command) error {
	s, err := r.sessionFor(sender, cmd.Name)
	if err != nil {
		return err
	}

	if !s.haveParams {
		// The blob outran the Start: stash it and ask the sender to resend
		// Start so we learn the declared chunk_count/checksum.
		s.cached[cmd.ChunkNum] = cmd.Bytes
		r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferNack, Name: cmd.Name, Start: true})
		return nil
	}

	switch {
	case cmd.ChunkNum == s.lastWritten+1:
		if err := s.write(cmd.ChunkNum, cmd.Bytes); err != nil {
			return err
		}
		r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferAck, Name: cmd.Name, ChunkNum: cmd.ChunkNum})
		if err := s.drainCache(func(chunkNum int) {
			r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferAck, Name: cmd.Name, ChunkNum: chunkNum})
		}); err != nil {
			return err
		}

	case cmd.ChunkNum > s.lastWritten+1:
		// Out of order: cache it, nack every chunk still missing in the
		// gap, and separately ack this one so it isn't resent too.
		s.cached[cmd.ChunkNum] = cmd.Bytes
		for missing := s.lastWritten + 1; missing < cmd.ChunkNum; missing++ {
			r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferNack, Name: cmd.Name, ChunkNum: missing})
		}
		r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferAck, Name: cmd.Name, ChunkNum: cmd.ChunkNum})

	default:
		// Already written (a retransmit whose ack the sender missed).
		r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferAck, Name: cmd.Name, ChunkNum: cmd.ChunkNum})
	}

	if s.complete() {
		return r.finish(sender, s)
	}
	return nil
}

func (r *Receiver) finish(sender protocol.PeerId, s *session) error {
	sum, err := checksumFile(s.file)
	if err != nil {
		return ferr.Wrap("checksum", s.name, err)
	}

	if sum == s.expectedSum {
		r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferAck, Name: s.name, Whole: true})
		s.close()
	} else {
		r.reply(sender, protocol.Command{Kind: protocol.CommandFileTransferNack, Name: s.name, Whole: true})
		s.discard()
	}
	delete(r.sessions, sessionKey(sender, s.name))
	return nil
}

func checksumFile(f interface {
	io.ReaderAt
}) (string, error) {
	h := sha256.New()
	buf := make([]byte, BlobSize)
	var off int64
	for {
		n, err := f.ReadAt(buf, off)
		if n > 0 {
			h.Write(buf[:n])
			off += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
