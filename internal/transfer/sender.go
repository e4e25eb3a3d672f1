package transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/fabricmesh/peerfabric/internal/ferr"
	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// Sender drives the sliding-window upload state machine for one file to
// one destination peer (spec.md C5), grounded on original_source's
// file_transfer_loop.
type Sender struct {
	name        string
	file        *os.File
	fileSize    int64
	checksum    string
	chunkCount  uint64
	destination protocol.PeerId
	selfID      protocol.PeerId

	emit func(protocol.Envelope)
	acks <-chan protocol.Command
}

// NewSender opens path, computes its SHA-256 checksum and truncating
// chunk count (spec.md §4.5/§9 — the final partial chunk is deliberately
// dropped; implementers must preserve this), and returns a Sender ready
// for Run. acks must deliver every FileTransferAck/FileTransferNack
// addressed to this transfer, in Hub-arrival order.
func NewSender(path string, destination, selfID protocol.PeerId, emit func(protocol.Envelope), acks <-chan protocol.Command) (*Sender, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ferr.Wrap("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, ferr.Wrap("open", path, ferr.ErrNotAFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ferr.Wrap("open", path, err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		f.Close()
		return nil, ferr.Wrap("checksum", path, err)
	}
	checksum := hex.EncodeToString(h.Sum(nil))

	return &Sender{
		name:        info.Name(),
		file:        f,
		fileSize:    info.Size(),
		checksum:    checksum,
		chunkCount:  uint64(info.Size()) / BlobSize, // truncating, by design (spec.md §9)
		destination: destination,
		selfID:      selfID,
		emit:        emit,
		acks:        acks,
	}, nil
}

// Close releases the underlying file handle. Safe to call after Run
// returns or the caller gives up on the session.
func (s *Sender) Close() error { return s.file.Close() }

type windowEntry struct {
	cmd protocol.Command
}

func startCommand(s *Sender) protocol.Command {
	return protocol.Command{
		Kind: protocol.CommandStartFileTransfer, Name: s.name,
		ChunkCount: s.chunkCount, BlobSize: BlobSize, Checksum: s.checksum, ReturnTo: s.selfID,
	}
}

func (s *Sender) sendAndTrack(window []windowEntry, cmd protocol.Command) []windowEntry {
	s.emit(protocol.Envelope{Command: cmd, Destination: protocol.SingleDest(s.destination)})
	return append(window, windowEntry{cmd: cmd})
}

func removeStart(window []windowEntry) []windowEntry {
	out := window[:0]
	for _, e := range window {
		if e.cmd.Kind != protocol.CommandStartFileTransfer {
			out = append(out, e)
		}
	}
	return out
}

func removeChunk(window []windowEntry, chunkNum int) []windowEntry {
	out := window[:0]
	for _, e := range window {
		if e.cmd.Kind == protocol.CommandFileTransferBlob && e.cmd.ChunkNum == chunkNum {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Sender) resendStart(window []windowEntry) {
	for _, e := range window {
		if e.cmd.Kind == protocol.CommandStartFileTransfer {
			s.emit(protocol.Envelope{Command: e.cmd, Destination: protocol.SingleDest(s.destination)})
			return
		}
	}
}

func (s *Sender) resendChunk(window []windowEntry, chunkNum int) {
	for _, e := range window {
		if e.cmd.Kind == protocol.CommandFileTransferBlob && e.cmd.ChunkNum == chunkNum {
			s.emit(protocol.Envelope{Command: e.cmd, Destination: protocol.SingleDest(s.destination)})
			return
		}
	}
}

// Run executes the retry/send/ack loop until the receiver confirms the
// whole file (success) or the ack channel closes (caller gave up,
// typically because the peer disconnected — spec.md §4.5 Failure model
// leaves reconnection to the peer connection manager).
func (s *Sender) Run() error {
retry:
	for {
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return ferr.Wrap("seek", s.name, err)
		}

		var window []windowEntry
		window = s.sendAndTrack(window, startCommand(s))

		next := 0
		buf := make([]byte, BlobSize)

		for {
			for next < int(s.chunkCount) && len(window) < MaxActivePackets {
				n, err := io.ReadFull(s.file, buf)
				if err != nil && err != io.ErrUnexpectedEOF {
					return ferr.Wrap("read", s.name, err)
				}
				blob := protocol.Command{
					Kind: protocol.CommandFileTransferBlob, Name: s.name,
					ChunkNum: next, Bytes: append([]byte(nil), buf[:n]...), ReturnTo: s.selfID,
				}
				window = s.sendAndTrack(window, blob)
				next++
			}

			cmd, ok := <-s.acks
			if !ok {
				return ferr.ErrChannelClosed
			}

			switch cmd.Kind {
			case protocol.CommandFileTransferAck:
				if cmd.Whole {
					s.file.Seek(0, io.SeekStart)
					return nil
				}
				if cmd.Start {
					window = removeStart(window)
				} else {
					window = removeChunk(window, cmd.ChunkNum)
				}

			case protocol.CommandFileTransferNack:
				if cmd.Whole {
					s.file.Seek(0, io.SeekStart)
					continue retry
				}
				if cmd.Start {
					s.resendStart(window)
				} else {
					s.resendChunk(window, cmd.ChunkNum)
				}

			default:
				return fmt.Errorf("transfer: unexpected ack-channel command %q", cmd.Kind)
			}
		}
	}
}
