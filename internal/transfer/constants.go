// Package transfer implements the reliable file-transfer protocol
// (spec.md C5/C6): a chunked, ack/nack-driven, out-of-order tolerant
// sender and receiver state machine, grounded line-for-line on
// original_source's file_transfer_sender.rs / file_transfer_receiver.rs.
package transfer

// BlobSize is the fixed chunk size used by the sender, in bytes.
const BlobSize = 1024

// MaxActivePackets bounds the sender's sliding window.
const MaxActivePackets = 5
