// Package textdata defines the records written to a packed corpus and the
// streaming container format that holds them.
//
// A corpus file is a bare concatenation of frames, each frame being a 4-byte
// little-endian payload length followed by one record in protobuf wire
// encoding. There is no file header, index, or checksum; readers treat a
// short final frame as end-of-stream so that a run killed mid-write still
// leaves a usable file.
package textdata
