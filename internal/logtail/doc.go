// Package logtail reads log files by byte offset.
//
// # Overview
//
// Followers that poll a file need two things: a backfill of the last few
// lines when they first attach, and the lines appended since their previous
// read. Tail provides the first and ReadFrom the second. Both only ever
// return complete, newline-terminated lines, so a writer caught mid-line is
// picked up whole on the next poll.
//
// # Reading the end of a file
//
// Tail keeps a ring of maxLines entries while it scans the file once, so
// memory stays O(maxLines) regardless of file size:
//
//	lines, offset, err := logtail.Tail("/var/log/app/current.log", 200)
//
// The returned offset is where a follower continues with ReadFrom.
//
// # Following a file
//
//	chunk, err := logtail.ReadFrom(path, offset)
//	offset = chunk.Offset
//
// When the file is shorter than the saved offset it was truncated or
// rotated in place; ReadFrom restarts at zero and sets Chunk.Truncated.
//
// # Error handling
//
// A missing file is not an error: Tail returns nothing and ReadFrom keeps the
// offset, since followers routinely attach before the writer creates the
// file. Other I/O errors are returned wrapped.
package logtail
