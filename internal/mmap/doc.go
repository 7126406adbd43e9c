// Package mmap maps dataset files read-only into memory.
//
// The local blob store opens training and test files through this package so
// the CSV decoder streams straight from the page cache. Files are advised for
// sequential access since they are read front to back exactly once.
//
// Unix systems use mmap(2) and madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
package mmap
