// Package discover enumerates feature files and buckets them into groups.
//
// Tree mode walks a dataset root for feature files and derives each group
// key from configured ancestor directory names. Manifest mode reads a
// delimited filelist whose lines already carry speaker, languages, and
// transcript text. Both modes produce the same Group shape for the builder.
package discover
