// Package builder turns one discovered group into one packable record.
//
// Members are processed independently: a missing feature file, missing
// transcript, phonemizer failure, or unreadable array drops only that member
// with a log line. The group itself always produces a record, even when
// every member was dropped.
package builder
