// Package packer drives the packing run: it fans discovered groups out to a
// fixed-size worker pool, collects marshaled records in completion order,
// and appends them to the output corpus.
//
// The output handle belongs to the driver alone; workers hand back byte
// payloads and never touch the file. Completion-order fan-in trades
// deterministic group order for throughput when group sizes vary widely.
// Only infrastructure failures (lock, open, write) abort a run.
package packer
