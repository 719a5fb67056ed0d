// Package npy reads NumPy ".npy" array files holding quantized token codes.
//
// Only what feature files actually contain is supported: 1-D or 2-D C-order
// integer arrays. Everything loads into [][]int64 rows so callers never see a
// dtype, and a 1-D array comes back as a single row.
package npy
