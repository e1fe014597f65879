// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd holds small, allocation-free byte-array primitives shared
// by the FASTQ/FASTA/BAM paths: reverse-complementing an ASCII sequence is
// on the hot path of the ReverseComplement step, so it lives in its own
// package the way the teacher keeps it out of the higher-level read
// encodings.
package biosimd

var revComp8Table = [...]byte{
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'T', 'N', 'G', 'N', 'N', 'N', 'C', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'A', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 't', 'N', 'g', 'N', 'N', 'N', 'c', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'a', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N'}

// ReverseComp8InplaceNoValidate reverse-complements ascii8[], assuming that
// it's using ASCII encoding, and all values are in {'A', 'C', 'G', 'T', 'N',
// 'a', 'c', 'g', 't', 'n'}.
//
// If the input assumption is satisfied, output is restricted to the same
// alphabet; case is preserved for a/c/g/t, while 'n' becomes 'N'. Other
// bytes may be written if the input assumption is not satisfied.
func ReverseComp8InplaceNoValidate(ascii8 []byte) {
	nByte := len(ascii8)
	nByteDiv2 := nByte >> 1
	for idx, invIdx := 0, nByte-1; idx != nByteDiv2; idx, invIdx = idx+1, invIdx-1 {
		ascii8[idx], ascii8[invIdx] = revComp8Table[ascii8[invIdx]], revComp8Table[ascii8[idx]]
	}
	if nByte&1 == 1 {
		ascii8[nByteDiv2] = revComp8Table[ascii8[nByteDiv2]]
	}
}

// ReverseComp8Inplace reverse-complements ascii8[] in place, mapping
// 'A'->'T', 'C'->'G', 'G'->'C', 'T'->'A' (and 'a'->'t', 'c'->'g', 'g'->'c',
// 't'->'a'), and everything else (ambiguity codes and 'n' included) to 'N',
// matching FASTQ/FASTA's IUPAC tolerance.
func ReverseComp8Inplace(ascii8 []byte) {
	ReverseComp8InplaceNoValidate(ascii8)
}

// ReverseComp8 writes the reverse-complement of src[] to dst[]. It panics if
// len(dst) != len(src).
func ReverseComp8(dst, src []byte) {
	nByte := len(src)
	if len(dst) != nByte {
		panic("biosimd: ReverseComp8 requires len(dst) == len(src)")
	}
	for idx, invIdx := 0, nByte-1; idx != nByte; idx, invIdx = idx+1, invIdx-1 {
		dst[idx] = revComp8Table[src[invIdx]]
	}
}
