package sandboxvm

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Encode serializes a Module to a deterministic byte stream: a fixed
// header, then each function's instruction stream in declaration order,
// each Instr written as five little-endian fields. No map is iterated
// directly (Funcs and Instr fields are already ordered slices/structs),
// so two compiles of the same lir.Program produce byte-identical output
// — spec §8's artifact-reproducibility property extended to the sandbox
// target.
func Encode(m *Module) []byte {
	var buf bytes.Buffer
	buf.WriteString("MOLTSBX1")
	writeString(&buf, m.Name)
	writeString(&buf, m.Version)
	writeU32(&buf, m.LinearMemSize)
	writeU32(&buf, uint32(len(m.Funcs)))
	for _, f := range m.Funcs {
		writeString(&buf, f.Name)
		writeU32(&buf, f.FunctionID)
		writeU32(&buf, uint32(f.NumParams))
		writeU32(&buf, uint32(len(f.Code)))
		for _, ins := range f.Code {
			buf.WriteByte(byte(ins.Op))
			writeU32(&buf, ins.A)
			writeU32(&buf, ins.B)
			writeU32(&buf, ins.C)
			writeU64(&buf, ins.Imm)
		}
	}
	return buf.Bytes()
}

// Digest returns the sha256 of a Module's deterministic encoding, the
// value a package archive checksum sidecar (spec §6.1) records for a
// sandbox artifact.
func Digest(m *Module) [sha256.Size]byte {
	return sha256.Sum256(Encode(m))
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// Disassemble renders a Func's instruction stream as one line per
// instruction, for tests and diagnostics (spec §8 scenario 2 inspects
// "the produced LIR for fixed-offset loads"; the sandbox-target analog
// inspects this text for the same OpLoadField/OpGuardedLoadField
// distinction).
func Disassemble(f *Func) string {
	var buf bytes.Buffer
	for i, ins := range f.Code {
		fmt.Fprintf(&buf, "%04d %-20s a=%d b=%d c=%d imm=%d\n", i, ins.Op, ins.A, ins.B, ins.C, ins.Imm)
	}
	return buf.String()
}
