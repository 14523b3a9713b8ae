package graph

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"
	"unsafe"
)

const (
	magicBytes  = "DRVGRAPH"
	version     = uint32(1)
	maxNodes    = 10_000_000
	maxEdges    = 50_000_000
	maxHighways = math.MaxUint16
	maxNameLen  = 256
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic       [8]byte
	Version     uint32
	NumNodes    uint32
	NumEdges    uint32
	NumHighways uint32
}

// WriteBinary serializes the unannotated part of g (topology, coordinates,
// lengths, maxspeed tags, highway classes) to path. Speeds and travel times
// are derived on load, not stored. The file is written to a temp path and
// renamed into place, so readers never observe a partial file.
func WriteBinary(path string, g *Graph) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	w := &crc32Writer{w: f, hash: crc32.NewIEEE()}

	hdr := fileHeader{
		Version:     version,
		NumNodes:    g.NumNodes,
		NumEdges:    g.NumEdges,
		NumHighways: uint32(len(g.Highways)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	sections := []struct {
		name  string
		write func() error
	}{
		{"NodeID", func() error { return writeSlice(w, g.NodeID) }},
		{"NodeLat", func() error { return writeSlice(w, g.NodeLat) }},
		{"NodeLon", func() error { return writeSlice(w, g.NodeLon) }},
		{"FirstOut", func() error { return writeSlice(w, g.FirstOut) }},
		{"Head", func() error { return writeSlice(w, g.Head) }},
		{"Length", func() error { return writeSlice(w, g.Length) }},
		{"MaxSpeed", func() error { return writeSlice(w, g.MaxSpeed) }},
		{"HighwayIdx", func() error { return writeSlice(w, g.HighwayIdx) }},
		{"Highways", func() error { return writeStrings(w, g.Highways) }},
	}
	for _, s := range sections {
		if err := s.write(); err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
	}

	// CRC32 trailer covers everything before it.
	if err := binary.Write(f, binary.LittleEndian, w.hash.Sum32()); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadBinary deserializes a graph written by WriteBinary. The result is not
// annotated; call Annotate before routing on it.
func ReadBinary(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := &crc32Reader{r: f, hash: crc32.NewIEEE()}

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("NumNodes %d exceeds limit %d", hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("NumEdges %d exceeds limit %d", hdr.NumEdges, maxEdges)
	}
	if hdr.NumHighways > maxHighways {
		return nil, fmt.Errorf("NumHighways %d exceeds limit %d", hdr.NumHighways, maxHighways)
	}

	g := &Graph{NumNodes: hdr.NumNodes, NumEdges: hdr.NumEdges}
	nn, ne := int(hdr.NumNodes), int(hdr.NumEdges)

	if g.NodeID, err = readSlice[int64](r, nn); err != nil {
		return nil, fmt.Errorf("read NodeID: %w", err)
	}
	if g.NodeLat, err = readSlice[float64](r, nn); err != nil {
		return nil, fmt.Errorf("read NodeLat: %w", err)
	}
	if g.NodeLon, err = readSlice[float64](r, nn); err != nil {
		return nil, fmt.Errorf("read NodeLon: %w", err)
	}
	if g.FirstOut, err = readSlice[uint32](r, nn+1); err != nil {
		return nil, fmt.Errorf("read FirstOut: %w", err)
	}
	if g.Head, err = readSlice[uint32](r, ne); err != nil {
		return nil, fmt.Errorf("read Head: %w", err)
	}
	if g.Length, err = readSlice[float64](r, ne); err != nil {
		return nil, fmt.Errorf("read Length: %w", err)
	}
	if g.MaxSpeed, err = readSlice[float64](r, ne); err != nil {
		return nil, fmt.Errorf("read MaxSpeed: %w", err)
	}
	if g.HighwayIdx, err = readSlice[uint16](r, ne); err != nil {
		return nil, fmt.Errorf("read HighwayIdx: %w", err)
	}
	if g.Highways, err = readStrings(r, int(hdr.NumHighways)); err != nil {
		return nil, fmt.Errorf("read Highways: %w", err)
	}

	expectedCRC := r.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := validateCSR(g.FirstOut, g.Head, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("CSR invalid: %w", err)
	}
	for e, h := range g.HighwayIdx {
		if uint32(h) >= hdr.NumHighways {
			return nil, fmt.Errorf("HighwayIdx[%d]=%d >= NumHighways=%d", e, h, hdr.NumHighways)
		}
	}

	return g, nil
}

// validateCSR checks CSR invariants.
func validateCSR(firstOut, head []uint32, numNodes uint32) error {
	if uint32(len(firstOut)) != numNodes+1 {
		return fmt.Errorf("FirstOut length %d != NumNodes+1 %d", len(firstOut), numNodes+1)
	}
	if firstOut[0] != 0 {
		return fmt.Errorf("FirstOut[0]=%d, want 0", firstOut[0])
	}
	if uint32(len(head)) != firstOut[numNodes] {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes] %d", len(head), firstOut[numNodes])
	}
	for i := uint32(1); i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, h := range head {
		if h >= numNodes {
			return fmt.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, numNodes)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice. The file is in host byte order,
// which is little-endian on every platform this runs on.

type fixedSize interface {
	~uint16 | ~uint32 | ~int64 | ~float64
}

func writeSlice[T fixedSize](w io.Writer, s []T) error {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
	_, err := w.Write(b)
	return err
}

func readSlice[T fixedSize](r io.Reader, n int) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]T, n)
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func writeStrings(w io.Writer, ss []string) error {
	for _, s := range ss {
		if len(s) > maxNameLen {
			return fmt.Errorf("name %q longer than %d bytes", s, maxNameLen)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readStrings(r io.Reader, n int) ([]string, error) {
	ss := make([]string, n)
	for i := range ss {
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, err
		}
		if l > maxNameLen {
			return nil, fmt.Errorf("name length %d exceeds %d", l, maxNameLen)
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		ss[i] = string(buf)
	}
	return ss, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash hash.Hash32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash hash.Hash32
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
