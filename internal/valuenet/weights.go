package valuenet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Weight file format constants
const (
	MagicNumber = 0x564E4554 // "VNET"
	Version     = 1
)

// ErrInvalidWeights is returned for files with a bad header or shape.
var ErrInvalidWeights = errors.New("invalid value network weights")

// FileHeader is the header of the weight file.
type FileHeader struct {
	Magic    uint32
	Version  uint32
	Planes   uint32
	Channels uint32
	Hidden   uint32
}

// Load reads a network from a weights file.
// File format: FileHeader followed by Conv1W, Conv1B, Conv2W, Conv2B, FC1W,
// FC1B, FC2W, FC2B as little-endian float32 in declaration order.
func Load(filename string) (*Network, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a network from r.
func Read(r io.Reader) (*Network, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: magic %x, expected %x", ErrInvalidWeights, header.Magic, MagicNumber)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: version %d, expected %d", ErrInvalidWeights, header.Version, Version)
	}
	if header.Planes != Planes || header.Channels != Channels || header.Hidden != Hidden {
		return nil, fmt.Errorf("%w: shape %d/%d/%d, expected %d/%d/%d", ErrInvalidWeights,
			header.Planes, header.Channels, header.Hidden, Planes, Channels, Hidden)
	}

	n := &Network{}
	for _, s := range n.sections() {
		if err := binary.Read(r, binary.LittleEndian, s.data); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.name, err)
		}
	}
	return n, nil
}

// Save writes the network to a weights file.
func (n *Network) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	if err := n.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes the network to w.
func (n *Network) Write(w io.Writer) error {
	header := FileHeader{
		Magic:    MagicNumber,
		Version:  Version,
		Planes:   Planes,
		Channels: Channels,
		Hidden:   Hidden,
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range n.sections() {
		if err := binary.Write(w, binary.LittleEndian, s.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.name, err)
		}
	}
	return nil
}

type section struct {
	name string
	data any
}

func (n *Network) sections() []section {
	return []section{
		{"conv1 weights", &n.Conv1W},
		{"conv1 bias", &n.Conv1B},
		{"conv2 weights", &n.Conv2W},
		{"conv2 bias", &n.Conv2B},
		{"fc1 weights", &n.FC1W},
		{"fc1 bias", &n.FC1B},
		{"fc2 weights", &n.FC2W},
		{"fc2 bias", &n.FC2B},
	}
}
