// Package snapshot turns a kernel into the blob a host persists between
// ticks and back.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/viant/tickos/internal/clock"
	"github.com/viant/tickos/runtime/kernel"
	"golang.org/x/crypto/blake2b"
)

// ErrChecksum is returned when stored data does not match its checksum.
var ErrChecksum = errors.New("snapshot: checksum mismatch")

// Snapshot is one persisted kernel.
type Snapshot struct {
	ID         string    `json:"id"`
	Tick       uint32    `json:"tick"`
	Processes  int       `json:"processes"`
	Compressed bool      `json:"compressed,omitempty"`
	Checksum   string    `json:"checksum,omitempty"`
	Data       []byte    `json:"data"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	ret := *s
	ret.Data = append([]byte(nil), s.Data...)
	return &ret
}

// Codec encodes and decodes snapshots.
type Codec struct {
	compress bool
	quality  int
	checksum bool
}

// Option configures a Codec.
type Option func(c *Codec)

// WithCompression enables brotli compression at the given quality (0-11).
func WithCompression(quality int) Option {
	return func(c *Codec) {
		c.compress = true
		c.quality = quality
	}
}

// WithChecksum toggles blake2b-256 checksums; enabled by default.
func WithChecksum(enabled bool) Option {
	return func(c *Codec) {
		c.checksum = enabled
	}
}

// New creates a codec.
func New(options ...Option) *Codec {
	ret := &Codec{checksum: true, quality: brotli.DefaultCompression}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Encode serializes k under id.
func (c *Codec) Encode(id string, k *kernel.Kernel) (*Snapshot, error) {
	data, err := k.MarshalBinary()
	if err != nil {
		return nil, err
	}
	ret := &Snapshot{
		ID:        id,
		Tick:      k.Tick(),
		Processes: k.Len(),
		CreatedAt: clock.Now(),
	}
	if c.compress {
		if data, err = compress(data, c.quality); err != nil {
			return nil, fmt.Errorf("failed to compress snapshot %s: %w", id, err)
		}
		ret.Compressed = true
	}
	if c.checksum {
		ret.Checksum = checksum(data)
	}
	ret.Data = data
	return ret, nil
}

// Decode rebuilds the kernel stored in s. A codec with checksums enabled
// rejects snapshots without one.
func (c *Codec) Decode(s *Snapshot, options ...kernel.Option) (*kernel.Kernel, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot was nil")
	}
	data := s.Data
	if (c.checksum || s.Checksum != "") && checksum(data) != s.Checksum {
		return nil, fmt.Errorf("%w: %s", ErrChecksum, s.ID)
	}
	if s.Compressed {
		var err error
		if data, err = io.ReadAll(brotli.NewReader(bytes.NewReader(data))); err != nil {
			return nil, fmt.Errorf("failed to decompress snapshot %s: %w", s.ID, err)
		}
	}
	ret, err := kernel.Restore(data, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %s: %w", s.ID, err)
	}
	return ret, nil
}

func compress(data []byte, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := brotli.NewWriterLevel(buf, quality)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
