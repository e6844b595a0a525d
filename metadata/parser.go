package metadata

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/nilsaberg/actf2/endian"
	"github.com/nilsaberg/actf2/errs"
)

const (
	recordSeparator = 0x1E

	pmetaMagic       uint32 = 0x75D11D57
	pmetaHeaderBits  uint32 = 352
	pmetaHeaderBytes        = pmetaHeaderBits / 8
	pmetaMajor       uint8  = 2
	pmetaMinor       uint8  = 0
)

// JsonSchemaParser builds a Model from a CTF2 metadata stream, in either of
// its two wire forms (spec.md §6): a bare RS-separated JSON fragment stream,
// or a CTF2-PMETA-1.0 packetized stream of 44-byte headers each followed by
// a fragment-stream slice.
//
// A parser is single-use: call one of ParseFragments / ParsePacketized once
// and take the returned, already-frozen Model.
type JsonSchemaParser struct {
	b *builder
}

// NewJsonSchemaParser returns a ready-to-use parser.
func NewJsonSchemaParser() *JsonSchemaParser {
	return &JsonSchemaParser{b: newBuilder()}
}

// ParseFragments parses buf as a sequence of JSON fragments separated by the
// ASCII Record Separator byte (0x1E), feeding each to the model builder in
// order, then freezes and returns the resulting Model.
func (p *JsonSchemaParser) ParseFragments(buf []byte) (*Model, error) {
	if err := p.feedFragmentStream(buf); err != nil {
		return nil, err
	}
	if p.b.model.preamble == nil {
		return nil, errs.ErrNoPreamble
	}
	p.b.model.Freeze()

	return p.b.model, nil
}

// feedFragmentStream tokenizes buf on 0x1E boundaries and decodes each
// non-empty fragment. Every fragment in buf, the last included, must be a
// complete JSON value; ParsePacketized concatenates all packet payloads
// before calling it once, so a fragment split across packets arrives whole.
func (p *JsonSchemaParser) feedFragmentStream(buf []byte) error {
	start := 0
	for start < len(buf) {
		idx := bytes.IndexByte(buf[start:], recordSeparator)
		var frag []byte
		if idx < 0 {
			frag = buf[start:]
			start = len(buf)
		} else {
			frag = buf[start : start+idx]
			start += idx + 1
		}
		if len(frag) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(frag))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return errs.Wrap("parse metadata fragment", errs.ErrJSONParse)
		}
		if p.b.model.preamble == nil && raw["type"] != "preamble" {
			return errs.ErrNoPreamble
		}
		if err := p.b.applyFragment(raw); err != nil {
			return err
		}
	}

	return nil
}

// pmetaHeader is the CTF2-PMETA-1.0 metadata-packet header (spec.md §6): 44
// bytes, byte-order determined by how the magic reads.
type pmetaHeader struct {
	contentSzBits uint32
	totalSzBits   uint32
}

// ParsePacketized parses buf as a CTF2-PMETA-1.0 packetized metadata stream:
// back-to-back 44-byte headers, each followed by a fragment-stream slice
// running from the header's end to content_sz_bits, with padding out to
// total_sz_bits. The JSON tokenizer's partial-token state is expected to
// carry across packet boundaries (spec.md §9): since Go's encoding/json
// needs a complete value per Unmarshal call, packet payloads are
// concatenated into one fragment-stream buffer before tokenizing, which
// achieves the same semantics (a fragment may straddle a packet boundary)
// without depending on a streaming tokenizer.
func (p *JsonSchemaParser) ParsePacketized(buf []byte) (*Model, error) {
	var payload bytes.Buffer

	cur := 0
	for cur < len(buf) {
		hdr, err := readPmetaHeader(buf[cur:])
		if err != nil {
			return nil, err
		}

		contentBytes := int(hdr.contentSzBits / 8)
		totalBytes := int(hdr.totalSzBits / 8)
		if cur+contentBytes > len(buf) {
			return nil, errs.ErrInvalidMetadataPacket
		}

		payload.Write(buf[cur+pmetaHeaderBytes : cur+contentBytes])
		cur += totalBytes
	}

	if err := p.feedFragmentStream(payload.Bytes()); err != nil {
		return nil, err
	}
	if p.b.model.preamble == nil {
		return nil, errs.ErrNoPreamble
	}
	p.b.model.Freeze()

	return p.b.model, nil
}

// readPmetaHeader reads and validates one 44-byte packet header. The magic
// number's byte order (auto-detected against its two valid readings)
// determines how every other multi-byte field in the header is read.
func readPmetaHeader(buf []byte) (pmetaHeader, error) {
	if len(buf) < pmetaHeaderBytes {
		return pmetaHeader{}, errs.ErrInvalidMetadataPacket
	}

	rawMagic := binary.LittleEndian.Uint32(buf[0:4])
	var bo endian.EndianEngine
	switch rawMagic {
	case pmetaMagic:
		bo = endian.GetLittleEndianEngine()
	case swap32(pmetaMagic):
		bo = endian.GetBigEndianEngine()
	default:
		return pmetaHeader{}, errs.ErrMagicMismatch
	}

	// Layout: magic(4) uuid(16) checksum(4) content_sz_bits(4)
	// total_sz_bits(4) compression(1) encryption(1) content_checksum(1)
	// major(1) minor(1) reserved(3) hdr_sz_bits(4) = 44 bytes.
	contentSzBits := bo.Uint32(buf[24:28])
	totalSzBits := bo.Uint32(buf[28:32])
	compression := buf[32]
	encryption := buf[33]
	contentChecksum := buf[34]
	major := buf[35]
	minor := buf[36]
	hdrSzBits := bo.Uint32(buf[40:44])

	if compression != 0 || encryption != 0 || contentChecksum != 0 {
		return pmetaHeader{}, errs.ErrInvalidMetadataPacket
	}
	if major != pmetaMajor || minor != pmetaMinor {
		return pmetaHeader{}, errs.ErrUnsupportedVersion
	}
	if hdrSzBits != pmetaHeaderBits {
		return pmetaHeader{}, errs.ErrInvalidMetadataPacket
	}
	if contentSzBits%8 != 0 || totalSzBits%8 != 0 {
		return pmetaHeader{}, errs.ErrInvalidContentLength
	}
	if contentSzBits < hdrSzBits || totalSzBits < contentSzBits {
		return pmetaHeader{}, errs.ErrInvalidContentLength
	}

	return pmetaHeader{contentSzBits: contentSzBits, totalSzBits: totalSzBits}, nil
}

func swap32(v uint32) uint32 {
	return (v>>24)&0xff | (v>>8)&0xff00 | (v<<8)&0xff0000 | (v << 24)
}
