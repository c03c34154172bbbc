package qkd

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the Result wire format. Records are encoded in protobuf
// wire format so that consumers in other languages can decode them with a
// matching message definition:
//
//	message Result {
//	  int32  protocol         = 1;
//	  bool   eavesdropping    = 2;
//	  bool   accepted         = 3;
//	  double error_rate       = 4;
//	  int64  raw_key_length   = 5;
//	  int64  final_key_length = 6;
//	  string reason           = 7;
//	}
const (
	fieldProtocol       protowire.Number = 1
	fieldEavesdropping  protowire.Number = 2
	fieldAccepted       protowire.Number = 3
	fieldErrorRate      protowire.Number = 4
	fieldRawKeyLength   protowire.Number = 5
	fieldFinalKeyLength protowire.Number = 6
	fieldReason         protowire.Number = 7
)

// maxRecordSize bounds the frame length a RecordReader will accept.
const maxRecordSize = 1 << 16

// MarshalResult encodes r in protobuf wire format. Equal results always
// encode to identical bytes.
func MarshalResult(r Result) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldProtocol, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Protocol))
	b = protowire.AppendTag(b, fieldEavesdropping, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(r.Eavesdropping))
	b = protowire.AppendTag(b, fieldAccepted, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(r.Accepted))
	b = protowire.AppendTag(b, fieldErrorRate, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.ErrorRate))
	b = protowire.AppendTag(b, fieldRawKeyLength, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.RawKeyLength))
	b = protowire.AppendTag(b, fieldFinalKeyLength, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.FinalKeyLength))
	if r.Reason != ReasonNone {
		b = protowire.AppendTag(b, fieldReason, protowire.BytesType)
		b = protowire.AppendString(b, string(r.Reason))
	}
	return b
}

// UnmarshalResult decodes a record produced by MarshalResult. Unknown fields
// are skipped.
func UnmarshalResult(b []byte) (Result, error) {
	var r Result
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Result{}, fmt.Errorf("reading tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldErrorRate && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Result{}, fmt.Errorf("reading error rate: %w", protowire.ParseError(n))
			}
			r.ErrorRate = math.Float64frombits(v)
			b = b[n:]
		case num == fieldReason && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Result{}, fmt.Errorf("reading reason: %w", protowire.ParseError(n))
			}
			r.Reason = Reason(v)
			b = b[n:]
		case typ == protowire.VarintType && num >= fieldProtocol && num <= fieldFinalKeyLength:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Result{}, fmt.Errorf("reading field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldProtocol:
				r.Protocol = Protocol(v)
			case fieldEavesdropping:
				r.Eavesdropping = protowire.DecodeBool(v)
			case fieldAccepted:
				r.Accepted = protowire.DecodeBool(v)
			case fieldRawKeyLength:
				r.RawKeyLength = int(v)
			case fieldFinalKeyLength:
				r.FinalKeyLength = int(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Result{}, fmt.Errorf("skipping field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return r, nil
}

// A RecordWriter writes framed Result records to the wire. The structure of
// a frame is trivial: record-length | record, with the length an int32 in
// little-endian order.
type RecordWriter struct {
	w io.Writer
}

// NewRecordWriter returns a RecordWriter framing records onto w.
func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{w: w}
}

// Write frames and writes a single record.
func (rw *RecordWriter) Write(r Result) error {
	marshalled := MarshalResult(r)
	if err := binary.Write(rw.w, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	if _, err := rw.w.Write(marshalled); err != nil {
		return err
	}
	return nil
}

// A RecordReader reads frames written by a RecordWriter.
type RecordReader struct {
	r io.Reader
}

// NewRecordReader returns a RecordReader consuming frames from r.
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: r}
}

// Read returns the next record, or io.EOF once the stream ends cleanly
// between frames.
func (rr *RecordReader) Read() (Result, error) {
	var mLen int32
	if err := binary.Read(rr.r, binary.LittleEndian, &mLen); err != nil {
		return Result{}, err
	}
	if mLen < 0 || mLen > maxRecordSize {
		return Result{}, fmt.Errorf("invalid record length %d", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(rr.r, marshalled); err != nil {
		return Result{}, fmt.Errorf("reading record: %w", err)
	}
	return UnmarshalResult(marshalled)
}
