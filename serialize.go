package exprgraph

import (
	"encoding/binary"
	"io"
	"math"

	"exprgraph/internal/opcode"
	"exprgraph/internal/store"
)

const magicByte byte = 'T'

// Wire tags for the node kinds that don't map onto an opcode.Op byte.
// opcode.Op occupies 0..23, so these start past it to keep the two byte
// spaces disjoint.
const (
	tagConstantValue byte = 24 + iota
	tagVarX
	tagVarY
	tagVarZ
	tagVarFree
	tagRemap
	tagConstVar
	tagOracle
)

// Serialize writes t in the bit-exact binary format: a magic byte, four
// empty metadata markers, one record per unique node reachable from t in
// post-order, and a two-byte terminator. t is borrowed.
func Serialize(t Handle, w io.Writer) error {
	if _, err := w.Write([]byte{magicByte}); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if _, err := w.Write([]byte{'"'}); err != nil {
			return err
		}
	}

	order := postOrder(t.n)
	index := make(map[*store.Node]uint32, len(order))

	writeU32 := func(v uint32) error {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], v)
		_, err := w.Write(buf[:])
		return err
	}

	for i, n := range order {
		index[n] = uint32(i)
		switch n.Kind {
		case store.Constant:
			if _, err := w.Write([]byte{tagConstantValue}); err != nil {
				return err
			}
			if err := writeU32(n.Bits); err != nil {
				return err
			}
		case store.AxisX:
			if _, err := w.Write([]byte{tagVarX}); err != nil {
				return err
			}
		case store.AxisY:
			if _, err := w.Write([]byte{tagVarY}); err != nil {
				return err
			}
		case store.AxisZ:
			if _, err := w.Write([]byte{tagVarZ}); err != nil {
				return err
			}
		case store.FreeVar:
			if _, err := w.Write([]byte{tagVarFree}); err != nil {
				return err
			}
		case store.UnaryOp:
			if _, err := w.Write([]byte{byte(n.Op)}); err != nil {
				return err
			}
			if err := writeU32(index[n.Children[0]]); err != nil {
				return err
			}
		case store.BinaryOp:
			if _, err := w.Write([]byte{byte(n.Op)}); err != nil {
				return err
			}
			if err := writeU32(index[n.Children[0]]); err != nil {
				return err
			}
			if err := writeU32(index[n.Children[1]]); err != nil {
				return err
			}
		case store.RemapOp:
			if _, err := w.Write([]byte{tagRemap}); err != nil {
				return err
			}
			for _, c := range n.Children {
				if err := writeU32(index[c]); err != nil {
					return err
				}
			}
		case store.ConstVarOp:
			if _, err := w.Write([]byte{tagConstVar}); err != nil {
				return err
			}
			if err := writeU32(index[n.Children[0]]); err != nil {
				return err
			}
		case store.OracleOp:
			if _, err := w.Write([]byte{tagOracle}); err != nil {
				return err
			}
			tag := n.Clause.Tag()
			if err := writeU32(uint32(len(tag))); err != nil {
				return err
			}
			if _, err := io.WriteString(w, tag); err != nil {
				return err
			}
			if err := n.Clause.Encode(w); err != nil {
				return err
			}
		}
	}

	_, err := w.Write([]byte{0xFF, 0xFF})
	return err
}

// countingReader wraps an io.Reader to track the byte offset deserialise
// errors report.
type countingReader struct {
	r      io.Reader
	offset int64
}

func (c *countingReader) readByte() (byte, error) {
	var buf [1]byte
	n, err := io.ReadFull(c.r, buf[:])
	c.offset += int64(n)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c *countingReader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(c.r, buf)
	c.offset += int64(read)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *countingReader) readU32() (uint32, error) {
	buf, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Deserialize parses the binary format C8 defines, reconstructing every
// node through the smart constructors (so interning and identity folds
// apply exactly as if the caller had built the graph directly), and
// returns a new, independently owned Handle to the root.
func Deserialize(r io.Reader) (Handle, error) {
	cr := &countingReader{r: r}

	magic, err := cr.readByte()
	if err != nil {
		return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading magic byte", Err: err}
	}
	if magic != magicByte {
		return Handle{}, &DeserializeError{Kind: BadMagic, Offset: cr.offset, Message: "expected 'T'"}
	}

	for i := 0; i < 4; i++ {
		b, err := cr.readByte()
		if err != nil {
			return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading metadata marker", Err: err}
		}
		if b != '"' {
			return Handle{}, &DeserializeError{Kind: BadMetadata, Offset: cr.offset, Message: "expected empty-metadata marker"}
		}
	}

	var nodes []Handle
	defer func() {
		for _, h := range nodes {
			h.Release()
		}
	}()

	resolve := func(i uint32) (Handle, error) {
		if int(i) >= len(nodes) {
			return Handle{}, &DeserializeError{Kind: BadIndex, Offset: cr.offset, Message: "back-reference index out of range"}
		}
		return nodes[i], nil
	}

	for {
		tag, err := cr.readByte()
		if err != nil {
			return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading record tag before terminator", Err: err}
		}
		if tag == 0xFF {
			second, err := cr.readByte()
			if err != nil {
				return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading terminator", Err: err}
			}
			if second != 0xFF {
				return Handle{}, &DeserializeError{Kind: MissingTerminator, Offset: cr.offset, Message: "expected second 0xFF"}
			}
			break
		}

		var h Handle
		switch tag {
		case tagConstantValue:
			bits, err := cr.readU32()
			if err != nil {
				return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading constant bits", Err: err}
			}
			h = Constant(math.Float32frombits(bits))

		case tagVarX:
			h = X()
		case tagVarY:
			h = Y()
		case tagVarZ:
			h = Z()
		case tagVarFree:
			h = Var()

		case tagRemap:
			args := make([]Handle, 4)
			for i := range args {
				idx, err := cr.readU32()
				if err != nil {
					return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading remap operand index", Err: err}
				}
				args[i], err = resolve(idx)
				if err != nil {
					return Handle{}, err
				}
			}
			h = Remap(args[0], args[1], args[2], args[3])

		case tagConstVar:
			idx, err := cr.readU32()
			if err != nil {
				return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading const-var operand index", Err: err}
			}
			body, err := resolve(idx)
			if err != nil {
				return Handle{}, err
			}
			h = WithConstVars(body)

		case tagOracle:
			tagLen, err := cr.readU32()
			if err != nil {
				return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading oracle tag length", Err: err}
			}
			tagBytes, err := cr.readN(int(tagLen))
			if err != nil {
				return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading oracle tag", Err: err}
			}
			decode, ok := lookupOracleDecoder(string(tagBytes))
			if !ok {
				return Handle{}, &DeserializeError{Kind: UnknownOracleTag, Offset: cr.offset, Message: "no decoder registered for tag " + string(tagBytes)}
			}
			clause, err := decode(cr.r)
			if err != nil {
				return Handle{}, &DeserializeError{Kind: OracleDecodeFailed, Offset: cr.offset, Message: "oracle clause decode failed", Err: err}
			}
			h = Oracle(clause)

		default:
			if info, ok := opcode.LookupByte(tag); ok {
				switch info.Arity {
				case 1:
					idx, err := cr.readU32()
					if err != nil {
						return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading unary operand index", Err: err}
					}
					child, err := resolve(idx)
					if err != nil {
						return Handle{}, err
					}
					h = Unary(info.Op, child)
				case 2:
					lidx, err := cr.readU32()
					if err != nil {
						return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading lhs operand index", Err: err}
					}
					ridx, err := cr.readU32()
					if err != nil {
						return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "reading rhs operand index", Err: err}
					}
					lhs, err := resolve(lidx)
					if err != nil {
						return Handle{}, err
					}
					rhs, err := resolve(ridx)
					if err != nil {
						return Handle{}, err
					}
					h = Binary(info.Op, lhs, rhs)
				}
			} else {
				return Handle{}, &DeserializeError{Kind: BadOpcode, Offset: cr.offset, Message: "unrecognised record tag byte"}
			}
		}

		nodes = append(nodes, h)
	}

	if len(nodes) == 0 {
		return Handle{}, &DeserializeError{Kind: Truncated, Offset: cr.offset, Message: "stream has no node records"}
	}
	return nodes[len(nodes)-1].Clone(), nil
}
