package codec

import "fmt"

// TicSize is the packed size of one tic record.
const TicSize = 4

// fieldSpec describes one single-byte field of a tic record.
type fieldSpec struct {
	name   string
	signed bool
}

func (s fieldSpec) min() int {
	if s.signed {
		return -128
	}
	return 0
}

func (s fieldSpec) max() int {
	if s.signed {
		return 127
	}
	return 255
}

func (s fieldSpec) unpack(b byte) int {
	if s.signed {
		return int(int8(b))
	}
	return int(b)
}

// pack assumes v has been range checked.
func (s fieldSpec) pack(v int) byte {
	if s.signed {
		return byte(int8(v))
	}
	return byte(v)
}

// ticLayout is the packed tic record: three int8 and one uint8. Single-byte
// fields carry no endianness.
var ticLayout = [TicSize]fieldSpec{
	{name: "movement", signed: true},
	{name: "strafing", signed: true},
	{name: "turning", signed: true},
	{name: "action", signed: false},
}

// Frame is one tic of recorded player input.
type Frame struct {
	Movement int
	Strafing int
	Turning  int
	Action   int
}

// Values returns the fields in wire order.
func (f Frame) Values() [TicSize]int {
	return [TicSize]int{f.Movement, f.Strafing, f.Turning, f.Action}
}

// FrameFromValues builds a Frame from fields in wire order.
func FrameFromValues(v [TicSize]int) Frame {
	return Frame{Movement: v[0], Strafing: v[1], Turning: v[2], Action: v[3]}
}

// DecodeFrames unpacks buf into tics in order. Trailing bytes that do not form
// a whole record are dropped; their count is returned so the caller can warn.
func DecodeFrames(buf []byte) ([]Frame, int) {
	n := len(buf) / TicSize
	frames := make([]Frame, n)
	for i := 0; i < n; i++ {
		chunk := buf[i*TicSize : (i+1)*TicSize]
		var v [TicSize]int
		for j, fs := range ticLayout {
			v[j] = fs.unpack(chunk[j])
		}
		frames[i] = FrameFromValues(v)
	}
	return frames, len(buf) % TicSize
}

// EncodeFrames packs frames back into contiguous tic records.
func EncodeFrames(frames []Frame) ([]byte, error) {
	buf := make([]byte, 0, len(frames)*TicSize)
	for i, f := range frames {
		for j, v := range f.Values() {
			fs := ticLayout[j]
			if v < fs.min() || v > fs.max() {
				return nil, fmt.Errorf("%w: tic %d %s = %d not in [%d, %d]",
					ErrRange, i, fs.name, v, fs.min(), fs.max())
			}
			buf = append(buf, fs.pack(v))
		}
	}
	return buf, nil
}
