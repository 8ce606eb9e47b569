package utils

import (
	"math"

	"github.com/pkg/errors"
	"go.einride.tech/can"
)

// EncodeFrame packs physical signal values into the frame's payload.
// Signals missing from values take their map default; values are clamped to
// the signal's physical range and then to its raw bit range.
func (m *CANMap) EncodeFrame(frameName string, values map[string]float64) ([]byte, uint32, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return nil, 0, err
	}
	if fd.DLC <= 0 || fd.DLC > 8 {
		return nil, 0, errors.Errorf("frame %s has invalid DLC %d", fd.Name, fd.DLC)
	}

	var data can.Data
	for _, s := range fd.Signals {
		v, ok := values[s.Name]
		if !ok || math.IsNaN(v) {
			v = s.Default
		}
		if s.Bounded() {
			v = clamp(v, s.Min, s.Max)
		}

		raw := int64(math.Round((v - s.Offset) / s.Factor))
		raw = clampRaw(raw, s.BitLength, s.Signed)
		setSignal(&data, s, raw)
	}

	out := make([]byte, fd.DLC)
	copy(out, data[:fd.DLC])
	return out, fd.ID, nil
}

// EncodeEinrideFrame produces an einride can.Frame ready to transmit.
func (m *CANMap) EncodeEinrideFrame(frameName string, values map[string]float64) (can.Frame, error) {
	payload, id, err := m.EncodeFrame(frameName, values)
	if err != nil {
		return can.Frame{}, err
	}

	var f can.Frame
	f.ID = id
	f.Length = uint8(len(payload))
	copy(f.Data[:], payload)

	return f, nil
}

func (m *CANMap) DecodeFrame(frameID uint32, data []byte) (map[string]float64, error) {
	fd, err := m.FrameByID(frameID)
	if err != nil {
		return nil, err
	}
	if len(data) < fd.DLC {
		return nil, errors.Errorf("frame 0x%X expects DLC %d, got %d", frameID, fd.DLC, len(data))
	}

	var d can.Data
	copy(d[:], data)

	out := make(map[string]float64, len(fd.Signals))
	for _, s := range fd.Signals {
		out[s.Name] = float64(getSignal(&d, s))*s.Factor + s.Offset
	}
	return out, nil
}

func setSignal(d *can.Data, s SignalDef, raw int64) {
	start, length := uint8(s.StartBit), uint8(s.BitLength)
	switch {
	case s.Endianness == BigEndian && s.Signed:
		d.SetSignedBitsBigEndian(start, length, raw)
	case s.Endianness == BigEndian:
		d.SetUnsignedBitsBigEndian(start, length, uint64(raw))
	case s.Signed:
		d.SetSignedBitsLittleEndian(start, length, raw)
	default:
		d.SetUnsignedBitsLittleEndian(start, length, uint64(raw))
	}
}

func getSignal(d *can.Data, s SignalDef) int64 {
	start, length := uint8(s.StartBit), uint8(s.BitLength)
	switch {
	case s.Endianness == BigEndian && s.Signed:
		return d.SignedBitsBigEndian(start, length)
	case s.Endianness == BigEndian:
		return int64(d.UnsignedBitsBigEndian(start, length))
	case s.Signed:
		return d.SignedBitsLittleEndian(start, length)
	default:
		return int64(d.UnsignedBitsLittleEndian(start, length))
	}
}

// SetRaw overwrites one signal's raw bits in an already encoded payload.
// Checksums are patched in this way once the rest of the frame is packed.
func (m *CANMap) SetRaw(frameName string, payload []byte, signal string, raw uint64) error {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return err
	}
	s, ok := fd.Signal(signal)
	if !ok {
		return errors.Errorf("frame %s has no signal %s", frameName, signal)
	}
	if len(payload) < fd.DLC {
		return errors.Errorf("frame %s expects DLC %d, got %d", frameName, fd.DLC, len(payload))
	}

	var d can.Data
	copy(d[:], payload)
	setSignal(&d, s, clampRaw(int64(raw), s.BitLength, false))
	copy(payload, d[:fd.DLC])
	return nil
}
