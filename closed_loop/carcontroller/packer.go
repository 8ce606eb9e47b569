package carcontroller

import (
	"github.com/pkg/errors"

	"adas-actuation-core/closed_loop/vehicle"
	"adas-actuation-core/utils"
)

type checksum struct {
	signal  string
	compute func(addr uint32, payload []byte) uint64
}

var checksums = map[string]checksum{
	"STEERING_LKA": {"CHECKSUM", toyotaChecksum},
	"STEERING_LTA": {"CHECKSUM", toyotaChecksum},
	"ACC_CONTROL":  {"CHECKSUM", toyotaChecksum},
	"PCM_CRUISE":   {"CHECKSUM", toyotaChecksum},
	"GAS_COMMAND":  {"CHECKSUM_PEDAL", pedalChecksum},
	"LKAS11":       {"CF_Lkas_Chksum", lkas11Checksum},
	"SCC12":        {"CR_VSM_ChkSum", scc12Checksum},
}

var brandFrames = map[vehicle.Brand][]string{
	vehicle.Toyota: {
		"STEERING_LKA", "STEERING_LTA", "ACC_CONTROL", "PCM_CRUISE",
		"GAS_COMMAND", "LKAS_HUD", "ACC_HUD",
	},
	vehicle.Hyundai: {
		"LKAS11", "CLU11", "SCC11", "SCC12", "SCC14",
		"SCC13", "FCA12", "FRT_RADAR11", "LFAHDA_MFC",
	},
}

// Packer turns named signal values into payloads with counters and
// checksums in place.
type Packer struct {
	m *utils.CANMap
}

// NewPacker checks that m describes every frame the brand sends,
// including the checksum signals.
func NewPacker(m *utils.CANMap, brand vehicle.Brand) (*Packer, error) {
	if m == nil {
		return nil, errors.New("nil can map")
	}
	names, ok := brandFrames[brand]
	if !ok {
		return nil, errors.Errorf("no frame set for brand %q", brand)
	}
	for _, name := range names {
		fd, err := m.FrameByName(name)
		if err != nil {
			return nil, errors.Wrapf(err, "brand %s", brand)
		}
		if cs, ok := checksums[name]; ok {
			if _, ok := fd.Signal(cs.signal); !ok {
				return nil, errors.Errorf("frame %s is missing checksum signal %s", name, cs.signal)
			}
		}
	}
	return &Packer{m: m}, nil
}

// Pack encodes one frame for bus.
func (p *Packer) Pack(name string, values map[string]float64, bus int) (Frame, error) {
	payload, addr, err := p.m.EncodeFrame(name, values)
	if err != nil {
		return Frame{}, errors.Wrapf(err, "pack %s", name)
	}
	if cs, ok := checksums[name]; ok {
		if err := p.m.SetRaw(name, payload, cs.signal, cs.compute(addr, payload)); err != nil {
			return Frame{}, errors.Wrapf(err, "checksum %s", name)
		}
	}
	return Frame{Address: addr, Payload: payload, Bus: bus}, nil
}

// toyotaChecksum sums the address, length and every byte but the last.
func toyotaChecksum(addr uint32, payload []byte) uint64 {
	s := uint64(addr&0xFF) + uint64(addr>>8&0xFF) + uint64(len(payload))
	for _, b := range payload[:len(payload)-1] {
		s += uint64(b)
	}
	return s & 0xFF
}

// pedalChecksum is CRC-8 (poly 0xD5, init 0xFF) over the data bytes
// taken in reverse order.
func pedalChecksum(_ uint32, payload []byte) uint64 {
	const poly = 0xD5
	crc := byte(0xFF)
	for i := len(payload) - 2; i >= 0; i-- {
		crc ^= payload[i]
		for j := 0; j < 8; j++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return uint64(crc)
}

func lkas11Checksum(_ uint32, payload []byte) uint64 {
	var s uint64
	for _, b := range payload[:6] {
		s += uint64(b)
	}
	s += uint64(payload[7])
	return s % 256
}

// scc12Checksum makes the nibble sum of the frame a multiple of 16.
func scc12Checksum(_ uint32, payload []byte) uint64 {
	var s uint64
	for _, b := range payload {
		s += uint64(b&0xF) + uint64(b>>4)
	}
	return (16 - s%16) & 0xF
}

// batch collects the frames of one tick and keeps the first pack error.
type batch struct {
	p      *Packer
	frames []Frame
	err    error
}

func (b *batch) add(name string, values map[string]float64, bus int) {
	if b.err != nil {
		return
	}
	f, err := b.p.Pack(name, values, bus)
	if err != nil {
		b.err = err
		return
	}
	b.frames = append(b.frames, f)
}

func (b *batch) raw(f Frame) {
	f.Payload = append([]byte(nil), f.Payload...)
	b.frames = append(b.frames, f)
}
