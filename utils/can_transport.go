package utils

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

//go:generate mockgen -source=can_transport.go -destination=mocks/mock_can_writer.go -package=mocks CANWriter

type CANWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

type SocketCANWriter struct {
	iface string
	conn  net.Conn
	tx    *socketcan.Transmitter
}

func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcan dial %s", iface)
	}
	return &SocketCANWriter{
		iface: iface,
		conn:  conn,
		tx:    socketcan.NewTransmitter(conn),
	}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	if err := w.tx.TransmitFrame(ctx, frame); err != nil {
		return errors.Wrapf(err, "%s: transmit 0x%X", w.iface, frame.ID)
	}
	return nil
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// BusWriters routes frames to one writer per logical bus number.
type BusWriters map[int]CANWriter

// DialBuses opens a socketcan writer for every bus -> interface entry.
func DialBuses(ctx context.Context, ifaces map[int]string) (BusWriters, error) {
	out := BusWriters{}
	for bus, iface := range ifaces {
		w, err := NewSocketCANWriter(ctx, iface)
		if err != nil {
			_ = out.Close()
			return nil, errors.Wrapf(err, "bus %d", bus)
		}
		out[bus] = w
	}
	return out, nil
}

// Write sends frame on bus. Frames for buses without a writer are dropped
// and reported as not sent.
func (b BusWriters) Write(ctx context.Context, bus int, frame can.Frame) (bool, error) {
	w, ok := b[bus]
	if !ok {
		return false, nil
	}
	if err := w.WriteFrame(ctx, frame); err != nil {
		return false, err
	}
	return true, nil
}

func (b BusWriters) Close() error {
	var first error
	for _, w := range b {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
