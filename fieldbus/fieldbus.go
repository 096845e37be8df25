// Package fieldbus exposes the register window as a Modbus holding
// register slave, which is how the operator panel reads positions and
// writes commands.
//
// The stock mbserver keeps its own register array; here the three
// holding-register functions are overridden so every access goes through
// the window's per-register serialization instead, write masking
// included. Inputs, coils and everything else keep the library defaults
// and answer from empty stores.

package fieldbus

import (
	"encoding/binary"
	"time"

	"github.com/goburrow/serial"
	"github.com/tbrandon/mbserver"

	"rotor/regs"
)

// UnitID is the slave address of the axis controller on the bus.
const UnitID = 17

// serialTimeout is the bus inactivity timeout.
const serialTimeout = time.Second

const (
	fnReadHolding   = 3
	fnWriteSingle   = 6
	fnWriteMultiple = 16
)

// Server serves one register window.
type Server struct {
	mb  *mbserver.Server
	win *regs.Window
}

func New(win *regs.Window) *Server {
	s := &Server{mb: mbserver.NewServer(), win: win}
	s.mb.RegisterFunctionHandler(fnReadHolding, s.readHolding)
	s.mb.RegisterFunctionHandler(fnWriteSingle, s.writeSingle)
	s.mb.RegisterFunctionHandler(fnWriteMultiple, s.writeMultiple)
	return s
}

// ListenTCP starts a Modbus TCP listener on addr.
func (s *Server) ListenTCP(addr string) error {
	return s.mb.ListenTCP(addr)
}

// ListenRTU starts a Modbus RTU listener on the given serial device.
func (s *Server) ListenRTU(device string) error {
	return s.mb.ListenRTU(&serial.Config{
		Address:  device,
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  serialTimeout,
	})
}

func (s *Server) Close() {
	s.mb.Close()
}

func (s *Server) readHolding(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	register := int(binary.BigEndian.Uint16(data[0:2]))
	numRegs := int(binary.BigEndian.Uint16(data[2:4]))
	if numRegs < 1 || register+numRegs > s.win.Words() {
		return []byte{}, &mbserver.IllegalDataAddress
	}

	out := make([]byte, 1+2*numRegs)
	out[0] = byte(2 * numRegs)
	for i := 0; i < numRegs; i++ {
		binary.BigEndian.PutUint16(out[1+2*i:], s.win.ReadWord(register+i))
	}
	return out, &mbserver.Success
}

func (s *Server) writeSingle(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	register := int(binary.BigEndian.Uint16(data[0:2]))
	if register >= s.win.Words() {
		return []byte{}, &mbserver.IllegalDataAddress
	}

	// writes to engine-owned registers are silently dropped by the
	// window; the response still echoes the request, as a slave with a
	// read-only register would
	s.win.WriteWord(register, binary.BigEndian.Uint16(data[2:4]))
	return data[0:4], &mbserver.Success
}

func (s *Server) writeMultiple(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	register := int(binary.BigEndian.Uint16(data[0:2]))
	numRegs := int(binary.BigEndian.Uint16(data[2:4]))
	byteCount := int(data[4])
	if byteCount != 2*numRegs {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if numRegs < 1 || register+numRegs > s.win.Words() {
		return []byte{}, &mbserver.IllegalDataAddress
	}

	for i := 0; i < numRegs; i++ {
		s.win.WriteWord(register+i, binary.BigEndian.Uint16(data[5+2*i:]))
	}
	return data[0:4], &mbserver.Success
}
