// Package eip implements the ENIP-layer surface UCMM consumes: the
// encapsulation command codes, the CPF item codec, and the discovery
// reply encoders (§4.8/§6). The 24-byte encapsulation header itself
// (session handle, length, sender context) is the socket framing
// layer's job -- out of scope per §1 -- so this package only names the
// commands that layer demultiplexes on and encodes/decodes the payload
// carried inside them.
package eip

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Command is an ENIP encapsulation command code.
type Command uint16

// Encapsulation commands (§4.8, §6 GLOSSARY). CommandLegacy is the
// pre-CPF BOOTP-era broadcast discovery command (type 0x0001 in the
// GLOSSARY's "legacy (0x0001)" row); it predates the CommonPacketFormat
// and is handled by name rather than folded into the CPF item table.
const (
	CommandNop               Command = 0x0000
	CommandLegacy            Command = 0x0001
	CommandListServices      Command = 0x0004
	CommandListIdentity      Command = 0x0063
	CommandListInterfaces    Command = 0x0064
	CommandRegisterSession   Command = 0x0065
	CommandUnregisterSession Command = 0x0066
	CommandSendRRData        Command = 0x006F
	CommandSendUnitData      Command = 0x0070
	CommandIndicateStatus    Command = 0x0072
	CommandCancel            Command = 0x0073
)

func (c Command) String() string {
	switch c {
	case CommandNop:
		return "Nop"
	case CommandLegacy:
		return "Legacy"
	case CommandListServices:
		return "ListServices"
	case CommandListIdentity:
		return "ListIdentity"
	case CommandListInterfaces:
		return "ListInterfaces"
	case CommandRegisterSession:
		return "RegisterSession"
	case CommandUnregisterSession:
		return "UnregisterSession"
	case CommandSendRRData:
		return "SendRRData"
	case CommandSendUnitData:
		return "SendUnitData"
	case CommandIndicateStatus:
		return "IndicateStatus"
	case CommandCancel:
		return "Cancel"
	default:
		return fmt.Sprintf("UnknownCommand(0x%04X)", uint16(c))
	}
}

// RegisterSessionData is the payload UCMM echoes back on a successful
// Register Session (§4.8): protocol version and option flags, both
// taken from the request unchanged.
type RegisterSessionData struct {
	ProtocolVersion uint16
	OptionsFlags    uint16
}

// NewRegisterSessionData returns the protocol-version-1, no-options
// default, reported when the request carries no payload to echo.
func NewRegisterSessionData() *RegisterSessionData {
	return &RegisterSessionData{ProtocolVersion: 1, OptionsFlags: 0}
}

// Encode writes the 4-byte wire form.
func (d *RegisterSessionData) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
