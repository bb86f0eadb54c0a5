package packet

// ProtocolVersion is bumped on any wire-incompatible change.
const ProtocolVersion uint16 = 2

// Client → server opcodes.
const (
	C_OPCODE_HELLO         byte = 0x01
	C_OPCODE_WALK          byte = 0x02
	C_OPCODE_ROTATE        byte = 0x03
	C_OPCODE_START_JUMP    byte = 0x04
	C_OPCODE_STOP_JUMP     byte = 0x05
	C_OPCODE_REQUEST_BLOCK byte = 0x06
	C_OPCODE_ALIVE         byte = 0x07
	C_OPCODE_QUIT          byte = 0x08
)

// Server → client opcodes.
const (
	S_OPCODE_SERVER_HELLO  byte = 0x80
	S_OPCODE_LEASE_ID      byte = 0x81
	S_OPCODE_UPDATE_PLAYER byte = 0x82
	S_OPCODE_ADD_BLOCK     byte = 0x83
	S_OPCODE_UPDATE_SUN    byte = 0x84
)
