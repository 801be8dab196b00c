package cip

// Primitive CIP data types (§6). Widths: USINT/SINT=1, UINT/INT=2,
// UDINT/DINT=4, WORD=2, DWORD=4, REAL=4; all little-endian on the wire.
// LINT/ULINT/LREAL/LWORD exist in the CIP type table but no object this
// runtime implements carries one, so they are omitted here rather than
// kept as unexercised placeholders.
type (
	USINT uint8
	UINT  uint16
	UDINT uint32
	SINT  int8
	INT   int16
	DINT  int32
	REAL  float32
	BYTE  byte
	WORD  uint16
	DWORD uint32
)

// Service codes (§4.4/§4.6/§4.7). The low 7 bits identify the service;
// the reply sets the high bit (0x80). Codes this runtime never
// dispatches (Set Attribute All, Get/Set Attribute List, Create,
// Delete, Restore/Save, ...) are still named here: an unregistered
// service still needs to fall into Base.Request's "not supported"
// branch by a code, not a magic number, and a vendor object embedding
// Base may register one later without reaching back into this table.
const (
	ServiceGetAttributeAll        USINT = 0x01
	ServiceSetAttributeAll        USINT = 0x02
	ServiceGetAttributeList       USINT = 0x03
	ServiceSetAttributeList       USINT = 0x04
	ServiceReset                  USINT = 0x05
	ServiceStart                  USINT = 0x06
	ServiceStop                   USINT = 0x07
	ServiceCreate                 USINT = 0x08
	ServiceDelete                 USINT = 0x09
	ServiceMultipleServicePacket  USINT = 0x0A
	ServiceApplyAttributes        USINT = 0x0D
	ServiceGetAttributeSingle     USINT = 0x0E
	ServiceSetAttributeSingle     USINT = 0x10
	ServiceFindNextObjectInstance USINT = 0x11
	ServiceRestore                USINT = 0x15
	ServiceSave                   USINT = 0x16
	ServiceNop                    USINT = 0x17
	ServiceGetMember              USINT = 0x18
	ServiceSetMember              USINT = 0x19
	ServiceInsertMember           USINT = 0x1A
	ServiceRemoveMember           USINT = 0x1B
	ServiceGroupSync              USINT = 0x1C

	// serviceReplyMask is the high bit that turns a request service code
	// into its reply: 0x0E Get Attribute Single replies as 0x8E, etc.
	serviceReplyMask USINT = 0x80
)

// IsReply reports whether svc carries the 0x80 reply bit.
func (svc USINT) IsReply() bool { return svc&serviceReplyMask != 0 }

// Reply returns svc with the reply bit set.
func (svc USINT) Reply() USINT { return svc | serviceReplyMask }

// Well-known class codes (§4.5/§4.6/§4.7/§6). Only the classes this
// runtime actually instantiates or routes to carry a constant here;
// classes with no SPEC_FULL.md object (DeviceNet, Assembly instances
// beyond the placeholder, Parameter, the discrete/analog I/O classes,
// the motion classes) are device-specific profiles the distilled
// source never touches either and are left out rather than padding the
// table with codes nothing resolves against.
const (
	ClassIdentity       UINT = 0x01
	ClassMessageRouter  UINT = 0x02
	ClassAssembly       UINT = 0x04
	ClassConnection     UINT = 0x05
	ClassConnectionMgr  UINT = 0x06
	ClassEthernetLink   UINT = 0xF6
	ClassTCPIPInterface UINT = 0xF5
)

// General status codes (§7). Extended status, when present, rides
// alongside as a []UINT on the reply.
const (
	StatusSuccess                USINT = 0x00
	StatusConnectionFailure      USINT = 0x01
	StatusResourceUnavailable    USINT = 0x02
	StatusPathSegmentError       USINT = 0x03
	StatusPathDestinationUnknown USINT = 0x05
	StatusPartialTransfer        USINT = 0x06
	StatusServiceNotSupported    USINT = 0x08
	StatusInvalidAttributeValue  USINT = 0x09
	StatusAttributeListShortage  USINT = 0x1C
	StatusAttributeNotSettable   USINT = 0x0E
	StatusPrivilegeViolation     USINT = 0x10
	StatusDeviceStateConflict    USINT = 0x11
	StatusReplyDataTooLarge      USINT = 0x12
	StatusNotEnoughData          USINT = 0x13
	StatusAttributeNotSupported  USINT = 0x14
	StatusTooMuchData            USINT = 0x15
	StatusObjectDoesNotExist     USINT = 0x16
	StatusServiceFragmentation   USINT = 0x2D
)
