package connmgr

import (
	"github.com/cip-core/cipcore/pkg/cip"
)

// Service Codes for Connection Manager, per §4.7. Large Forward Open is
// dropped: nothing in this runtime negotiates connection sizes beyond
// what the 16-bit network connection parameters already express.
const (
	ServiceForwardClose      cip.USINT = 0x4E
	ServiceUnconnectedSend   cip.USINT = 0x52
	ServiceForwardOpen       cip.USINT = 0x54
	ServiceGetConnectionData cip.USINT = 0x56
	ServiceSearchConnection  cip.USINT = 0x57
	ServiceCloseConnection   cip.USINT = 0x58
)

// Status Codes
const (
	StatusConnectionFailure cip.USINT = 0x01
)

// Extended Status Codes for Connection Failure
const (
	ExtStatusConnectionInUse     cip.UINT = 0x0100
	ExtStatusTransportNotSupp    cip.UINT = 0x0103
	ExtStatusOwnershipConflict   cip.UINT = 0x0106
	ExtStatusConnectionNotFound  cip.UINT = 0x0109
	ExtStatusInvalidSegmentType  cip.UINT = 0x0315
	ExtStatusInvalidParam        cip.UINT = 0x0311
	ExtStatusVendorSpecificError cip.UINT = 0x031C
)

// ForwardOpenRequest is the decoded body of a Forward Open (0x54)
// request. Its connection path is an unpadded EPATH, per §4.7's
// documented asymmetry with Forward Close.
type ForwardOpenRequest struct {
	PriorityTimeTick            cip.BYTE
	TimeoutTicks                cip.USINT
	OTConnectionID              cip.UDINT
	TOConnectionID              cip.UDINT
	ConnectionSerialNumber      cip.UINT
	VendorID                    cip.UINT
	OriginatorSerialNumber      cip.UDINT
	ConnectionTimeoutMultiplier cip.USINT
	Reserved                    [3]cip.BYTE
	OTRPI                       cip.UDINT
	OTNetworkConnectionParams   cip.WORD
	TORPI                       cip.UDINT
	TONetworkConnectionParams   cip.WORD
	TransportTypeTrigger        cip.BYTE
	ConnectionPath              cip.Path
}

// ForwardOpenResponse is the success reply body for Forward Open.
type ForwardOpenResponse struct {
	OTConnectionID         cip.UDINT
	TOConnectionID         cip.UDINT
	ConnectionSerialNumber cip.UINT
	VendorID               cip.UINT
	OriginatorSerialNumber cip.UDINT
	OTAPI                  cip.UDINT
	TOAPI                  cip.UDINT
	ApplicationReply       []byte
}

// ForwardCloseRequest is the decoded body of a Forward Close (0x4E)
// request. Its connection path is EPATH_padded, per §4.7.
type ForwardCloseRequest struct {
	PriorityTimeTick       cip.BYTE
	TimeoutTicks           cip.USINT
	ConnectionSerialNumber cip.UINT
	VendorID               cip.UINT
	OriginatorSerialNumber cip.UDINT
	ConnectionPath         cip.Path
}

// ForwardCloseResponse is the success reply body for Forward Close.
type ForwardCloseResponse struct {
	ConnectionSerialNumber cip.UINT
	VendorID               cip.UINT
	OriginatorSerialNumber cip.UDINT
	ApplicationReply       []byte
}
