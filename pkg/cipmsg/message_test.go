package cipmsg

import (
	"testing"

	"github.com/cip-core/cipcore/pkg/cip"
)

func buildRequest() *Request {
	p := cip.NewPath()
	p.AddClass(cip.UINT(0x01))
	p.AddInstance(1)
	p.AddAttribute(cip.UINT(7))
	segs, err := cip.Decode(p)
	if err != nil {
		panic(err)
	}
	return &Request{
		Service:  cip.ServiceGetAttributeSingle,
		Segments: segs,
		Data:     nil,
	}
}

func TestRequestEncodeParseRoundTrip(t *testing.T) {
	req := buildRequest()
	raw := req.Encode()

	got, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if got.Service != req.Service {
		t.Errorf("Service = %v, want %v", got.Service, req.Service)
	}
	class, instance, ok := got.ClassInstance()
	if !ok || class != 0x01 || instance != 1 {
		t.Errorf("ClassInstance = (%d, %d, %v)", class, instance, ok)
	}
	attr, ok := got.Attribute()
	if !ok || attr != 7 {
		t.Errorf("Attribute = (%d, %v)", attr, ok)
	}
}

func TestParseRequestTooShort(t *testing.T) {
	if _, err := ParseRequest([]byte{0x0E}); err == nil {
		t.Error("expected an error parsing a one-byte request")
	}
}

func TestParseRequestTruncatedPath(t *testing.T) {
	// service + path-words=2 (needs 4 bytes) but nothing follows
	if _, err := ParseRequest([]byte{0x0E, 0x02}); err == nil {
		t.Error("expected an error parsing a request with a truncated path")
	}
}

func TestReplyShapeSetsReplyBit(t *testing.T) {
	req := buildRequest()
	reply := NewReply(req, cip.StatusServiceNotSupported)
	if reply.Service != req.Service|0x80 {
		t.Errorf("Service = 0x%02X, want reply bit set", reply.Service)
	}
	if reply.Status != cip.StatusServiceNotSupported {
		t.Errorf("Status = %v, want pessimistic status preserved", reply.Status)
	}
}

func TestReplyEncodeParseRoundTripSuccess(t *testing.T) {
	req := buildRequest()
	reply := NewReply(req, cip.StatusServiceNotSupported)
	reply.Status = 0
	reply.Data = []byte{0xAA, 0xBB, 0xCC}

	raw := reply.Encode()
	got, err := ParseReply(raw)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if got.Service != reply.Service || got.Status != 0 {
		t.Errorf("got = %+v", got)
	}
	if string(got.Data) != string(reply.Data) {
		t.Errorf("Data = %v, want %v", got.Data, reply.Data)
	}
}

func TestReplyEncodeOmitsDataOnFailure(t *testing.T) {
	req := buildRequest()
	reply := NewReply(req, cip.StatusServiceNotSupported)
	reply.Data = []byte{0xAA} // a handler that forgot to clear Data on error

	raw := reply.Encode()
	got, err := ParseReply(raw)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if len(got.Data) != 0 {
		t.Errorf("Data = %v, want empty on a failure reply", got.Data)
	}
	if got.Status != cip.StatusServiceNotSupported {
		t.Errorf("Status = %v", got.Status)
	}
}

func TestReplyExtendedStatusRoundTrip(t *testing.T) {
	req := buildRequest()
	reply := NewReply(req, cip.StatusServiceNotSupported)
	reply.ExtStatus = []cip.UINT{0x0103, 0x0203}

	raw := reply.Encode()
	got, err := ParseReply(raw)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if len(got.ExtStatus) != 2 || got.ExtStatus[0] != 0x0103 || got.ExtStatus[1] != 0x0203 {
		t.Errorf("ExtStatus = %v", got.ExtStatus)
	}
}

func TestParseReplyTooShort(t *testing.T) {
	if _, err := ParseReply([]byte{0x8E, 0x00}); err == nil {
		t.Error("expected an error parsing a too-short reply")
	}
}
