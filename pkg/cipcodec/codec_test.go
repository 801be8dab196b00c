package cipcodec

import (
	"net"
	"testing"

	"github.com/cip-core/cipcore/pkg/cip"
)

func roundTrip(t *testing.T, c Codec, v any) (any, int) {
	t.Helper()
	enc, err := c.Encode(v)
	if err != nil {
		t.Fatalf("%s Encode(%v): %v", c.Name(), v, err)
	}
	dec, n, err := c.Decode(enc)
	if err != nil {
		t.Fatalf("%s Decode(%x): %v", c.Name(), enc, err)
	}
	if n != len(enc) {
		t.Errorf("%s Decode consumed %d, want %d", c.Name(), n, len(enc))
	}
	return dec, n
}

func TestIntCodecsRoundTrip(t *testing.T) {
	if got, _ := roundTrip(t, UINT, cip.UINT(0xBEEF)); got.(cip.UINT) != 0xBEEF {
		t.Errorf("UINT round-trip = %v", got)
	}
	if got, _ := roundTrip(t, UDINT, cip.UDINT(0xDEADBEEF)); got.(cip.UDINT) != 0xDEADBEEF {
		t.Errorf("UDINT round-trip = %v", got)
	}
	if got, _ := roundTrip(t, USINT, cip.USINT(200)); got.(cip.USINT) != 200 {
		t.Errorf("USINT round-trip = %v", got)
	}
	if got, _ := roundTrip(t, BOOL, true); got.(bool) != true {
		t.Errorf("BOOL round-trip = %v", got)
	}
}

func TestREALRoundTrip(t *testing.T) {
	got, _ := roundTrip(t, REAL, float32(3.5))
	if got.(float32) != 3.5 {
		t.Errorf("REAL round-trip = %v", got)
	}
}

func TestSTRINGPadsOddLength(t *testing.T) {
	enc, err := STRING.Encode("abc")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(enc) != 2+3+1 {
		t.Fatalf("expected a pad byte for odd length, got %d bytes", len(enc))
	}
	dec, n, err := STRING.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.(string) != "abc" || n != len(enc) {
		t.Errorf("STRING round-trip = %q, consumed %d", dec, n)
	}
}

func TestSTRINGEvenLengthNoPad(t *testing.T) {
	enc, _ := STRING.Encode("abcd")
	if len(enc) != 2+4 {
		t.Fatalf("expected no pad byte for even length, got %d bytes", len(enc))
	}
}

func TestSSTRINGRoundTrip(t *testing.T) {
	enc, err := SSTRING.Encode("hello")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(enc) != 1+5 {
		t.Fatalf("SSTRING should never pad, got %d bytes", len(enc))
	}
	dec, n, err := SSTRING.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.(string) != "hello" || n != len(enc) {
		t.Errorf("SSTRING round-trip = %q, consumed %d", dec, n)
	}
}

func TestEPATHRoundTrip(t *testing.T) {
	p := cip.NewPath()
	p.AddClass(cip.UINT(0x06))
	p.AddInstance(1)

	enc, err := EPATH.Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// unpadded: 1 length byte + path bytes, no reserved byte
	if int(enc[0]) != int(p.LenWords()) {
		t.Fatalf("EPATH length-words byte wrong: got %d want %d", enc[0], p.LenWords())
	}
	dec, n, err := EPATH.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(enc) {
		t.Errorf("EPATH consumed %d, want %d", n, len(enc))
	}
	if string(dec.(cip.Path)) != string(p.Bytes()) {
		t.Errorf("EPATH round-trip mismatch")
	}
}

func TestEPATHPaddedHasReservedByte(t *testing.T) {
	p := cip.NewPath()
	p.AddClass(cip.UINT(0xF5))

	encUnpadded, _ := EPATH.Encode(p)
	encPadded, _ := EPATHPadded.Encode(p)
	if len(encPadded) != len(encUnpadded)+1 {
		t.Fatalf("padded encoding should be exactly one byte longer: padded=%d unpadded=%d", len(encPadded), len(encUnpadded))
	}
	if encPadded[1] != 0x00 {
		t.Errorf("padded encoding's second byte should be the reserved 0x00, got 0x%02X", encPadded[1])
	}

	dec, n, err := EPATHPadded.Decode(encPadded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(encPadded) {
		t.Errorf("consumed %d, want %d", n, len(encPadded))
	}
	if string(dec.(cip.Path)) != string(p.Bytes()) {
		t.Errorf("EPATHPadded round-trip mismatch")
	}
}

func TestIFACEADDRSRoundTrip(t *testing.T) {
	a := IfaceAddrs{
		IPAddress:   net.IPv4(192, 168, 1, 100),
		NetworkMask: net.IPv4(255, 255, 255, 0),
		Gateway:     net.IPv4(192, 168, 1, 1),
		NameServer:  net.IPv4(8, 8, 8, 8),
		NameServer2: net.IPv4(0, 0, 0, 0),
		DomainName:  "plant.local",
	}
	dec, n := roundTrip(t, IFACEADDRS, a)
	got := dec.(IfaceAddrs)
	if !got.IPAddress.Equal(a.IPAddress) || !got.Gateway.Equal(a.Gateway) {
		t.Errorf("IFACEADDRS round-trip address mismatch: %+v", got)
	}
	if got.DomainName != a.DomainName {
		t.Errorf("DomainName = %q, want %q", got.DomainName, a.DomainName)
	}
	want := 20 + 2 + len(a.DomainName) + len(a.DomainName)%2 // STRING pads odd lengths
	if n != want {
		t.Errorf("consumed %d bytes, want %d", n, want)
	}
}

func TestIFACEADDRSTruncated(t *testing.T) {
	if _, _, err := IFACEADDRS.Decode(make([]byte, 10)); err == nil {
		t.Error("expected an error decoding a truncated IFACEADDRS")
	}
}
