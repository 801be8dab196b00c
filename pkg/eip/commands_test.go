package eip

import "testing"

func TestCommandConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant Command
		expected uint16
	}{
		{"CommandNop", CommandNop, 0x0000},
		{"CommandLegacy", CommandLegacy, 0x0001},
		{"CommandListServices", CommandListServices, 0x0004},
		{"CommandListIdentity", CommandListIdentity, 0x0063},
		{"CommandListInterfaces", CommandListInterfaces, 0x0064},
		{"CommandRegisterSession", CommandRegisterSession, 0x0065},
		{"CommandUnregisterSession", CommandUnregisterSession, 0x0066},
		{"CommandSendRRData", CommandSendRRData, 0x006F},
		{"CommandSendUnitData", CommandSendUnitData, 0x0070},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if uint16(tt.constant) != tt.expected {
				t.Errorf("%s = 0x%04X, want 0x%04X", tt.name, tt.constant, tt.expected)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	if got := CommandRegisterSession.String(); got != "RegisterSession" {
		t.Errorf("CommandRegisterSession.String() = %q, want %q", got, "RegisterSession")
	}
	if got := Command(0x1234).String(); got != "UnknownCommand(0x1234)" {
		t.Errorf("unknown command String() = %q, want %q", got, "UnknownCommand(0x1234)")
	}
}

func TestRegisterSessionDataEncode(t *testing.T) {
	d := NewRegisterSessionData()
	data, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x01, 0x00, 0x00, 0x00}
	if len(data) != len(want) {
		t.Fatalf("Encode() len = %d, want %d", len(data), len(want))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("Encode()[%d] = 0x%02X, want 0x%02X", i, data[i], want[i])
		}
	}
}
