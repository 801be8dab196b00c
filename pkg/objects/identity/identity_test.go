package identity

import (
	"testing"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/config"
	"github.com/cip-core/cipcore/pkg/registry"
)

func TestNewInstallsDefaultAttrs(t *testing.T) {
	reg := registry.New()
	id, err := New(reg, nil, DefaultAttrs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	attr, ok := id.Attribute(AttrProductName)
	if !ok {
		t.Fatal("expected ProductName attribute to be installed")
	}
	got, _ := attr.Get(0)
	if got.(string) != "1756-L61/B LOGIX5561" {
		t.Errorf("ProductName = %q", got)
	}
}

func TestMetaInstanceCarriesOnlyClassLevelAttributes(t *testing.T) {
	reg := registry.New()
	zero := uint16(0)
	id, err := New(reg, &zero, DefaultAttrs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := id.Attribute(AttrProductName); ok {
		t.Error("meta instance should not carry instance attribute 7 (ProductName)")
	}
	if _, ok := id.Attribute(1); !ok {
		t.Error("meta instance should carry class-level attribute 1 (Revision)")
	}
}

func TestResetService(t *testing.T) {
	reg := registry.New()
	id, err := New(reg, nil, DefaultAttrs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := &cipmsg.Request{Service: cip.ServiceReset}
	reply, err := id.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != 0 {
		t.Errorf("Status = %v, want 0", reply.Status)
	}
}

func TestDefaultsFromConfigOverridesFields(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[Identity]
vendor_id = 42
product_name = Custom Adapter
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := DefaultsFromConfig(cfg)
	if d.VendorID != 42 {
		t.Errorf("VendorID = %v, want 42", d.VendorID)
	}
	if d.ProductName != "Custom Adapter" {
		t.Errorf("ProductName = %q", d.ProductName)
	}
	// Untouched fields keep the stock profile's values.
	stock := DefaultAttrs()
	if d.DeviceType != stock.DeviceType {
		t.Errorf("DeviceType = %v, want unchanged %v", d.DeviceType, stock.DeviceType)
	}
}

func TestDefaultsFromConfigNilIsStockProfile(t *testing.T) {
	d := DefaultsFromConfig(nil)
	if d != DefaultAttrs() {
		t.Errorf("DefaultsFromConfig(nil) = %+v, want stock profile", d)
	}
}
