package catalog

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOSVariantsFor_KnownVendors(t *testing.T) {
	c := Default()

	tests := []struct {
		vendor string
		want   []string
	}{
		{"Cisco (IOS/IOS-XE)", []string{"IOS", "IOS-XE", "IOS-XR", "NX-OS"}},
		{"Juniper (Junos)", []string{"Junos"}},
		{"Huawei (VRP)", []string{"VRP"}},
		{"Aruba (AOS-CX)", []string{"AOS-CX", "AOS"}},
		{"Arista (EOS)", []string{"EOS"}},
	}

	for _, tt := range tests {
		t.Run(tt.vendor, func(t *testing.T) {
			got := c.OSVariantsFor(tt.vendor)
			if !slices.Equal(got, tt.want) {
				t.Errorf("OSVariantsFor(%q) = %v, want %v", tt.vendor, got, tt.want)
			}
		})
	}
}

func TestOSVariantsFor_UnsetOrUnknownReturnsUnion(t *testing.T) {
	c := Default()
	want := []string{"IOS", "IOS-XE", "IOS-XR", "NX-OS", "Junos", "VRP", "AOS-CX", "AOS", "EOS"}

	for _, vendor := range []string{"", "auto", "Nokia (SR OS)"} {
		got := c.OSVariantsFor(vendor)
		if !slices.Equal(got, want) {
			t.Errorf("OSVariantsFor(%q) = %v, want %v", vendor, got, want)
		}
	}
}

func TestOSVariantsFor_ConsistentWithCatalog(t *testing.T) {
	c := Default()
	union := c.OSVariantsFor("")
	largest := 0

	for _, vendor := range c.Vendors() {
		variants := c.OSVariantsFor(vendor)
		if len(variants) == 0 {
			t.Errorf("vendor %q has no OS variants", vendor)
		}
		largest = max(largest, len(variants))
		for _, code := range variants {
			if !slices.Contains(union, code) {
				t.Errorf("OS %q of %q missing from union", code, vendor)
			}
		}
	}

	if len(union) < largest {
		t.Errorf("union has %d codes, smaller than largest vendor set %d", len(union), largest)
	}
}

func TestOSVariantsFor_ReturnsCopy(t *testing.T) {
	c := Default()
	got := c.OSVariantsFor("Cisco (IOS/IOS-XE)")
	got[0] = "mutated"

	if c.OSVariantsFor("Cisco (IOS/IOS-XE)")[0] != "IOS" {
		t.Error("caller mutation leaked into the catalog")
	}
}

func TestDisplayName(t *testing.T) {
	c := Default()

	if got := c.DisplayName("AOS"); got != "Aruba OS" {
		t.Errorf("DisplayName(AOS) = %q", got)
	}
	if got := c.DisplayName("SR-OS"); got != "SR-OS" {
		t.Errorf("unmapped code should display as itself, got %q", got)
	}
}

func TestFamilyOf(t *testing.T) {
	c := Default()

	tests := map[string]string{
		"Arista (EOS)":       FamilyArista,
		"Cisco (IOS/IOS-XE)": FamilyCisco,
		"Juniper (Junos)":    FamilyJuniper,
		"cisco nexus":        FamilyCisco,
		"Nokia":              "",
	}
	for vendor, want := range tests {
		if got := c.FamilyOf(vendor); got != want {
			t.Errorf("FamilyOf(%q) = %q, want %q", vendor, got, want)
		}
	}
}

func TestNew_RejectsSharedOSCode(t *testing.T) {
	_, err := New(File{Vendors: []VendorProfile{
		{Name: "A", OSVariants: []string{"X"}},
		{Name: "B", OSVariants: []string{"X"}},
	}})
	if err == nil {
		t.Fatal("expected error for OS code assigned to two vendors")
	}
}

func TestNew_RejectsIncompleteOSOrder(t *testing.T) {
	_, err := New(File{
		Vendors: []VendorProfile{{Name: "A", OSVariants: []string{"X", "Y"}}},
		OSOrder: []string{"X"},
	})
	if err == nil {
		t.Fatal("expected error when os_order misses a vendor code")
	}
}

func TestNew_OSOrderMayListUnassignedCodes(t *testing.T) {
	c, err := New(File{
		Vendors: []VendorProfile{{Name: "A", OSVariants: []string{"X"}}},
		OSOrder: []string{"GENERIC", "X"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.OSVariantsFor(""); !slices.Equal(got, []string{"GENERIC", "X"}) {
		t.Errorf("union = %v", got)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `vendors:
  - name: Nokia (SR OS)
    family: nokia
    os: [SR-OS, SRL]
  - name: Arista (EOS)
    os: [EOS]
display_names:
  SR-OS: Nokia SR OS
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Vendors(); !slices.Equal(got, []string{"Nokia (SR OS)", "Arista (EOS)"}) {
		t.Errorf("Vendors = %v", got)
	}
	if got := c.OSVariantsFor(""); !slices.Equal(got, []string{"SR-OS", "SRL", "EOS"}) {
		t.Errorf("union = %v", got)
	}
	if got := c.FamilyOf("Arista (EOS)"); got != FamilyArista {
		t.Errorf("family should be guessed from name, got %q", got)
	}
	if got := c.DisplayName("SRL"); got != "SRL" {
		t.Errorf("DisplayName(SRL) = %q", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
