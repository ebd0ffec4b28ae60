// Package catalog holds the static vendor / OS-variant relationship used to
// constrain user choices and to label OS codes in prompts.
package catalog

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vendor families, used to pick the formatting rule for a target vendor.
const (
	FamilyCisco   = "cisco"
	FamilyArista  = "arista"
	FamilyAruba   = "aruba"
	FamilyHuawei  = "huawei"
	FamilyJuniper = "juniper"
)

// VendorProfile is one vendor and its OS variants in declared order.
type VendorProfile struct {
	Name       string   `yaml:"name"`
	Family     string   `yaml:"family"`
	OSVariants []string `yaml:"os"`
}

// Catalog is immutable after construction; every accessor returns copies.
type Catalog struct {
	vendors      []VendorProfile
	byName       map[string]int
	allOS        []string
	displayNames map[string]string
}

// File is the on-disk YAML shape of a catalog override.
type File struct {
	Vendors      []VendorProfile   `yaml:"vendors"`
	OSOrder      []string          `yaml:"os_order"`
	DisplayNames map[string]string `yaml:"display_names"`
}

var defaultFile = File{
	Vendors: []VendorProfile{
		{Name: "Cisco (IOS/IOS-XE)", Family: FamilyCisco, OSVariants: []string{"IOS", "IOS-XE", "IOS-XR", "NX-OS"}},
		{Name: "Juniper (Junos)", Family: FamilyJuniper, OSVariants: []string{"Junos"}},
		{Name: "Huawei (VRP)", Family: FamilyHuawei, OSVariants: []string{"VRP"}},
		{Name: "Aruba (AOS-CX)", Family: FamilyAruba, OSVariants: []string{"AOS-CX", "AOS"}},
		{Name: "Arista (EOS)", Family: FamilyArista, OSVariants: []string{"EOS"}},
	},
	OSOrder: []string{"IOS", "IOS-XE", "IOS-XR", "NX-OS", "Junos", "VRP", "AOS-CX", "AOS", "EOS"},
	DisplayNames: map[string]string{
		"IOS":    "Cisco IOS",
		"IOS-XE": "Cisco IOS-XE",
		"IOS-XR": "Cisco IOS-XR",
		"NX-OS":  "Cisco NX-OS",
		"Junos":  "Juniper Junos",
		"VRP":    "Huawei VRP",
		"AOS-CX": "Aruba AOS-CX",
		"AOS":    "Aruba OS",
		"EOS":    "Arista EOS",
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultFile)
	if err != nil {
		panic("catalog: invalid built-in data: " + err.Error())
	}
	return c
}

// New validates f and builds a Catalog from it.
// When f.OSOrder is empty the canonical order is the vendor-declared order.
func New(f File) (*Catalog, error) {
	if len(f.Vendors) == 0 {
		return nil, fmt.Errorf("catalog has no vendors")
	}

	c := &Catalog{
		byName:       make(map[string]int, len(f.Vendors)),
		displayNames: make(map[string]string, len(f.DisplayNames)),
	}
	owner := make(map[string]string)

	for i, v := range f.Vendors {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return nil, fmt.Errorf("vendor #%d has no name", i+1)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("vendor %q declared twice", name)
		}
		if len(v.OSVariants) == 0 {
			return nil, fmt.Errorf("vendor %q has no OS variants", name)
		}
		for _, code := range v.OSVariants {
			if prev, taken := owner[code]; taken {
				return nil, fmt.Errorf("OS %q assigned to both %q and %q", code, prev, name)
			}
			owner[code] = name
		}
		family := v.Family
		if family == "" {
			family = guessFamily(name)
		}
		c.byName[name] = len(c.vendors)
		c.vendors = append(c.vendors, VendorProfile{
			Name:       name,
			Family:     family,
			OSVariants: slices.Clone(v.OSVariants),
		})
	}

	if len(f.OSOrder) > 0 {
		for _, code := range f.OSOrder {
			if slices.Contains(c.allOS, code) {
				return nil, fmt.Errorf("OS %q listed twice in os_order", code)
			}
			c.allOS = append(c.allOS, code)
		}
		for code, vendor := range owner {
			if !slices.Contains(c.allOS, code) {
				return nil, fmt.Errorf("OS %q of vendor %q missing from os_order", code, vendor)
			}
		}
	} else {
		for _, v := range c.vendors {
			c.allOS = append(c.allOS, v.OSVariants...)
		}
	}

	for code, name := range f.DisplayNames {
		c.displayNames[code] = name
	}
	return c, nil
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from config, not user input
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c, err := New(f)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return c, nil
}

// Vendors returns vendor names in catalog order.
func (c *Catalog) Vendors() []string {
	names := make([]string, len(c.vendors))
	for i, v := range c.vendors {
		names[i] = v.Name
	}
	return names
}

// Profile returns the profile for vendor, if known.
func (c *Catalog) Profile(vendor string) (VendorProfile, bool) {
	i, ok := c.byName[strings.TrimSpace(vendor)]
	if !ok {
		return VendorProfile{}, false
	}
	v := c.vendors[i]
	v.OSVariants = slices.Clone(v.OSVariants)
	return v, true
}

// OSVariantsFor returns the vendor's OS codes in declared order, or the
// canonical union of all codes when vendor is empty, "auto" or unknown.
func (c *Catalog) OSVariantsFor(vendor string) []string {
	if p, ok := c.Profile(vendor); ok {
		return p.OSVariants
	}
	return slices.Clone(c.allOS)
}

// DisplayName maps an OS code to its label; unmapped codes display as themselves.
func (c *Catalog) DisplayName(osCode string) string {
	if name, ok := c.displayNames[osCode]; ok {
		return name
	}
	return osCode
}

// FamilyOf returns the formatting family of a vendor, falling back to a
// name-based guess for vendors outside the catalog.
func (c *Catalog) FamilyOf(vendor string) string {
	if p, ok := c.Profile(vendor); ok {
		return p.Family
	}
	return guessFamily(vendor)
}

func guessFamily(vendor string) string {
	lower := strings.ToLower(vendor)
	for _, family := range []string{FamilyCisco, FamilyArista, FamilyAruba, FamilyHuawei, FamilyJuniper} {
		if strings.Contains(lower, family) {
			return family
		}
	}
	return ""
}
