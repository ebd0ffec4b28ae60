package prompt

import (
	"strings"

	"netxlate/internal/catalog"
)

// FormattingRule is one row of the per-vendor-family output format table.
// Sub-command lines are indented by Indent spaces under Header; when
// SetFormat is true the example is flat `set <path> <value>` lines.
type FormattingRule struct {
	Family    string
	Label     string
	Indent    int
	SetFormat bool
	Guidance  string
	Header    string
	Sub       []string
}

// exampleMargin is the indentation of example blocks inside the rule list.
const exampleMargin = "     "

// Rules is the formatting table sent to the backend with every translation.
var Rules = []FormattingRule{
	{
		Family:   catalog.FamilyCisco,
		Label:    "Cisco IOS/IOS-XE/NX-OS",
		Indent:   1,
		Guidance: "Use 1 space indentation for sub-commands under parent commands. Example format:",
		Header:   "interface Ethernet1/1",
		Sub: []string{
			"description Uplink",
			"switchport mode trunk",
			"switchport trunk allowed vlan 10,20,30",
		},
	},
	{
		Family:   catalog.FamilyArista,
		Label:    "Arista EOS",
		Indent:   3,
		Guidance: "Use 3 spaces indentation for sub-commands. Example format:",
		Header:   "interface Ethernet1",
		Sub: []string{
			"description Uplink",
			"switchport mode trunk",
			"switchport trunk allowed vlan 10,20,30",
		},
	},
	{
		Family:   catalog.FamilyAruba,
		Label:    "Aruba AOS-CX",
		Indent:   3,
		Guidance: "Use 3 spaces indentation for sub-commands under interfaces. Example format:",
		Header:   "interface 1/1/1",
		Sub: []string{
			"description Uplink",
			"no shutdown",
			"vlan trunk native 1",
			"vlan trunk allowed 10,20,30",
		},
	},
	{
		Family:   catalog.FamilyHuawei,
		Label:    "Huawei VRP",
		Indent:   2,
		Guidance: "Use 2 spaces indentation for sub-commands. Example format:",
		Header:   "interface GigabitEthernet0/0/1",
		Sub: []string{
			"description Uplink",
			"port link-type trunk",
			"port trunk allow-pass vlan 10 20 30",
		},
	},
	{
		Family:    catalog.FamilyJuniper,
		Label:     "Juniper Junos",
		SetFormat: true,
		Guidance:  "Use hierarchical configuration as flat `set <path> <value>` statements, one per line. Example:",
		Sub: []string{
			`set interfaces ge-0/0/1 description "Uplink"`,
			"set interfaces ge-0/0/1 unit 0 family ethernet-switching port-mode trunk",
			"set interfaces ge-0/0/1 unit 0 family ethernet-switching vlan members [10 20 30]",
		},
	},
}

// RuleFor returns the formatting rule of a vendor family.
func RuleFor(family string) (FormattingRule, bool) {
	for _, r := range Rules {
		if r.Family == family {
			return r, true
		}
	}
	return FormattingRule{}, false
}

// Example renders the rule's example block at the list margin.
func (r FormattingRule) Example() string {
	var b strings.Builder
	if r.Header != "" {
		b.WriteString(exampleMargin)
		b.WriteString(r.Header)
		b.WriteByte('\n')
	}
	pad := ""
	if !r.SetFormat {
		pad = strings.Repeat(" ", r.Indent)
	}
	for i, line := range r.Sub {
		b.WriteString(exampleMargin)
		b.WriteString(pad)
		b.WriteString(line)
		if i < len(r.Sub)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func writeRuleTable(b *strings.Builder) {
	for _, r := range Rules {
		b.WriteString("   - **")
		b.WriteString(r.Label)
		b.WriteString("**: ")
		b.WriteString(r.Guidance)
		b.WriteByte('\n')
		b.WriteString(r.Example())
		b.WriteByte('\n')
	}
}
