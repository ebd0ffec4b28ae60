// Package prompt assembles the system instructions and user queries sent to
// the backend for translate, explain and test-plan actions.
package prompt

import (
	"strings"

	"netxlate/internal/catalog"
	"netxlate/internal/core"
)

// PayloadDelimiter brackets the source configuration inside a translate query.
const PayloadDelimiter = "---"

const translatePersona = "You are 'Network Expert Translate', a highly specialized AI agent. " +
	"Your sole purpose is to translate network device configurations. " +
	"You have expert-level knowledge of multi-vendor syntax, including Cisco IOS, IOS-XE, IOS-XR, NX-OS, " +
	"Juniper (Junos), Huawei (VRP), Aruba (AOS-CX), and Arista (EOS)."

const translateDirectivesHead = `
Core Directives:
1. Analyze the source configuration and any corrective feedback provided by the user.
2. Translate the configuration into the target vendor's syntax with extreme accuracy.
3. **Critical Output Format**: Your response MUST BE ONLY the translated configuration code. Do not include any explanatory text, greetings, or markdown formatting like ` + "```" + `. The output must be pure, ready-to-use configuration code.
4. **Critical Formatting Requirements**: You MUST follow these exact formatting rules for each vendor:
`

const translateDirectivesTail = `5. If a direct translation is impossible, embed a clear, concise comment within the code (e.g., "# [INFO] Manual configuration required for this feature").`

const explainPersona = "You are a senior network engineer and trainer. " +
	"Your task is to provide a clear, step-by-step explanation for a given network configuration."

const explainFormat = "\n**Format your entire response using Markdown.** Use headings (e.g., '## Interface Configuration'), " +
	"bullet points for explanations, and backticks for inline code (e.g., `vlan 10`) " +
	"or triple backticks with a language specifier for code blocks."

const testPlanPersona = "You are a network automation engineer specializing in quality assurance. " +
	"Your task is to create a concise but effective test plan to verify a network configuration."

const testPlanFormat = "\n**Format the entire response using Markdown, including tables for verification commands.**\n" +
	"For each part of the configuration, create a heading. Under each heading, list the specific verification " +
	"commands (e.g., 'show' commands) and describe the expected output in a table to confirm success."

// Prompts is the pair sent to the backend for one action.
type Prompts struct {
	System string
	User   string
}

// Builder renders prompts. It only reads the catalog for OS display names.
type Builder struct {
	catalog *catalog.Catalog
}

func NewBuilder(c *catalog.Catalog) *Builder {
	if c == nil {
		c = catalog.Default()
	}
	return &Builder{catalog: c}
}

// BuildTranslate renders the translate prompts for req. Unset optional fields are omitted.
func (b *Builder) BuildTranslate(req core.TranslationRequest) Prompts {
	var sys strings.Builder
	sys.WriteString(translatePersona)
	if v := selected(req.SourceVendor); v != "" {
		sys.WriteString(" The source configuration is from " + v + ".")
	}
	if osCode := selected(req.SourceOS); osCode != "" {
		sys.WriteString(" The source OS is " + b.catalog.DisplayName(osCode) + ".")
	}
	if osCode := selected(req.TargetOS); osCode != "" {
		sys.WriteString(" The target OS is " + b.catalog.DisplayName(osCode) + ".")
	}
	writeCustom(&sys, "Additional Instructions", req.CustomInstructions)
	sys.WriteString(translateDirectivesHead)
	writeRuleTable(&sys)
	sys.WriteString(translateDirectivesTail)

	var user strings.Builder
	user.WriteString("Translate the following network configuration to " + req.TargetVendor + ".")
	if v := selected(req.SourceVendor); v != "" {
		user.WriteString(" The source configuration is from " + v + ".")
	}
	if osCode := selected(req.SourceOS); osCode != "" {
		user.WriteString(" The source OS is " + b.catalog.DisplayName(osCode) + ".")
	}
	if osCode := selected(req.TargetOS); osCode != "" {
		user.WriteString(" Use " + b.catalog.DisplayName(osCode) + " specific syntax and command structure for the target.")
	}
	user.WriteString(" CRITICAL: You must follow the exact indentation and spacing rules specified for " +
		req.TargetVendor + " in the system prompt.")
	user.WriteString(" The output formatting must match the examples provided in the formatting requirements exactly.")
	user.WriteString("\n\n" + PayloadDelimiter + "\n")
	user.WriteString(req.SourceText)
	user.WriteString("\n" + PayloadDelimiter)

	return Prompts{System: sys.String(), User: user.String()}
}

// BuildExplain renders the explanation prompts for an already translated configuration.
func (b *Builder) BuildExplain(targetVendor, translated, customInstructions string) Prompts {
	var sys strings.Builder
	sys.WriteString(explainPersona)
	writeCustom(&sys, "Additional Context", customInstructions)
	sys.WriteString(explainFormat)

	return Prompts{
		System: sys.String(),
		User:   "Explain the following " + targetVendor + " configuration:\n\n" + translated,
	}
}

// BuildTestPlan renders the verification test plan prompts.
func (b *Builder) BuildTestPlan(targetVendor, translated, customInstructions string) Prompts {
	var sys strings.Builder
	sys.WriteString(testPlanPersona)
	writeCustom(&sys, "Additional Requirements", customInstructions)
	sys.WriteString(testPlanFormat)

	return Prompts{
		System: sys.String(),
		User:   "Generate a test plan for the following " + targetVendor + " configuration:\n\n" + translated,
	}
}

func writeCustom(b *strings.Builder, label, text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.WriteString("\n\n" + label + ": " + text)
	}
}

// selected normalizes an optional choice; "auto" means not provided.
func selected(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, core.VendorAuto) {
		return ""
	}
	return v
}
