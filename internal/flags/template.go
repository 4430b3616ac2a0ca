package flags

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TemplateReport builds a deterministic report from the flag alone. Product
// and counterfeit flags, review flags and everything else get different
// layouts.
func TemplateReport(f Flag) string {
	category := strings.ToLower(f.Category)
	switch {
	case strings.Contains(strings.ToLower(f.Title), "counterfeit") || strings.Contains(category, "product"):
		return productReport(f)
	case strings.Contains(category, "review"):
		return reviewReport(f)
	default:
		return genericReport(f)
	}
}

func productReport(f Flag) string {
	var b strings.Builder
	b.WriteString("# Product Authenticity Violation Report\n\n")
	b.WriteString("## Executive Summary\n")
	b.WriteString("Potential counterfeit product detected. Administrative review is required.\n\n")
	b.WriteString("## Risk Assessment\n")
	fmt.Fprintf(&b, "- **Threat Level**: %s\n", strings.ToUpper(string(f.Severity)))
	fmt.Fprintf(&b, "- **Risk**: %s\n", f.RiskCategory)
	b.WriteString("- **Immediate Action**: Required within 24 hours\n")
	b.WriteString("- **Business Impact**: Brand protection and customer trust\n\n")
	b.WriteString("## Evidence Analysis\n")
	writeEvidence(&b, f.Evidence, true)
	b.WriteString("\n## Technical Details\n")
	fmt.Fprintf(&b, "- **Summary**: %s\n", orDefault(f.AISummary, "N/A"))
	fmt.Fprintf(&b, "- **Product**: %s\n", payloadString(f.OriginPayload, "product_id", "Unknown"))
	fmt.Fprintf(&b, "- **Seller**: %s\n\n", payloadString(f.OriginPayload, "seller_id", "Unknown"))
	b.WriteString("## Recommended Actions\n")
	b.WriteString("1. **IMMEDIATE**: Suspend product listing\n")
	b.WriteString("2. **24HR**: Contact seller for verification documents\n")
	b.WriteString("3. **72HR**: Review seller account history\n")
	b.WriteString("4. **FOLLOW-UP**: Add the seller to enhanced monitoring\n\n")
	b.WriteString("## Legal & Compliance Notes\n")
	b.WriteString("This detection may indicate trademark infringement or consumer fraud. Escalate to the legal team if the pattern continues.\n")
	return b.String()
}

func reviewReport(f Flag) string {
	reviewText := payloadString(f.OriginPayload, "review_text", "Not available")
	if r := []rune(reviewText); len(r) > 100 {
		reviewText = string(r[:100]) + "..."
	}

	var b strings.Builder
	b.WriteString("# Review Integrity Violation Report\n\n")
	b.WriteString("## Executive Summary\n")
	b.WriteString("Suspicious review activity detected that may mislead customers.\n\n")
	b.WriteString("## Risk Assessment\n")
	fmt.Fprintf(&b, "- **Trust Impact**: %s\n", strings.ToUpper(string(f.Severity)))
	b.WriteString("- **Review Authenticity**: Questionable\n\n")
	b.WriteString("## Analysis Results\n")
	fmt.Fprintf(&b, "- **Trust Score**: %s/100\n", payloadString(f.OriginPayload, "trust_score", "Unknown"))
	fmt.Fprintf(&b, "- **Verified Purchase**: %s\n", payloadString(f.OriginPayload, "verified", "Unknown"))
	fmt.Fprintf(&b, "- **Rating Given**: %s/5 stars\n\n", payloadString(f.OriginPayload, "rating", "Unknown"))
	b.WriteString("## Review Content\n")
	fmt.Fprintf(&b, "**Product**: %s\n", payloadString(f.OriginPayload, "product_title", "Unknown"))
	fmt.Fprintf(&b, "**Review Text**: %s\n\n", reviewText)
	b.WriteString("## Evidence\n")
	writeEvidence(&b, f.Evidence, true)
	b.WriteString("\n## Recommended Actions\n")
	b.WriteString("1. **IMMEDIATE**: Hide review from public display\n")
	b.WriteString("2. **24HR**: Investigate reviewer account history\n")
	b.WriteString("3. **48HR**: Cross-reference with other suspicious reviews\n")
	return b.String()
}

func genericReport(f Flag) string {
	var b strings.Builder
	b.WriteString("# General Security Alert Report\n\n")
	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "%s requires administrative review.\n\n", orDefault(f.Title, "This alert"))
	b.WriteString("## Incident Details\n")
	fmt.Fprintf(&b, "- **Alert Type**: %s\n", orDefault(f.Category, "Unknown"))
	fmt.Fprintf(&b, "- **Severity Level**: %s\n", orDefault(string(f.Severity), "Unknown"))
	fmt.Fprintf(&b, "- **Detection Time**: %s\n", f.CreatedAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "- **Status**: %s\n\n", orDefault(string(f.Status), string(StatusOpen)))
	b.WriteString("## Evidence Summary\n")
	writeEvidence(&b, f.Evidence, false)
	b.WriteString("\n## Next Steps\n")
	b.WriteString("1. **Review**: Examine all available evidence\n")
	b.WriteString("2. **Investigate**: Gather additional context if needed\n")
	b.WriteString("3. **Action**: Apply the appropriate response\n")
	b.WriteString("4. **Monitor**: Track for recurring patterns\n\n")
	b.WriteString("## Additional Context\n")
	if len(f.OriginPayload) > 0 {
		if data, err := json.MarshalIndent(f.OriginPayload, "", "  "); err == nil {
			b.Write(data)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("No additional data available\n")
	}
	return b.String()
}

func writeEvidence(b *strings.Builder, evidence []EvidenceItem, withType bool) {
	if len(evidence) == 0 {
		b.WriteString("- No specific evidence details available\n")
		return
	}
	for _, ev := range evidence {
		if withType {
			fmt.Fprintf(b, "- **%s**: %s\n", orDefault(ev.Type, "Unknown"), orDefault(ev.Detail, "No details"))
		} else {
			fmt.Fprintf(b, "- %s\n", orDefault(ev.Detail, "No details available"))
		}
	}
}

func payloadString(p map[string]any, key, fallback string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return orDefault(s, fallback)
	}
	return fmt.Sprint(v)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
