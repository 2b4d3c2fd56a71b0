package content

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ssupercloud/nextdawn/internal/models"
)

// Outcome tags which path produced a Result.
type Outcome string

const (
	OutcomeStrict      Outcome = "strict"
	OutcomeRepaired    Outcome = "repaired"
	OutcomeSalvaged    Outcome = "salvaged"
	OutcomeUnavailable Outcome = "unavailable"
)

// Placeholders for fields the model failed to deliver.
const (
	PlaceholderEN = "Data is being prepared..."
	PlaceholderZH = "数据准备中..."
)

// Payload is the JSON object the model is asked to return.
type Payload struct {
	Headline    string `json:"headline"`
	Story       string `json:"story"`
	HeadlineCN  string `json:"headline_cn"`
	StoryCN     string `json:"story_cn"`
	ImagePrompt string `json:"image_prompt"`
	Impact      string `json:"impact"`
}

var (
	fenceMarker = regexp.MustCompile("```[a-zA-Z]*")

	salvageFields = map[string]*regexp.Regexp{}
)

func init() {
	for _, field := range []string{"headline", "story", "headline_cn", "story_cn", "image_prompt", "impact"} {
		salvageFields[field] = regexp.MustCompile(`(?s)"` + field + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	}
}

// ParsePayload decodes raw model output. It tries a strict decode, then a
// repaired decode, then per-field salvage. It never fails: a missing headline
// becomes fallbackHeadline when given, other missing text fields become
// placeholders.
func ParsePayload(raw, fallbackHeadline string) (Payload, Outcome) {
	var p Payload
	outcome := OutcomeStrict

	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		p = Payload{}
		outcome = OutcomeRepaired
		if err := json.Unmarshal([]byte(repairJSON(raw)), &p); err != nil {
			p = salvage(raw)
			outcome = OutcomeSalvaged
		}
	}

	p.fillPlaceholders(fallbackHeadline)
	return p, outcome
}

// repairJSON strips code fences, keeps the outermost object and escapes raw
// control characters inside string literals.
func repairJSON(raw string) string {
	s := fenceMarker.ReplaceAllString(raw, "")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}

	return escapeControlChars(s[start : end+1])
}

// escapeControlChars escapes newlines, carriage returns and tabs that appear
// inside JSON string literals. Text outside strings is left alone.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString, escaped := false, false
	for _, r := range s {
		if !inString {
			if r == '"' {
				inString = true
			}
			b.WriteRune(r)
			continue
		}

		switch {
		case escaped:
			escaped = false
			b.WriteRune(r)
		case r == '\\':
			escaped = true
			b.WriteRune(r)
		case r == '"':
			inString = false
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func salvage(raw string) Payload {
	return Payload{
		Headline:    salvageField(raw, "headline"),
		Story:       salvageField(raw, "story"),
		HeadlineCN:  salvageField(raw, "headline_cn"),
		StoryCN:     salvageField(raw, "story_cn"),
		ImagePrompt: salvageField(raw, "image_prompt"),
		Impact:      salvageField(raw, "impact"),
	}
}

func salvageField(raw, field string) string {
	m := salvageFields[field].FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return unescape(m[1])
}

var jsonEscapes = strings.NewReplacer(`\n`, "\n", `\r`, "", `\t`, "\t", `\"`, `"`, `\\`, `\`, `\/`, "/")

// unescape decodes a JSON string body, falling back to the common escapes
// when the body is not valid JSON.
func unescape(body string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+escapeControlChars(`"`+body)[1:]+`"`), &s); err == nil {
		return s
	}
	return jsonEscapes.Replace(body)
}

func (p *Payload) fillPlaceholders(fallbackHeadline string) {
	if strings.TrimSpace(p.Headline) == "" {
		p.Headline = PlaceholderEN
		if fallbackHeadline != "" {
			p.Headline = fallbackHeadline
		}
	}
	if strings.TrimSpace(p.Story) == "" {
		p.Story = PlaceholderEN
	}
	if strings.TrimSpace(p.HeadlineCN) == "" {
		p.HeadlineCN = PlaceholderZH
	}
	if strings.TrimSpace(p.StoryCN) == "" {
		p.StoryCN = PlaceholderZH
	}
	p.Impact = string(models.ParseImpact(p.Impact))
}
