package report

import (
	"regexp"
	"strings"
)

// Section names in report order. The gallery renders sections in exactly
// this order, so it is part of the JSON contract.
var OrderedSections = []string{
	"Location",
	"Materials/Description",
	"Observations",
	"Potential Issues",
	"Recommendations",
}

var sectionHeaderRx = regexp.MustCompile(`(?i)^(Location|Materials(?:/Description)?|Description|What I See|Observations|Potential\s+Issues|Issues to Address|Issues|Recommended Action|Recommendations?):\s*$`)

var defectWordsRx = regexp.MustCompile(`(?i)\b(issue|defect|damage|leak|intrusion|stain|crack|dent|bend|warp|gap|separation|loose|missing|rot|mold|mildew|corrosion|rust|unsafe|hazard|trip|void|broken|exposed|unsealed|failed|compromised)\b`)

// Classification is the structured result derived from one image's notes.
type Classification struct {
	Sections  map[string][]string
	Severity  Severity
	Area      string
	System    string
	Tags      []string
	Critical  bool
	Important bool
}

// Classifier turns free-text model notes into sectioned, classified
// findings. Keyword lists are injected so thresholds stay unit-testable.
type Classifier struct {
	RepairKeywords []string
}

// Classify sectionizes the note text and derives severity, area, system
// and tags from it.
func (c Classifier) Classify(text string) Classification {
	sections := NormalizeNotes(text)
	crit, imp := c.statusFlags(sections)

	cl := Classification{
		Sections:  sections,
		Critical:  crit,
		Important: imp,
		Severity:  SeverityInformational,
	}
	if imp {
		cl.Severity = SeverityImportant
	}
	if crit {
		cl.Severity = SeverityCritical
	}
	if loc := sections["Location"]; len(loc) > 0 {
		cl.Area = loc[0]
	}
	cl.System, cl.Tags = classifySystem(text)
	return cl
}

// statusFlags reports (critical, important) from the Potential Issues
// section. Placeholder "no visible issues" lines are ignored; critical
// requires the literal word, important requires a repair/action keyword.
func (c Classifier) statusFlags(sections map[string][]string) (bool, bool) {
	var issues []string
	for _, t := range sections["Potential Issues"] {
		low := strings.ToLower(t)
		if strings.Contains(low, "no visible issues") || strings.Contains(low, "no repairs needed") {
			continue
		}
		issues = append(issues, low)
	}
	if len(issues) == 0 {
		return false, false
	}

	crit := false
	imp := false
	for _, t := range issues {
		if strings.Contains(t, "critical") {
			crit = true
		}
		if strings.Contains(t, "important") || c.matchesAction(t) {
			imp = true
		}
	}
	return crit, imp
}

func (c Classifier) matchesAction(line string) bool {
	for _, kw := range c.RepairKeywords {
		if containsWord(line, kw) {
			return true
		}
	}
	return false
}

// containsWord matches kw with word-ish boundaries, allowing hyphenated
// keywords like re-caulk.
func containsWord(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordByte(s[start-1])
		afterOK := end == len(s) || !isWordByte(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// LooksEvasive reports whether a model response likely missed every
// problem: empty, or carrying neither an issues section nor any classic
// defect word. An explicit "no repairs needed" is a valid answer, not an
// evasive one.
func LooksEvasive(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	s := strings.ToLower(text)
	if strings.Contains(s, "no repairs needed") || strings.Contains(s, "no issues") {
		return false
	}
	if !strings.Contains(s, "issues to address") && !strings.Contains(s, "potential issues") &&
		!defectWordsRx.MatchString(s) {
		return true
	}
	return false
}

// NormalizeNotes splits raw note text into the five ordered sections.
// Text with explicit section headers is honored; otherwise each candidate
// line is routed by keyword.
func NormalizeNotes(text string) map[string][]string {
	res := make(map[string][]string, len(OrderedSections))
	for _, s := range OrderedSections {
		res[s] = nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return res
	}

	parts, hasHeaders := splitByHeaders(text)
	if hasHeaders {
		for sec, body := range parts {
			res[sec] = append(res[sec], splitCandidateLines(body)...)
		}
		return res
	}

	for _, cand := range splitCandidateLines(text) {
		sec, clean := routeLine(cand)
		if sec == "Location" && strings.Contains(strings.ToLower(cand), "location/material") {
			res["Location"] = append(res["Location"], clean)
			res["Materials/Description"] = append(res["Materials/Description"], clean)
			continue
		}
		res[sec] = append(res[sec], clean)
	}
	empty := true
	for _, v := range res {
		if len(v) > 0 {
			empty = false
			break
		}
	}
	if empty {
		res["Observations"] = []string{"No visible issues."}
	}
	return res
}

func canonicalSection(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "materials", "description", "materials/description", "what i see":
		return "Materials/Description"
	case "issues", "issues to address", "potential issues":
		return "Potential Issues"
	case "recommendation", "recommendations", "recommended action":
		return "Recommendations"
	case "location":
		return "Location"
	default:
		return "Observations"
	}
}

func splitByHeaders(text string) (map[string]string, bool) {
	parts := map[string]string{}
	current := ""
	var buf []string
	has := false
	for _, ln := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(ln)
		if m := sectionHeaderRx.FindStringSubmatch(trimmed); m != nil {
			has = true
			if current != "" {
				parts[current] += "\n" + strings.Join(buf, "\n")
			}
			buf = buf[:0]
			current = canonicalSection(m[1])
			continue
		}
		buf = append(buf, ln)
	}
	if current != "" {
		parts[current] += "\n" + strings.Join(buf, "\n")
	}
	return parts, has
}

// splitCandidateLines breaks free text into bullet-sized statements.
func splitCandidateLines(text string) []string {
	if text == "" {
		return nil
	}
	t := strings.NewReplacer("—", ". ", "•", "\n", ";", ". ").Replace(text)
	var lines []string
	for _, raw := range strings.Split(t, "\n") {
		raw = strings.Trim(raw, " \t-*•")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		for _, p := range splitSentences(raw) {
			p = strings.Trim(p, " \t-*•")
			p = strings.Trim(p, ": ")
			if p != "" {
				lines = append(lines, p)
			}
		}
	}
	return lines
}

// splitSentences splits on terminal punctuation followed by a capital or
// open paren, keeping the punctuation with the left part.
func splitSentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(s) && s[j] == ' ' {
				j++
			}
			if j > i+1 && j < len(s) && (s[j] >= 'A' && s[j] <= 'Z' || s[j] == '(') {
				out = append(out, strings.TrimSpace(s[start:i+1]))
				start = j
				i = j - 1
			}
		}
	}
	if start < len(s) {
		out = append(out, strings.TrimSpace(s[start:]))
	}
	return out
}

var issuePrefixes = []string{
	"issue", "risk", "hazard", "safety", "concern", "defect", "damage",
	"deteriorat", "leak", "moisture", "mold", "rot", "crack", "corrosion",
	"not in conduit", "unsecured", "trip hazard", "minor condition",
	"active leak", "stain", "missing", "loose", "unsafe", "exposed",
}

var materialHints = []string{
	"cmu block", "drywall", "lap siding", "asphalt shingle", "concrete",
	"paver", "brick", "plaster", "register", "vent cover",
}

var locationHints = []string{
	"front exterior", "interior", "exterior wall", "entry", "porch",
	"driveway", "bathroom", "kitchen", "ceiling", "wall ",
}

// routeLine assigns a headerless statement to a section.
func routeLine(line string) (string, string) {
	l := strings.TrimSpace(line)
	low := strings.ToLower(l)
	afterColon := func() string {
		if i := strings.Index(l, ":"); i >= 0 {
			return strings.TrimSpace(l[i+1:])
		}
		return l
	}

	switch {
	case strings.HasPrefix(low, "location/material"), strings.HasPrefix(low, "location & material"):
		return "Location", afterColon()
	case strings.HasPrefix(low, "location:"):
		return "Location", afterColon()
	case strings.HasPrefix(low, "material:"), strings.HasPrefix(low, "materials:"),
		strings.HasPrefix(low, "materials/description:"), strings.HasPrefix(low, "description:"):
		return "Materials/Description", afterColon()
	case strings.HasPrefix(low, "recommendation"), strings.HasPrefix(low, "action "),
		strings.HasPrefix(low, "action:"), strings.HasPrefix(low, "recommend "):
		return "Recommendations", afterColon()
	}
	for _, p := range issuePrefixes {
		if strings.HasPrefix(low, p) {
			return "Potential Issues", afterColon()
		}
	}
	for _, h := range materialHints {
		if strings.Contains(low, h) {
			return "Materials/Description", l
		}
	}
	for _, h := range locationHints {
		if strings.Contains(low, h) {
			return "Location", l
		}
	}
	return "Observations", l
}

// systemKeywords routes findings to a building system for the gallery's
// per-system rollup.
var systemKeywords = []struct {
	system string
	words  []string
}{
	{"roofing", []string{"roof", "shingle", "gutter", "flashing", "fascia", "soffit", "downspout"}},
	{"electrical", []string{"electrical", "outlet", "wiring", "conduit", "breaker", "panel", "fixture", "receptacle"}},
	{"plumbing", []string{"plumbing", "pipe", "faucet", "drain", "water heater", "supply line", "p-trap", "leak"}},
	{"hvac", []string{"hvac", "furnace", "duct", "condenser", "thermostat", "air handler", "vent cover", "register"}},
	{"structural", []string{"foundation", "beam", "joist", "framing", "structural", "settlement", "slab"}},
	{"exterior", []string{"siding", "stucco", "exterior", "driveway", "fence", "deck", "porch", "window frame"}},
	{"interior", []string{"drywall", "ceiling", "floor", "interior", "cabinet", "countertop", "door", "paint"}},
}

func classifySystem(text string) (string, []string) {
	low := strings.ToLower(text)
	var tags []string
	system := ""
	for _, sk := range systemKeywords {
		for _, w := range sk.words {
			if strings.Contains(low, w) {
				if system == "" {
					system = sk.system
				}
				tags = append(tags, w)
			}
		}
	}
	if system == "" {
		system = "general"
	}
	return system, tags
}
