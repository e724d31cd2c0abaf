package services

import (
	"regexp"
	"strings"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/logger"
)

// ProfileParser is the document-parsing capability: uploaded bytes in,
// structured candidate profile out. Binary PDF/DOCX decoding lives behind
// this interface; the built-in implementation works on extracted text.
type ProfileParser interface {
	Parse(content []byte, filename string) (*CandidateProfile, error)
}

type heuristicParser struct {
	log *logger.Logger
}

func NewHeuristicParser(log *logger.Logger) ProfileParser {
	return &heuristicParser{log: log.With("service", "HeuristicParser")}
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	phoneRe = regexp.MustCompile(`[\+]?[(]?[0-9]{1,4}[)]?[-\s\./0-9]{8,}`)
	dateRe  = regexp.MustCompile(`(?i)(\d{4})\s*[-–—]\s*(\d{4}|present|current|now)`)
	eduRe   = regexp.MustCompile(`(?i)(university|college|institute|b\.?s\.?|m\.?s\.?|b\.?a\.?|m\.?a\.?|phd|degree)`)
	skillRe = regexp.MustCompile(`(?is)skills?[:\s]+([^\n]+(?:\n[^\n]+){0,5})`)
)

var knownSkills = []string{
	"python", "java", "javascript", "typescript", "react", "node", "go", "sql", "aws",
	"docker", "kubernetes", "fastapi", "django", "flask", "postgresql", "mongodb",
	"git", "ci/cd", "rest", "api", "machine learning", "tensorflow", "pytorch",
	"grpc", "redis", "kafka", "terraform", "llm",
}

var roleKeywords = []string{"engineer", "developer", "manager", "analyst", "lead", "director", "at ", " - "}

func (p *heuristicParser) Parse(content []byte, filename string) (*CandidateProfile, error) {
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, apierr.Validation("empty document %q", filename)
	}
	profile := &CandidateProfile{
		ContactInfo: map[string]string{},
		Skills:      extractSkills(text),
		Experience:  extractExperience(text),
		Projects:    extractProjects(text),
		Education:   extractEducation(text),
		RawText:     text,
	}
	if email := emailRe.FindString(text); email != "" {
		profile.ContactInfo["email"] = email
	}
	if phone := phoneRe.FindString(text); phone != "" {
		profile.ContactInfo["phone"] = strings.TrimSpace(phone)
	}
	return profile, nil
}

func extractSkills(text string) []string {
	seen := map[string]bool{}
	var skills []string
	lower := strings.ToLower(text)
	for _, s := range knownSkills {
		if strings.Contains(lower, s) && !seen[s] {
			seen[s] = true
			skills = append(skills, s)
		}
	}
	if m := skillRe.FindStringSubmatch(text); m != nil {
		for _, part := range regexp.MustCompile(`[,;\|\n•\-]`).Split(m[1], -1) {
			part = strings.TrimSpace(part)
			if len(part) >= 2 && len(part) <= 50 && !strings.HasSuffix(part, ":") && !seen[strings.ToLower(part)] {
				seen[strings.ToLower(part)] = true
				skills = append(skills, part)
			}
		}
	}
	if len(skills) > 50 {
		skills = skills[:50]
	}
	return skills
}

func extractExperience(text string) []ExperienceEntry {
	var entries []ExperienceEntry
	for _, line := range splitLines(text) {
		// Section headers themselves are not entries.
		if len(line) < 50 && regexp.MustCompile(`(?i)(experience|employment|work\s+history)`).MatchString(line) {
			continue
		}
		m := dateRe.FindStringIndex(line)
		hasKeyword := false
		lower := strings.ToLower(line)
		for _, kw := range roleKeywords {
			if strings.Contains(lower, kw) {
				hasKeyword = true
				break
			}
		}
		if m == nil && !hasKeyword {
			continue
		}
		entry := ExperienceEntry{Role: line}
		if m != nil {
			entry.Dates = line[m[0]:m[1]]
			entry.Role = strings.TrimRight(strings.TrimSpace(line[:m[0]]), ",- ")
		}
		entries = append(entries, entry)
		if len(entries) >= 15 {
			break
		}
	}
	return entries
}

func extractEducation(text string) []EducationEntry {
	var entries []EducationEntry
	for _, line := range splitLines(text) {
		if eduRe.MatchString(line) {
			entries = append(entries, EducationEntry{Institution: line})
			if len(entries) >= 10 {
				break
			}
		}
	}
	return entries
}

func extractProjects(text string) []ProjectEntry {
	var projects []ProjectEntry
	inProjects := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 40 && regexp.MustCompile(`(?i)projects?`).MatchString(line) {
			inProjects = true
			continue
		}
		if inProjects && line != "" && !strings.HasPrefix(line, "•") && len(line) > 10 {
			name := line
			if len(name) > 200 {
				name = name[:200]
			}
			projects = append(projects, ProjectEntry{Name: name})
		}
		if inProjects && len(projects) >= 10 {
			break
		}
	}
	return projects
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
