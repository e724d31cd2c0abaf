package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/types"
)

// IngestRepoPayload is the payload bound to an ingest_repo confirmation and
// job.
type IngestRepoPayload struct {
	RepoURL string `json:"repo_url"`
}

// CandidateProfile is the payload bound to a save_candidate confirmation.
type CandidateProfile struct {
	ContactInfo map[string]string `json:"contact_info"`
	Skills      []string          `json:"skills"`
	Experience  []ExperienceEntry `json:"experience"`
	Projects    []ProjectEntry    `json:"projects"`
	Education   []EducationEntry  `json:"education"`
	RawText     string            `json:"raw_text,omitempty"`
}

type ExperienceEntry struct {
	Role    string `json:"role"`
	Company string `json:"company"`
	Dates   string `json:"dates"`
}

type ProjectEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Year        string `json:"year"`
}

// ActionProposal is the tagged variant over the closed set of gated action
// kinds. Exactly one payload field is set, matching Kind.
type ActionProposal struct {
	Kind          string
	IngestRepo    *IngestRepoPayload
	SaveCandidate *CandidateProfile
}

func (p *ActionProposal) Validate() error {
	if p == nil {
		return apierr.Validation("empty action proposal")
	}
	switch p.Kind {
	case types.ActionIngestRepo:
		if p.IngestRepo == nil || p.IngestRepo.RepoURL == "" {
			return apierr.Validation("ingest_repo proposal missing repo_url")
		}
	case types.ActionSaveCandidate:
		if p.SaveCandidate == nil {
			return apierr.Validation("save_candidate proposal missing profile")
		}
	default:
		return apierr.Validation("unknown action kind %q", p.Kind)
	}
	return nil
}

// MarshalPayload serializes the proposal's payload for storage on the
// Confirmation row.
func (p *ActionProposal) MarshalPayload() (datatypes.JSON, error) {
	var v any
	switch p.Kind {
	case types.ActionIngestRepo:
		v = p.IngestRepo
	case types.ActionSaveCandidate:
		v = p.SaveCandidate
	default:
		return nil, apierr.Validation("unknown action kind %q", p.Kind)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Prompt returns the literal confirmation prompt for the proposal. The text
// is fixed per action kind so it is reproducible for re-issue.
func (p *ActionProposal) Prompt() string {
	switch p.Kind {
	case types.ActionIngestRepo:
		return IngestPrompt(p.IngestRepo.RepoURL)
	case types.ActionSaveCandidate:
		return SaveCandidatePrompt
	}
	return ""
}

const SaveCandidatePrompt = "Do you want me to save this candidate profile to the workspace? (yes/no)"

const DeniedAcknowledgement = "Understood, I did not perform that action."

func IngestPrompt(repoURL string) string {
	return fmt.Sprintf("Would you like me to crawl this repository: %s ? (yes/no)", repoURL)
}

func decodeIngestPayload(raw datatypes.JSON) (*IngestRepoPayload, error) {
	var p IngestRepoPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apierr.Validation("malformed ingest_repo payload: %v", err)
	}
	if p.RepoURL == "" {
		return nil, apierr.Validation("ingest_repo payload missing repo_url")
	}
	return &p, nil
}

func decodeCandidatePayload(raw datatypes.JSON) (*CandidateProfile, error) {
	var p CandidateProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apierr.Validation("malformed save_candidate payload: %v", err)
	}
	return &p, nil
}
