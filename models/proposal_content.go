package models

// ProposalContent holds the researcher-owned form sections.
type ProposalContent struct {
	Title           string                `json:"title" validate:"max=300"`
	Administrative  AdministrativeSection `json:"administrative"`
	Research        ResearchSection       `json:"research"`
	Participant     ParticipantSection    `json:"participant"`
	Consent         ConsentSection        `json:"consent"`
	Declaration     DeclarationSection    `json:"declaration"`
	Summary         string                `json:"summary,omitempty"`
	Objectives      string                `json:"objectives,omitempty"`
	Methodology     string                `json:"methodology,omitempty"`
	ExpectedOutcome string                `json:"expected_outcome,omitempty"`
}

type Investigator struct {
	Name          string `json:"name,omitempty"`
	Designation   string `json:"designation,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	Department    string `json:"department,omitempty"`
	Institution   string `json:"institution,omitempty"`
	Contact       string `json:"contact,omitempty"`
	CVDocumentID  string `json:"cv_document_id,omitempty"`
}

type AdministrativeSection struct {
	Organization          string         `json:"organization,omitempty"`
	IECName               string         `json:"iec_name,omitempty"`
	DateOfSubmission      string         `json:"date_of_submission,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ReviewType            string         `json:"review_type,omitempty" validate:"omitempty,oneof=exemption expedited full_committee"`
	StudyTitle            string         `json:"study_title,omitempty"`
	ShortTitle            string         `json:"short_title,omitempty"`
	ProtocolNumber        string         `json:"protocol_number,omitempty"`
	ProtocolVersion       string         `json:"protocol_version,omitempty"`
	PrincipalInvestigator *Investigator  `json:"principal_investigator,omitempty"`
	CoInvestigators       []Investigator `json:"co_investigators,omitempty"`
}

type SiteDetail struct {
	Name                 string `json:"name,omitempty"`
	PIName               string `json:"pi_name,omitempty"`
	ExpectedParticipants int    `json:"expected_participants,omitempty" validate:"gte=0"`
}

type FundingDetail struct {
	SponsorName string  `json:"sponsor_name,omitempty"`
	Amount      float64 `json:"amount,omitempty" validate:"gte=0"`
	Duration    string  `json:"duration,omitempty"`
}

type ResearchSection struct {
	StudyType          []string       `json:"study_type,omitempty"`
	StudyDesign        string         `json:"study_design,omitempty" validate:"omitempty,oneof=interventional observational"`
	StudyDurationMonth int            `json:"study_duration,omitempty" validate:"gte=0"`
	StudySites         string         `json:"study_sites,omitempty" validate:"omitempty,oneof=single multi"`
	SiteDetails        []SiteDetail   `json:"site_details,omitempty" validate:"dive"`
	FundingSource      string         `json:"funding_source,omitempty" validate:"omitempty,oneof=self govt industry other"`
	FundingDetails     *FundingDetail `json:"funding_details,omitempty"`
	SponsorDetails     string         `json:"sponsor_details,omitempty"`
	CRODetails         string         `json:"cro_details,omitempty"`
	ConflictOfInterest bool           `json:"conflict_of_interest"`
	ConflictDetails    string         `json:"conflict_details,omitempty"`
	InsuranceCoverage  bool           `json:"insurance_coverage"`
	InsuranceDetails   string         `json:"insurance_details,omitempty"`
}

type ParticipantSection struct {
	ParticipantCount      int      `json:"participant_count,omitempty" validate:"gte=0"`
	VulnerableGroups      []string `json:"vulnerable_groups,omitempty"`
	InclusionCriteria     string   `json:"inclusion_criteria,omitempty"`
	ExclusionCriteria     string   `json:"exclusion_criteria,omitempty"`
	RecruitmentMethod     string   `json:"recruitment_method,omitempty"`
	InterventionDetails   string   `json:"intervention_details,omitempty"`
	DataCollectionMethods []string `json:"data_collection_methods,omitempty"`
	RiskAssessment        string   `json:"risk_assessment,omitempty" validate:"omitempty,oneof=minimal low high"`
	BenefitAssessment     string   `json:"benefit_assessment,omitempty" validate:"omitempty,oneof=direct indirect none"`
	PrivacyMeasures       string   `json:"privacy_measures,omitempty"`
}

type ConsentSection struct {
	WaiverRequest       bool   `json:"waiver_request"`
	WaiverJustification string `json:"waiver_justification,omitempty"`
	ConsentProcess      string `json:"consent_process,omitempty"`
	ConsentFormEnglish  string `json:"consent_form_english,omitempty"`
	ConsentFormLocal    string `json:"consent_form_local,omitempty"`
	AVRecording         bool   `json:"av_recording"`
	AVJustification     string `json:"av_justification,omitempty"`
	DataSharing         string `json:"data_sharing,omitempty" validate:"omitempty,oneof=none anonymized full"`
	SampleStorage       string `json:"sample_storage,omitempty" validate:"omitempty,oneof=none short_term long_term biobank"`
}

type DeclarationSection struct {
	Agree               bool   `json:"agree"`
	SignatureDocumentID string `json:"signature_document_id,omitempty"`
}

// Clone deep-copies slices and pointers.
func (c ProposalContent) Clone() ProposalContent {
	out := c
	out.Administrative.CoInvestigators = append([]Investigator(nil), c.Administrative.CoInvestigators...)
	if c.Administrative.PrincipalInvestigator != nil {
		pi := *c.Administrative.PrincipalInvestigator
		out.Administrative.PrincipalInvestigator = &pi
	}
	out.Research.StudyType = append([]string(nil), c.Research.StudyType...)
	out.Research.SiteDetails = append([]SiteDetail(nil), c.Research.SiteDetails...)
	if c.Research.FundingDetails != nil {
		fd := *c.Research.FundingDetails
		out.Research.FundingDetails = &fd
	}
	out.Participant.VulnerableGroups = append([]string(nil), c.Participant.VulnerableGroups...)
	out.Participant.DataCollectionMethods = append([]string(nil), c.Participant.DataCollectionMethods...)
	return out
}

// ContentPatch replaces the sections that are set and leaves the rest alone.
type ContentPatch struct {
	Title           *string                `json:"title,omitempty"`
	Administrative  *AdministrativeSection `json:"administrative,omitempty"`
	Research        *ResearchSection       `json:"research,omitempty"`
	Participant     *ParticipantSection    `json:"participant,omitempty"`
	Consent         *ConsentSection        `json:"consent,omitempty"`
	Declaration     *DeclarationSection    `json:"declaration,omitempty"`
	Summary         *string                `json:"summary,omitempty"`
	Objectives      *string                `json:"objectives,omitempty"`
	Methodology     *string                `json:"methodology,omitempty"`
	ExpectedOutcome *string                `json:"expected_outcome,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ContentPatch) Empty() bool {
	return p.Title == nil && p.Administrative == nil && p.Research == nil &&
		p.Participant == nil && p.Consent == nil && p.Declaration == nil &&
		p.Summary == nil && p.Objectives == nil && p.Methodology == nil &&
		p.ExpectedOutcome == nil
}

// Apply returns c with the patch applied.
func (p ContentPatch) Apply(c ProposalContent) ProposalContent {
	out := c.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Administrative != nil {
		out.Administrative = *p.Administrative
	}
	if p.Research != nil {
		out.Research = *p.Research
	}
	if p.Participant != nil {
		out.Participant = *p.Participant
	}
	if p.Consent != nil {
		out.Consent = *p.Consent
	}
	if p.Declaration != nil {
		out.Declaration = *p.Declaration
	}
	if p.Summary != nil {
		out.Summary = *p.Summary
	}
	if p.Objectives != nil {
		out.Objectives = *p.Objectives
	}
	if p.Methodology != nil {
		out.Methodology = *p.Methodology
	}
	if p.ExpectedOutcome != nil {
		out.ExpectedOutcome = *p.ExpectedOutcome
	}
	return out.Clone()
}
