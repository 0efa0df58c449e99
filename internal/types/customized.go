//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// CoverLetterRoleName is the header label used when a resume document carries a cover letter
const CoverLetterRoleName = "Cover Letter"

// CustomizedResume is a resume tailored to one job description.
// The customization service reports the target role through role_name and the
// target company through apply_company.
type CustomizedResume struct {
	ResumeProfile
	TargetCompany string `json:"apply_company"`
}

// customizedFields mirrors the extracted metadata that must be present after customization
type customizedFields struct {
	TargetCompany string `validate:"required"`
	TargetRole    string `validate:"required"`
}

// TargetRole returns the role the resume was tailored for.
func (c *CustomizedResume) TargetRole() string {
	return c.RoleName
}

// Validate checks that the extracted target company and role are present.
func (c *CustomizedResume) Validate() error {
	validate := validator.New()
	return validate.Struct(customizedFields{
		TargetCompany: c.TargetCompany,
		TargetRole:    c.RoleName,
	})
}

// CoverLetterDocument derives the resume-shaped payload used to render a cover letter:
// the body replaces the profile summary, the header role becomes "Cover Letter",
// and experience, education and skills are cleared.
func (c *CustomizedResume) CoverLetterDocument(body, fallbackName string) ResumeProfile {
	doc := c.ResumeProfile.Clone()
	doc.ProfileSummary = body
	doc.RoleName = CoverLetterRoleName
	doc.Experience = []Experience{}
	doc.Education = []Education{}
	doc.Skills = ""
	if doc.Name == "" {
		doc.Name = fallbackName
	}
	return doc
}

// CoverLetterDraft is the generated cover-letter prose.
type CoverLetterDraft struct {
	Body string `json:"cover_letter"`
}
