package usecase

import (
	"fmt"

	"github.com/xavierca1/lead-intake/internal/entity"
)

func leadContactProperties(in entity.LeadSubmission, c entity.NormalizedContact) map[string]string {
	props := map[string]string{
		"email":          c.Email,
		"firstname":      in.FirstName,
		"lastname":       in.LastName,
		"phone":          c.CRMPhone,
		"lifecyclestage": "lead",
		"hs_lead_status": "NEW",
	}
	setIfNotEmpty(props, "company", in.Company)
	setIfNotEmpty(props, "jobtitle", in.Role)
	setIfNotEmpty(props, "preferred_contact_time", in.PreferredTime)
	addUTM(props, in.UTM)
	return props
}

func leadDealProperties(in entity.LeadSubmission, pipelineID, stageID string) map[string]string {
	name := fmt.Sprintf("Lead site - %s", in.FullName())
	if in.Company != "" {
		name = fmt.Sprintf("%s (%s)", name, in.Company)
	}
	return map[string]string{
		"dealname":  name,
		"pipeline":  pipelineID,
		"dealstage": stageID,
	}
}

func meetupContactProperties(in entity.MeetupRegistration, c entity.NormalizedContact) map[string]string {
	props := map[string]string{
		"email":          c.Email,
		"firstname":      in.FirstName,
		"lastname":       in.LastName,
		"phone":          c.CRMPhone,
		"lifecyclestage": "lead",
		"english_level":  in.EnglishLevel,
		"lgpd_consent":   "true",
	}
	addUTM(props, in.UTM)
	return props
}

func meetupDealProperties(in entity.MeetupRegistration, event entity.MeetupEvent, pipelineID, stageID string) map[string]string {
	return map[string]string{
		"dealname":  fmt.Sprintf("%s - %s", event.Title, in.FullName()),
		"pipeline":  pipelineID,
		"dealstage": stageID,
	}
}

func addUTM(props map[string]string, utm entity.UTM) {
	setIfNotEmpty(props, "utm_source", utm.Source)
	setIfNotEmpty(props, "utm_medium", utm.Medium)
	setIfNotEmpty(props, "utm_campaign", utm.Campaign)
	setIfNotEmpty(props, "utm_term", utm.Term)
	setIfNotEmpty(props, "utm_content", utm.Content)
}

func setIfNotEmpty(props map[string]string, key, value string) {
	if value != "" {
		props[key] = value
	}
}
