package mail

import "github.com/xavierca1/lead-intake/internal/entity"

type LeadWelcomeData struct {
	Subject       string
	FirstName     string
	Company       string
	PreferredTime string
}

type MeetupConfirmationData struct {
	Subject   string
	FirstName string
	Event     entity.MeetupEvent
	When      string
	HasInvite bool
}

type ReminderData struct {
	Subject   string
	Headline  string
	Body      string
	FirstName string
	Event     entity.MeetupEvent
	When      string
}
