package domain

import "time"

// ApplicationStatus enumerates job-application lifecycle states.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// Application is a candidate's submission against an open job posting.
type Application struct {
	ID             string            `bson:"_id,omitempty"`
	GuildID        string            `bson:"guildId"`
	JobID          string            `bson:"jobId"`
	ApplicantID    string            `bson:"applicantId"`
	RobloxUsername string            `bson:"robloxUsername,omitempty"`
	Answers        map[string]string `bson:"answers,omitempty"`
	Status         ApplicationStatus `bson:"status"`
	ReviewedBy     string            `bson:"reviewedBy,omitempty"`
	CreatedAt      time.Time         `bson:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt"`
}

// Job is an open or closed position posting within a guild.
type Job struct {
	ID          string    `bson:"_id,omitempty"`
	GuildID     string    `bson:"guildId"`
	Title       string    `bson:"title"`
	Description string    `bson:"description,omitempty"`
	Role        StaffRole `bson:"role"`
	RoleID      string    `bson:"roleId,omitempty"`
	IsOpen      bool      `bson:"isOpen"`
	PostedBy    string    `bson:"postedBy"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// RetainerStatus enumerates retainer lifecycle states.
type RetainerStatus string

const (
	RetainerPending   RetainerStatus = "PENDING"
	RetainerSigned    RetainerStatus = "SIGNED"
	RetainerCancelled RetainerStatus = "CANCELLED"
)

// Retainer is a representation agreement between the firm and a client.
type Retainer struct {
	ID               string         `bson:"_id,omitempty"`
	GuildID          string         `bson:"guildId"`
	ClientID         string         `bson:"clientId"`
	LawyerID         string         `bson:"lawyerId"`
	Status           RetainerStatus `bson:"status"`
	AgreementText    string         `bson:"agreementText,omitempty"`
	DigitalSignature string         `bson:"digitalSignature,omitempty"`
	SignedAt         *time.Time     `bson:"signedAt,omitempty"`
	CreatedAt        time.Time      `bson:"createdAt"`
	UpdatedAt        time.Time      `bson:"updatedAt"`
}

// Feedback is a client rating of a staff member or the firm at large.
type Feedback struct {
	ID                string    `bson:"_id,omitempty"`
	GuildID           string    `bson:"guildId"`
	SubmitterID       string    `bson:"submitterId"`
	SubmitterUsername string    `bson:"submitterUsername,omitempty"`
	TargetStaffID     string    `bson:"targetStaffId,omitempty"`
	Rating            int       `bson:"rating"`
	Comment           string    `bson:"comment,omitempty"`
	CreatedAt         time.Time `bson:"createdAt"`
}

// Reminder is a scheduled message to be delivered in a channel.
type Reminder struct {
	ID           string     `bson:"_id,omitempty"`
	GuildID      string     `bson:"guildId"`
	UserID       string     `bson:"userId"`
	ChannelID    string     `bson:"channelId"`
	CaseID       string     `bson:"caseId,omitempty"`
	Text         string     `bson:"text"`
	ScheduledFor time.Time  `bson:"scheduledFor"`
	DeliveredAt  *time.Time `bson:"deliveredAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
}
