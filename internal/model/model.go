package model

import (
	"fmt"
	"time"
)

type MemberType string

const (
	MemberStudent      MemberType = "student"
	MemberProfessional MemberType = "professional"
	MemberCorporate    MemberType = "corporate"
	MemberNonMember    MemberType = "non_member"
)

type AttendanceType string

const (
	AttendanceInPerson AttendanceType = "in_person"
	AttendanceVirtual  AttendanceType = "virtual"
	AttendanceHybrid   AttendanceType = "hybrid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func ParseMemberType(s string) (MemberType, error) {
	switch MemberType(s) {
	case MemberStudent, MemberProfessional, MemberCorporate, MemberNonMember:
		return MemberType(s), nil
	}
	return "", fmt.Errorf("unknown member type %q", s)
}

func ParseAttendanceType(s string) (AttendanceType, error) {
	switch AttendanceType(s) {
	case AttendanceInPerson, AttendanceVirtual, AttendanceHybrid:
		return AttendanceType(s), nil
	}
	return "", fmt.Errorf("unknown attendance type %q", s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

type Participant struct {
	ID                  int64          `db:"id" json:"id"`
	FirstName           string         `db:"first_name" json:"first_name"`
	LastName            string         `db:"last_name" json:"last_name"`
	Email               string         `db:"email" json:"email"`
	Phone               string         `db:"phone,omitempty" json:"phone,omitempty"`
	Organization        string         `db:"organization,omitempty" json:"organization,omitempty"`
	JobTitle            string         `db:"job_title,omitempty" json:"job_title,omitempty"`
	MembershipNumber    string         `db:"membership_number,omitempty" json:"membership_number,omitempty"`
	MemberType          MemberType     `db:"member_type" json:"member_type"`
	DietaryRequirements string         `db:"dietary_requirements,omitempty" json:"dietary_requirements,omitempty"`
	AttendanceType      AttendanceType `db:"attendance_type" json:"attendance_type"`
	RegistrationDate    time.Time      `db:"registration_date" json:"registration_date"`
	RegistrationID      string         `db:"registration_id" json:"registration_id"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

type Payment struct {
	ID            int64         `db:"id" json:"id"`
	ParticipantID int64         `db:"participant_id" json:"participant_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Method        string        `db:"payment_method" json:"payment_method"`
	Status        PaymentStatus `db:"payment_status" json:"payment_status"`
	TransactionID string        `db:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	PaymentDate   *time.Time    `db:"payment_date,omitempty" json:"payment_date,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

type Certificate struct {
	ID               int64      `db:"id" json:"id"`
	ParticipantID    int64      `db:"participant_id" json:"participant_id"`
	Code             string     `db:"certificate_code" json:"certificate_code"`
	TemplateVersion  string     `db:"template_version" json:"template_version"`
	IssueDate        time.Time  `db:"issue_date" json:"issue_date"`
	ExpiryDate       *time.Time `db:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	DownloadCount    int        `db:"download_count" json:"download_count"`
	LastDownloaded   *time.Time `db:"last_downloaded,omitempty" json:"last_downloaded,omitempty"`
	Revoked          bool       `db:"revoked" json:"revoked"`
	RevocationReason string     `db:"revocation_reason,omitempty" json:"revocation_reason,omitempty"`
}

type ConferenceSession struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description,omitempty" json:"description,omitempty"`
	Speaker     string    `db:"speaker,omitempty" json:"speaker,omitempty"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	MaxCapacity int       `db:"max_capacity" json:"max_capacity"`
	RoomNumber  string    `db:"room_number,omitempty" json:"room_number,omitempty"`
}

type SessionRegistration struct {
	ID            int64     `db:"id" json:"id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	SessionID     int64     `db:"session_id" json:"session_id"`
	RegisteredAt  time.Time `db:"registration_timestamp" json:"registration_timestamp"`
	Attended      bool      `db:"attended" json:"attended"`
}

type Feedback struct {
	ID            int64     `db:"id" json:"id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	SessionID     int64     `db:"session_id" json:"session_id"`
	Rating        int       `db:"rating" json:"rating"`
	Comments      string    `db:"comments,omitempty" json:"comments,omitempty"`
	SubmittedAt   time.Time `db:"submitted_at" json:"submitted_at"`
}

// ParticipantSummary is the admin listing row: participant plus the status of
// their first payment, or "no_payment" when none exists.
type ParticipantSummary struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Email          string `db:"email" json:"email"`
	RegistrationID string `db:"registration_id" json:"registration_id"`
	PaymentStatus  string `db:"payment_status" json:"payment_status"`
}
