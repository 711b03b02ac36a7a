package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EmailDuplicate         = "EMAIL_DUPLICATE"
	ParticipantNotFound    = "PARTICIPANT_NOT_FOUND"
	PaymentNotFound        = "PAYMENT_NOT_FOUND"
	CertificateNotFound    = "CERTIFICATE_NOT_FOUND"
	SessionRegistryInvalid = "SESSION_REGISTRATION_INVALID"
	RegistrationNotFound   = "REGISTRATION_NOT_FOUND"
)

type RegisterRequest struct {
	FirstName           string  `json:"first_name" validate:"required,max=100"`
	LastName            string  `json:"last_name" validate:"required,max=100"`
	Email               string  `json:"email" validate:"required,email,max=120"`
	Phone               string  `json:"phone" validate:"max=20"`
	Organization        string  `json:"organization" validate:"max=200"`
	JobTitle            string  `json:"job_title" validate:"max=100"`
	MembershipNumber    string  `json:"membership_number" validate:"max=50"`
	MemberType          string  `json:"member_type" validate:"required"`
	DietaryRequirements string  `json:"dietary_requirements"`
	AttendanceType      string  `json:"attendance_type" validate:"required"`
	PaymentAmount       float64 `json:"payment_amount" validate:"required,positive"`
	PaymentMethod       string  `json:"payment_method" validate:"required,max=50"`
}

type RegisterResponse struct {
	RegistrationID string `json:"registration_id"`
}

type UpdatePaymentRequest struct {
	Status        string `json:"status" validate:"required"`
	TransactionID string `json:"transaction_id"`
}

type CertificateResponse struct {
	CertificateCode string `json:"certificate_code"`
}

type SessionResponse struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Speaker        string `json:"speaker"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	RoomNumber     string `json:"room_number,omitempty"`
	AvailableSeats int    `json:"available_seats"`
}

type SessionRegisterRequest struct {
	ParticipantID int64 `json:"participant_id" validate:"required"`
}

type FeedbackRequest struct {
	ParticipantID int64  `json:"participant_id" validate:"required"`
	SessionID     int64  `json:"session_id" validate:"required"`
	Rating        int    `json:"rating" validate:"required"`
	Comments      string `json:"comments"`
}

type AttendanceRequest struct {
	ParticipantID int64 `json:"participant_id" validate:"required"`
	Attended      bool  `json:"attended"`
}

// NotificationMessage is the envelope published to RabbitMQ and consumed by
// the mail worker.
type NotificationMessage struct {
	Type            string    `json:"type"`
	RegistrationID  string    `json:"registration_id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	MemberType      string    `json:"member_type"`
	AttendanceType  string    `json:"attendance_type"`
	CertificateCode string    `json:"certificate_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	NotifyRegistrationCreated = "registration.created"
	NotifyPaymentCompleted    = "payment.completed"
	NotifyCertificateIssued   = "certificate.issued"
)

type PredictRequest struct {
	HydraulicRadius float64 `json:"hr"`
	StabilityNumber float64 `json:"n"`
}

type PredictResponse struct {
	Status string `json:"status"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func EmailDuplicateError(c *ginext.Context) {
	BadResponseError(c, EmailDuplicate, "Email already registered")
}

func ParticipantNotFoundError(c *ginext.Context) {
	NotFoundError(c, ParticipantNotFound, "Participant not found")
}

func PaymentNotFoundError(c *ginext.Context) {
	NotFoundError(c, PaymentNotFound, "Payment not found")
}

func CertificateNotFoundError(c *ginext.Context) {
	NotFoundError(c, CertificateNotFound, "Certificate not available")
}

func RegistrationNotFoundError(c *ginext.Context) {
	NotFoundError(c, RegistrationNotFound, "Registration not found")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
