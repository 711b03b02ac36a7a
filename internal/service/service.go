package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"confreg/internal/certgen"
	"confreg/internal/dto"
	"confreg/internal/model"
	"confreg/internal/repo"
	"confreg/pkg/validator"
)

// Publisher pushes notification events onto the broker.
type Publisher interface {
	Publish(message []byte) error
}

// CertificateGenerator produces certificate documents and registration QR
// codes.
type CertificateGenerator interface {
	Generate(p *model.Participant, code string) (string, error)
	GenerateQR(registrationID string) (string, error)
	PathFor(code string) string
}

type Service interface {
	Register(ctx *ginext.Context)
	UpdatePayment(ctx *ginext.Context)
	GenerateCertificate(ctx *ginext.Context)
	DownloadCertificate(ctx *ginext.Context)
	ListSessions(ctx *ginext.Context)
	RegisterForSession(ctx *ginext.Context)
	SubmitFeedback(ctx *ginext.Context)
	ListParticipants(ctx *ginext.Context)
	MarkAttendance(ctx *ginext.Context)
}

type service struct {
	repo  repo.Repository
	log   *zerolog.Logger
	rbt   Publisher
	certs CertificateGenerator
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt Publisher, certs CertificateGenerator) Service {
	return &service{
		repo:  repo,
		log:   logger,
		rbt:   rbt,
		certs: certs,
	}
}

func (s *service) publishNotification(msg dto.NotificationMessage) {
	msg.CreatedAt = time.Now()
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal notification message")
		return
	}
	if err := s.rbt.Publish(payload); err != nil {
		s.log.Error().Err(err).Str("type", msg.Type).Msg("failed to publish notification")
	}
}

func (s *service) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	memberType, err := model.ParseMemberType(req.MemberType)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		return
	}
	attendanceType, err := model.ParseAttendanceType(req.AttendanceType)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		return
	}

	participant := &model.Participant{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Phone:               req.Phone,
		Organization:        req.Organization,
		JobTitle:            req.JobTitle,
		MembershipNumber:    req.MembershipNumber,
		MemberType:          memberType,
		DietaryRequirements: req.DietaryRequirements,
		AttendanceType:      attendanceType,
		RegistrationID:      uuid.New().String(),
	}
	payment := &model.Payment{
		Amount: req.PaymentAmount,
		Method: req.PaymentMethod,
	}

	regID, err := s.repo.RegisterParticipantTx(ctx.Request.Context(), participant, payment)
	if err != nil {
		switch err {
		case repo.ErrDuplicateEmail:
			dto.EmailDuplicateError(ctx)
			return
		default:
			s.log.Error().Err(err).Msg("failed to register participant")
			dto.InternalServerError(ctx)
			return
		}
	}

	s.log.Info().Str("registration_id", regID).Msg("participant registered")

	if _, err := s.certs.GenerateQR(regID); err != nil {
		s.log.Warn().Err(err).Str("registration_id", regID).Msg("failed to generate qr code")
	}

	s.publishNotification(dto.NotificationMessage{
		Type:           dto.NotifyRegistrationCreated,
		RegistrationID: regID,
		Email:          participant.Email,
		FirstName:      participant.FirstName,
		MemberType:     string(participant.MemberType),
		AttendanceType: string(participant.AttendanceType),
	})

	dto.SuccessCreatedResponse(ctx, dto.RegisterResponse{RegistrationID: regID})
}

func (s *service) UpdatePayment(ctx *ginext.Context) {
	regID := ctx.Param("registration_id")

	var req dto.UpdatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	status, err := model.ParsePaymentStatus(req.Status)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		return
	}

	if err := s.repo.UpdatePaymentStatus(ctx.Request.Context(), regID, status, req.TransactionID); err != nil {
		dto.PaymentNotFoundError(ctx)
		return
	}

	s.log.Info().
		Str("registration_id", regID).
		Str("status", string(status)).
		Msg("payment updated")

	if status == model.PaymentCompleted {
		if participant, err := s.repo.GetParticipantByRegistrationID(ctx.Request.Context(), regID); err == nil {
			s.publishNotification(dto.NotificationMessage{
				Type:           dto.NotifyPaymentCompleted,
				RegistrationID: regID,
				Email:          participant.Email,
				FirstName:      participant.FirstName,
			})
		} else {
			s.log.Warn().Err(err).Str("registration_id", regID).Msg("failed to load participant for payment notification")
		}
	}

	dto.SuccessResponse(ctx, map[string]string{"message": "Payment updated successfully"})
}

func (s *service) GenerateCertificate(ctx *ginext.Context) {
	regID := ctx.Param("registration_id")

	participant, err := s.repo.GetParticipantByRegistrationID(ctx.Request.Context(), regID)
	if err != nil {
		dto.ParticipantNotFoundError(ctx)
		return
	}

	code := uuid.New().String()
	if _, err := s.certs.Generate(participant, code); err != nil {
		s.log.Error().Err(err).Str("registration_id", regID).Msg("failed to generate certificate document")
		dto.InternalServerError(ctx)
		return
	}

	cert := &model.Certificate{
		ParticipantID:   participant.ID,
		Code:            code,
		TemplateVersion: certgen.TemplateVersion,
	}
	if _, err := s.repo.CreateCertificate(ctx.Request.Context(), cert); err != nil {
		s.log.Error().Err(err).Str("registration_id", regID).Msg("failed to store certificate")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Str("registration_id", regID).
		Str("certificate_code", code).
		Msg("certificate issued")

	s.publishNotification(dto.NotificationMessage{
		Type:            dto.NotifyCertificateIssued,
		RegistrationID:  regID,
		Email:           participant.Email,
		FirstName:       participant.FirstName,
		CertificateCode: code,
	})

	dto.SuccessResponse(ctx, dto.CertificateResponse{CertificateCode: code})
}

func (s *service) DownloadCertificate(ctx *ginext.Context) {
	code := ctx.Param("certificate_code")

	cert, err := s.repo.TouchCertificateDownload(ctx.Request.Context(), code)
	if err != nil {
		dto.CertificateNotFoundError(ctx)
		return
	}

	s.log.Info().
		Str("certificate_code", code).
		Int("download_count", cert.DownloadCount).
		Msg("certificate downloaded")

	ctx.FileAttachment(s.certs.PathFor(code), "certificate_"+code+".pdf")
}

func (s *service) ListSessions(ctx *ginext.Context) {
	sessions, err := s.repo.ListSessions(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list sessions")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		count, err := s.repo.CountSessionRegistrations(ctx.Request.Context(), sess.ID)
		if err != nil {
			s.log.Error().Err(err).Int64("session_id", sess.ID).Msg("failed to count session registrations")
			dto.InternalServerError(ctx)
			return
		}

		resp = append(resp, dto.SessionResponse{
			ID:             sess.ID,
			Title:          sess.Title,
			Speaker:        sess.Speaker,
			Date:           sess.SessionDate.Format("2006-01-02"),
			StartTime:      sess.StartTime.Format("15:04:05"),
			EndTime:        sess.EndTime.Format("15:04:05"),
			RoomNumber:     sess.RoomNumber,
			AvailableSeats: sess.MaxCapacity - count,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) RegisterForSession(ctx *ginext.Context) {
	sessionID, err := strconv.ParseInt(ctx.Param("session_id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid session ID")
		return
	}

	var req dto.SessionRegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg := &model.SessionRegistration{
		ParticipantID: req.ParticipantID,
		SessionID:     sessionID,
	}
	if _, err := s.repo.CreateSessionRegistration(ctx.Request.Context(), reg); err != nil {
		s.log.Error().Err(err).Int64("session_id", sessionID).Msg("failed to register for session")
		dto.BadResponseError(ctx, dto.SessionRegistryInvalid, "Unknown participant or session")
		return
	}

	s.log.Info().
		Int64("session_id", sessionID).
		Int64("participant_id", req.ParticipantID).
		Msg("session registration created")

	dto.SuccessResponse(ctx, map[string]string{"message": "Successfully registered for session"})
}

func (s *service) SubmitFeedback(ctx *ginext.Context) {
	var req dto.FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	fb := &model.Feedback{
		ParticipantID: req.ParticipantID,
		SessionID:     req.SessionID,
		Rating:        req.Rating,
		Comments:      req.Comments,
	}
	if _, err := s.repo.CreateFeedback(ctx.Request.Context(), fb); err != nil {
		s.log.Error().Err(err).Msg("failed to submit feedback")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, map[string]string{"message": "Feedback submitted successfully"})
}

func (s *service) ListParticipants(ctx *ginext.Context) {
	participants, err := s.repo.ListParticipants(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list participants")
		dto.InternalServerError(ctx)
		return
	}

	if participants == nil {
		participants = []model.ParticipantSummary{}
	}
	dto.SuccessResponse(ctx, participants)
}

func (s *service) MarkAttendance(ctx *ginext.Context) {
	sessionID, err := strconv.ParseInt(ctx.Param("session_id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid session ID")
		return
	}

	var req dto.AttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if err := s.repo.MarkAttendance(ctx.Request.Context(), sessionID, req.ParticipantID, req.Attended); err != nil {
		dto.RegistrationNotFoundError(ctx)
		return
	}

	s.log.Info().
		Int64("session_id", sessionID).
		Int64("participant_id", req.ParticipantID).
		Bool("attended", req.Attended).
		Msg("attendance marked")

	dto.SuccessResponse(ctx, map[string]string{"message": "Attendance marked successfully"})
}
