package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"childminder/internal/dbs/duplicates"
	"childminder/internal/dbs/models"
	"childminder/internal/household/service"
	"childminder/pkg/domain"
	dErrors "childminder/pkg/domain-errors"
	"childminder/pkg/platform/httputil"
	"childminder/pkg/requestcontext"
)

// Service defines the household operations exposed over HTTP.
type Service interface {
	AddMember(ctx context.Context, appID domain.ApplicationID, role models.Role, dob domain.Date) (*models.Person, error)
	RemoveMember(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID) error
	SetCertificateNumber(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, number string) (duplicates.Report, error)
	RecordAnswers(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, enhancedCheck, onUpdate models.Tristate) error
	ResolveStatus(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID) (models.Status, error)
	ApplicationSummary(ctx context.Context, appID domain.ApplicationID) (service.Summary, error)
}

// Handler serves the household and DBS endpoints.
type Handler struct {
	logger    *slog.Logger
	household Service
}

func New(household Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		household: household,
	}
}

// Register registers the household routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/applications/{appID}", func(r chi.Router) {
		r.Get("/summary", h.handleSummary)
		r.Post("/members", h.handleAddMember)
		r.Route("/members/{personID}", func(r chi.Router) {
			r.Delete("/", h.handleRemoveMember)
			r.Put("/certificate", h.handleSetCertificate)
			r.Put("/answers", h.handleAnswers)
			r.Get("/dbs-status", h.handleStatus)
		})
	})
	r.Post("/dbs/duplicates", h.handleCheckDuplicates)
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddMemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.household.AddMember(ctx, appID, models.Role(req.Role), req.DateOfBirth)
	if err != nil {
		h.fail(ctx, w, "failed to add household member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toMemberResponse(p))
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, personID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}
	if err := h.household.RemoveMember(ctx, appID, personID); err != nil {
		h.fail(ctx, w, "failed to remove household member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, personID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CertificateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.household.SetCertificateNumber(ctx, appID, personID, req.CertificateNumber)
	if err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) && domainErr.Code == dErrors.CodeValidation && report.HasProblems() {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, DuplicateErrorResponse{
				Error:            httputil.DomainCodeToHTTPCode(domainErr.Code),
				ErrorDescription: domainErr.Message,
				Duplicates:       toDuplicateReport(report, nil),
			})
			return
		}
		h.fail(ctx, w, "failed to set certificate number", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDuplicateReport(report, nil))
}

func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, personID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AnswersRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.household.RecordAnswers(ctx, appID, personID, models.FromPtr(req.EnhancedCheck), models.FromPtr(req.OnUpdate)); err != nil {
		h.fail(ctx, w, "failed to record dbs answers", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, personID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}

	status, err := h.household.ResolveStatus(ctx, appID, personID)
	if err != nil {
		h.fail(ctx, w, "failed to resolve dbs status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		PersonID:               personID.String(),
		Status:                 status,
		RequiresExternalAction: status.RequiresExternalAction(),
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	summary, err := h.household.ApplicationSummary(ctx, appID)
	if err != nil {
		h.fail(ctx, w, "failed to build application summary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// handleCheckDuplicates runs the duplicate checks over a submitted form
// without touching stored state.
func (h *Handler) handleCheckDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DuplicatesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	keys, numbers := duplicates.FromFormFields(req.Fields)
	report := duplicates.Check(req.ApplicantCertificateNumber, numbers)
	httputil.WriteJSON(w, http.StatusOK, toDuplicateReport(report, keys))
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (domain.ApplicationID, bool) {
	appID, err := domain.ParseApplicationID(chi.URLParam(r, "appID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid application id"))
		return domain.ApplicationID{}, false
	}
	return appID, true
}

func (h *Handler) memberIDs(w http.ResponseWriter, r *http.Request) (domain.ApplicationID, domain.PersonID, bool) {
	appID, ok := h.applicationID(w, r)
	if !ok {
		return domain.ApplicationID{}, domain.PersonID{}, false
	}
	personID, err := domain.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return domain.ApplicationID{}, domain.PersonID{}, false
	}
	return appID, personID, true
}

// fail logs at a level matching who is at fault, then writes the error.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	status := httputil.DomainCodeToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"code", string(code),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
