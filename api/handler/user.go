package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edustack/authuser/api/transport"
	"github.com/edustack/authuser/domain"
	"github.com/edustack/authuser/pkg/httpcontext"
	"github.com/edustack/authuser/repository"
	userUC "github.com/edustack/authuser/usecase/user"
)

type UserHandler struct {
	baseHandler
	svc *userUC.Service
}

func NewUserHandler(svc *userUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		svc:         svc,
	}
}

// List handles GET /users with field filters, an optional courseId and
// pagination parameters.
func (h *UserHandler) List(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	spec := repository.NewSpecification().
		WithField(repository.FieldUsername, string(args.Peek("username"))).
		WithField(repository.FieldEmail, string(args.Peek("email"))).
		WithField(repository.FieldFullName, string(args.Peek("fullName"))).
		WithField(repository.FieldCPF, string(args.Peek("cpf"))).
		WithField(repository.FieldStatus, string(args.Peek("userStatus"))).
		WithField(repository.FieldRole, string(args.Peek("userType")))

	var courseID *uuid.UUID
	if raw := string(args.Peek("courseId")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid courseId", nil))
			return
		}
		courseID = &parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.svc.List(stdCtx, spec, courseID, parsePageRequest(args))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(page.Content, transport.PageMeta{
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}))
}

// Get handles GET /users/{userId}.
func (h *UserHandler) Get(ctx *fasthttp.RequestCtx) {
	userID, ok := h.pathUserID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.svc.Get(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// Register handles POST /users.
func (h *UserHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "username, email and password are required", nil))
		return
	}

	user := &domain.User{
		Username:    req.Username,
		Email:       req.Email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		CPF:         req.CPF,
		Password:    req.Password,
		ImageURL:    req.ImageURL,
		Status:      domain.StatusActive,
		Role:        domain.RoleStudent,
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.svc.Register(stdCtx, user)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// Delete handles DELETE /users/{userId}.
func (h *UserHandler) Delete(ctx *fasthttp.RequestCtx) {
	userID, ok := h.pathUserID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.svc.Delete(stdCtx, userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, "user deleted successfully")
}

// UpdateProfile handles PUT /users/{userId}.
func (h *UserHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := h.pathUserID(ctx)
	if !ok {
		return
	}

	var req transport.ProfileUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.svc.UpdateProfile(stdCtx, userID, req.FullName, req.PhoneNumber, req.CPF)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// UpdatePassword handles PUT /users/{userId}/password.
func (h *UserHandler) UpdatePassword(ctx *fasthttp.RequestCtx) {
	userID, ok := h.pathUserID(ctx)
	if !ok {
		return
	}

	var req transport.PasswordUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	if req.OldPassword == "" || req.Password == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "oldPassword and password are required", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.svc.ChangePassword(stdCtx, userID, req.OldPassword, req.Password); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, "password updated successfully")
}

// UpdateImage handles PUT /users/{userId}/image.
func (h *UserHandler) UpdateImage(ctx *fasthttp.RequestCtx) {
	userID, ok := h.pathUserID(ctx)
	if !ok {
		return
	}

	var req transport.ImageUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.ImageURL == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "imageUrl is required", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.svc.UpdateImage(stdCtx, userID, req.ImageURL)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

func (h *UserHandler) pathUserID(ctx *fasthttp.RequestCtx) (uuid.UUID, bool) {
	raw, _ := ctx.UserValue("userId").(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid user id", nil))
		return uuid.Nil, false
	}
	return userID, true
}

func parsePageRequest(args *fasthttp.Args) repository.PageRequest {
	page := repository.DefaultPageRequest()

	if raw := string(args.Peek("page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page.Page = parsed
		}
	}
	if raw := string(args.Peek("size")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page.Size = parsed
		}
	}
	if raw := string(args.Peek("sort")); raw != "" {
		parts := strings.SplitN(raw, ",", 2)
		page.SortBy = parts[0]
		if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
			page.Direction = repository.SortDesc
		}
	}

	return page.Normalize()
}
