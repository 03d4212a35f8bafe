// internal/portal/client.go
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"intern-portal/internal/common/config"
	"intern-portal/internal/common/errors"
	"intern-portal/internal/common/logger"
	"intern-portal/internal/common/session"
	"intern-portal/internal/common/validation"
)

// Client talks to the portal backend. All durable state lives there; this
// client only shapes requests, normalizes responses, and maps failures onto
// the standard error taxonomy.
type Client struct {
	baseURL       string
	session       *session.Context
	logger        logger.Logger
	httpClient    *http.Client
	uploadClient  *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
}

func NewClient(cfg config.APIConfig, sess *session.Context, log logger.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		session:       sess,
		logger:        log.WithFields(map[string]interface{}{"component": "portal-client"}),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		uploadClient:  &http.Client{Timeout: cfg.UploadTimeout},
		timeout:       cfg.Timeout,
		uploadTimeout: cfg.UploadTimeout,
	}
}

// --- Auth ---

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates against the backend and stores the issued token in the
// session context.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	payload := map[string]string{"username": username, "password": password}
	body, status, err := c.doJSON(ctx, http.MethodPost, "/auth/login/", payload, false)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.NewAuthenticationError(string(body))
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
		return nil, errors.NewMalformedResponseError("login", string(body))
	}
	if err := c.session.Set(ctx, resp.Token); err != nil {
		c.logger.Warn("token persisted in memory only", map[string]interface{}{"error": err.Error()})
	}
	return &resp.User, nil
}

// Logout invalidates the server session best-effort and always clears the
// local one.
func (c *Client) Logout(ctx context.Context) error {
	_, _, err := c.doJSON(ctx, http.MethodPost, "/auth/logout/", nil, true)
	c.session.Clear(ctx)
	return err
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, "/auth/profile/", nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("profile", status, body)
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, errors.NewMalformedResponseError("profile", err.Error())
	}
	return &user, nil
}

// --- Programs ---

func (c *Client) ListPrograms(ctx context.Context) ([]Program, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, "/programs/", nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("list programs", status, body)
	}
	programs, err := normalizeList[Program](body)
	if err != nil {
		return nil, errors.NewMalformedResponseError("list programs", err.Error())
	}
	return programs, nil
}

func (c *Client) GetProgram(ctx context.Context, id int) (*Program, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/programs/%d/", id), nil, true)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, errors.NewResourceNotFoundError("Program", fmt.Sprintf("programId: %d", id))
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("get program", status, body)
	}
	var program Program
	if err := json.Unmarshal(body, &program); err != nil {
		return nil, errors.NewMalformedResponseError("get program", err.Error())
	}
	return &program, nil
}

// --- Applications ---

// CreateApplication submits the draft's text fields as a single atomic call.
// A conflict body carrying the backend's "already applied" marker maps to
// DUPLICATE_APPLICATION so callers treat it exactly like the client-side
// duplicate check; a closed-program rejection maps to PROGRAM_CLOSED the same
// way.
func (c *Client) CreateApplication(ctx context.Context, fields ApplicationFields) (*Application, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/applications/", fields, true)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		// fall through to decode
	case status == http.StatusConflict, status == http.StatusBadRequest && errors.IsDuplicateMarker(string(body)):
		return nil, errors.NewDuplicateApplicationError(fields.Program, string(body))
	case status == http.StatusBadRequest && errors.IsProgramClosedMarker(string(body)):
		return nil, errors.NewProgramClosedError(fields.Program, string(body))
	case status == http.StatusBadRequest:
		return nil, errors.NewValidationError(string(body), parseFieldErrors(body))
	case status >= http.StatusInternalServerError:
		return nil, errors.NewApplicationCreateError(fmt.Errorf("status %d: %s", status, string(body)), true)
	default:
		return nil, c.unexpectedStatus("create application", status, body)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.NewMalformedResponseError("create application", err.Error())
	}
	if err := validation.CheckShape(validation.ApplicationSchema, decoded); err != nil {
		return nil, errors.NewMalformedResponseError("create application", err.Error())
	}

	var app Application
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, errors.NewMalformedResponseError("create application", err.Error())
	}

	c.logger.Info("application record created", map[string]interface{}{
		"applicationId": app.ID,
		"programId":     app.Program,
	})
	return &app, nil
}

// ListMyApplications returns the caller's own applications, normalized from
// either a bare list or a paginated envelope.
func (c *Client) ListMyApplications(ctx context.Context) ([]Application, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, "/applications/my_applications/", nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("list my applications", status, body)
	}
	apps, err := normalizeList[Application](body)
	if err != nil {
		return nil, errors.NewMalformedResponseError("list my applications", err.Error())
	}
	return apps, nil
}

func (c *Client) GetApplication(ctx context.Context, id int) (*Application, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/applications/%d/", id), nil, true)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, errors.NewResourceNotFoundError("Application", fmt.Sprintf("applicationId: %d", id))
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("get application", status, body)
	}
	var app Application
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, errors.NewMalformedResponseError("get application", err.Error())
	}
	return &app, nil
}

// UpdateApplication edits an application's text fields. The pending-only edit
// window is enforced server-side; a refusal surfaces as a validation error.
func (c *Client) UpdateApplication(ctx context.Context, id int, fields ApplicationFields) (*Application, error) {
	body, status, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/applications/%d/", id), fields, true)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest {
		return nil, errors.NewValidationError(string(body), parseFieldErrors(body))
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("update application", status, body)
	}
	var app Application
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, errors.NewMalformedResponseError("update application", err.Error())
	}
	return &app, nil
}

// ApproveApplication requests the approved status transition (admin only).
func (c *Client) ApproveApplication(ctx context.Context, id int) error {
	return c.reviewAction(ctx, id, "approve")
}

// RejectApplication requests the rejected status transition (admin only).
func (c *Client) RejectApplication(ctx context.Context, id int) error {
	return c.reviewAction(ctx, id, "reject")
}

func (c *Client) reviewAction(ctx context.Context, id int, action string) error {
	body, status, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/applications/%d/%s/", id, action), nil, true)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.unexpectedStatus(action+" application", status, body)
	}
	return nil
}

// --- Documents ---

func (c *Client) ListDocumentTypes(ctx context.Context) ([]DocumentType, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, "/document-types/", nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("list document types", status, body)
	}
	types, err := normalizeList[DocumentType](body)
	if err != nil {
		return nil, errors.NewMalformedResponseError("list document types", err.Error())
	}
	return types, nil
}

// UploadDocument sends a multipart payload binding one file to an application
// and its document category. Runs under the longer upload timeout.
func (c *Client) UploadDocument(ctx context.Context, applicationID, documentTypeID int, fileName string, content io.Reader) (*Document, error) {
	if !c.session.Authenticated() {
		return nil, errors.NewSessionNotInitializedError()
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("application_id", strconv.Itoa(applicationID)); err != nil {
		return nil, errors.NewDocumentUploadError(strconv.Itoa(documentTypeID), err)
	}
	if err := writer.WriteField("document_type", strconv.Itoa(documentTypeID)); err != nil {
		return nil, errors.NewDocumentUploadError(strconv.Itoa(documentTypeID), err)
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, errors.NewDocumentUploadError(strconv.Itoa(documentTypeID), err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, errors.NewDocumentUploadError(strconv.Itoa(documentTypeID), err)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewDocumentUploadError(strconv.Itoa(documentTypeID), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/", &buf)
	if err != nil {
		return nil, errors.NewDocumentUploadError(strconv.Itoa(documentTypeID), err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuthHeader(req)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("upload document", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError("upload document", err)
	}

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized:
		c.session.Clear(ctx)
		return nil, errors.NewAuthenticationError(string(body))
	case http.StatusBadRequest:
		return nil, errors.NewValidationError(extractUploadError(body), parseFieldErrors(body))
	default:
		return nil, c.unexpectedStatus("upload document", resp.StatusCode, body)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.NewMalformedResponseError("upload document", err.Error())
	}
	if err := validation.CheckShape(validation.DocumentSchema, decoded); err != nil {
		return nil, errors.NewMalformedResponseError("upload document", err.Error())
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.NewMalformedResponseError("upload document", err.Error())
	}
	return &doc, nil
}

// VerifyDocument marks a document as reviewed and valid (admin only).
func (c *Client) VerifyDocument(ctx context.Context, id int) error {
	return c.documentAction(ctx, id, "verify")
}

// UnverifyDocument reverts a verification (admin only).
func (c *Client) UnverifyDocument(ctx context.Context, id int) error {
	return c.documentAction(ctx, id, "unverify")
}

func (c *Client) documentAction(ctx context.Context, id int, action string) error {
	body, status, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/documents/%d/%s/", id, action), nil, true)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.unexpectedStatus(action+" document", status, body)
	}
	return nil
}

// --- Transport helpers ---

// doJSON executes a JSON request and returns the raw body with its status.
// A 401 clears the session before surfacing the error.
func (c *Client) doJSON(ctx context.Context, method, path string, payload interface{}, authed bool) ([]byte, int, error) {
	if authed && !c.session.Authenticated() {
		return nil, 0, errors.NewSessionNotInitializedError()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, errors.NewNetworkError(path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, errors.NewNetworkError(path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		c.setAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, classifyTransportError(method+" "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.NewNetworkError(method+" "+path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Clear(ctx)
		return nil, resp.StatusCode, errors.NewAuthenticationError(string(body))
	}

	return body, resp.StatusCode, nil
}

func (c *Client) setAuthHeader(req *http.Request) {
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
}

func (c *Client) unexpectedStatus(operation string, status int, body []byte) error {
	c.logger.Warn("unexpected status from backend", map[string]interface{}{
		"operation": operation,
		"status":    status,
	})
	if status >= http.StatusInternalServerError {
		return errors.NewNetworkError(operation, fmt.Errorf("status %d: %s", status, string(body)))
	}
	return errors.NewMalformedResponseError(operation, fmt.Sprintf("status %d: %s", status, string(body)))
}

func classifyTransportError(operation string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(operation)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewTimeoutError(operation)
	}
	return errors.NewNetworkError(operation, err)
}

// parseFieldErrors flattens a DRF-style error body ({"field": ["msg", ...]})
// into field -> first message.
func parseFieldErrors(body []byte) map[string]string {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case []interface{}:
			if len(v) > 0 {
				if msg, ok := v[0].(string); ok {
					fields[key] = msg
				}
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// extractUploadError pulls the most specific message out of an upload error
// body, checking the keys the backend is known to use.
func extractUploadError(body []byte) string {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return string(body)
	}
	for _, key := range []string{"file", "non_field_errors", "detail", "message"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			return v
		case []interface{}:
			if len(v) > 0 {
				if msg, ok := v[0].(string); ok {
					return msg
				}
			}
		}
	}
	return string(body)
}
