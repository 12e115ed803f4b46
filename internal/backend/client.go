// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"drivecash/internal/common/config"
	"drivecash/internal/common/errors"
	"drivecash/internal/common/httpclient"
	"drivecash/internal/common/logger"
	"drivecash/internal/models"
)

// Application is the loan service's view of an application.
type Application struct {
	ID            string                 `json:"id"`
	ApplicationID string                 `json:"application_id"`
	Status        string                 `json:"status"`
	IsDraft       bool                   `json:"is_draft"`
	Fields        map[string]interface{} `json:"-"`
}

// UnmarshalJSON keeps the full field set around so callers can read
// backend-only attributes like approved_amount without a schema change.
func (a *Application) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	a.Fields = fields
	if v, ok := fields["id"]; ok {
		a.ID = idString(v)
	}
	if v, ok := fields["application_id"].(string); ok {
		a.ApplicationID = v
	}
	if v, ok := fields["status"].(string); ok {
		a.Status = v
	}
	if v, ok := fields["is_draft"].(bool); ok {
		a.IsDraft = v
	}
	return nil
}

// idString tolerates numeric ids from the loan service.
func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	return ""
}

// Client talks to the loan service's REST API.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *httpclient.Client
	logger     logger.Logger
}

func NewClient(cfg config.BackendConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		authToken:  cfg.AuthToken,
		httpClient: httpclient.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		logger:     log.WithFields(map[string]interface{}{"component": "backend"}),
	}
}

// Create registers a new application and returns its backend id.
func (c *Client) Create(ctx context.Context, loan *models.LoanDraft) (string, error) {
	app, err := c.doJSON(ctx, http.MethodPost, "/loans/applications/", TransformLoan(loan))
	if err != nil {
		return "", err
	}
	backendID := app.ID
	if backendID == "" {
		backendID = app.ApplicationID
	}
	if backendID == "" {
		return "", errors.NewBackendResponseError("create", http.StatusOK, "response carried no id")
	}
	return backendID, nil
}

// Update patches an existing application with the draft's current state.
func (c *Client) Update(ctx context.Context, backendID string, loan *models.LoanDraft, extra map[string]interface{}) error {
	payload := TransformLoan(loan)
	for k, v := range extra {
		payload[k] = v
	}
	_, err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/loans/applications/%s/", backendID), payload)
	return err
}

func (c *Client) Get(ctx context.Context, backendID string) (*Application, error) {
	return c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/loans/applications/%s/", backendID), nil)
}

// Status polls just the application's lifecycle state, the lightweight
// endpoint the step screens hit on activation.
func (c *Client) Status(ctx context.Context, backendID string) (string, error) {
	app, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/loans/applications/%s/status/", backendID), nil)
	if err != nil {
		return "", err
	}
	return app.Status, nil
}

// Delete removes a draft application from the loan service.
func (c *Client) Delete(ctx context.Context, backendID string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/loans/applications/%s/", backendID), nil)
	return err
}

// Submit finalizes an application. The loan service keys submission on
// the backend application id, not the draft id.
func (c *Client) Submit(ctx context.Context, backendID string) (*Application, error) {
	return c.doJSON(ctx, http.MethodPost, "/loans/applications/submit/", map[string]interface{}{
		"application_id": backendID,
	})
}

func (c *Client) Withdraw(ctx context.Context, backendID string) (*Application, error) {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/loans/applications/%s/withdraw/", backendID), nil)
}

// ApplicationList is the my_applications envelope: the caller's
// applications plus the dashboard summary counts.
type ApplicationList struct {
	Count        int                    `json:"count"`
	Applications []*Application         `json:"applications"`
	Summary      map[string]interface{} `json:"summary"`
}

// MyApplications lists the caller's applications for the dashboard view.
func (c *Client) MyApplications(ctx context.Context) (*ApplicationList, error) {
	body, err := c.do(ctx, http.MethodGet, "/loans/applications/my_applications/", nil, "")
	if err != nil {
		return nil, err
	}
	var list ApplicationList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, errors.NewBackendResponseError("my_applications", http.StatusOK, string(body))
	}
	return &list, nil
}

// Approve marks an application approved with the reviewed amount.
func (c *Client) Approve(ctx context.Context, backendID string, approvedAmount float64, notes string) (*Application, error) {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/loans/applications/%s/approve/", backendID), map[string]interface{}{
		"approved_amount": approvedAmount,
		"approval_notes":  notes,
	})
}

func (c *Client) Reject(ctx context.Context, backendID string, notes string) (*Application, error) {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/loans/applications/%s/reject/", backendID), map[string]interface{}{
		"notes": notes,
	})
}

// RaiseQuery puts an application into the query state pending applicant input.
func (c *Client) RaiseQuery(ctx context.Context, backendID string, notes string) (*Application, error) {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/loans/applications/%s/raise_query/", backendID), map[string]interface{}{
		"notes": notes,
	})
}

func (c *Client) ResolveQuery(ctx context.Context, backendID string) (*Application, error) {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/loans/applications/%s/resolve_query/", backendID), nil)
}

// UploadDocument streams one attachment as multipart form data.
func (c *Client) UploadDocument(ctx context.Context, backendID string, upload models.Upload) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return errors.NewDocumentUploadFailedError(upload.Filename, err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return errors.NewDocumentUploadFailedError(upload.Filename, err)
	}
	fieldName := upload.Field
	if fieldName == "" {
		fieldName = string(upload.Kind)
	}
	if fieldName == "" {
		fieldName = string(models.UploadKindOther)
	}
	if err := writer.WriteField("field_name", fieldName); err != nil {
		return errors.NewDocumentUploadFailedError(upload.Filename, err)
	}
	if err := writer.WriteField("document_type", fieldName); err != nil {
		return errors.NewDocumentUploadFailedError(upload.Filename, err)
	}
	if err := writer.WriteField("title", upload.Filename); err != nil {
		return errors.NewDocumentUploadFailedError(upload.Filename, err)
	}
	if err := writer.Close(); err != nil {
		return errors.NewDocumentUploadFailedError(upload.Filename, err)
	}

	path := fmt.Sprintf("/loans/applications/%s/upload_document/", backendID)
	if _, err := c.do(ctx, http.MethodPost, path, &buf, writer.FormDataContentType()); err != nil {
		return errors.NewDocumentUploadFailedError(upload.Filename, err)
	}
	return nil
}

// doJSON issues a request with a JSON body and decodes an Application
// from the response.
func (c *Client) doJSON(ctx context.Context, method, path string, payload map[string]interface{}) (*Application, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewBackendRequestFailedError(path, err)
		}
		body = bytes.NewReader(data)
	}

	respBody, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return nil, err
	}
	if len(respBody) == 0 {
		return &Application{}, nil
	}

	var app Application
	if err := json.Unmarshal(respBody, &app); err != nil {
		return nil, errors.NewBackendResponseError(path, http.StatusOK, string(respBody))
	}
	return &app, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.NewBackendRequestFailedError(path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, errors.NewBackendRequestFailedError(path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewBackendRequestFailedError(path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend returned error status", map[string]interface{}{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		})
		return nil, errors.NewBackendResponseError(path, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
