package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	tokenPath     = "/api/auth/token/"
	registerPath  = "/api/auth/register/"
	summarizePath = "/api/summarize/"
	summariesPath = "/api/summaries/"

	// FileField is the multipart field carrying the uploaded file.
	FileField = "file"
)

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type summaryResponse struct {
	Summary *string `json:"summary"`
}

// ObtainToken exchanges a username and password for an access/refresh token pair.
func (a *APIService) ObtainToken(ctx context.Context, username, password string) (*oauth2.Token, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	resp, err := a.Post(ctx, tokenPath, body, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError(resp)
	}

	var pair tokenResponse
	if err := decode(resp, &pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("%w: response has no access token", shared.ErrDecode)
	}

	return &oauth2.Token{AccessToken: pair.Access, RefreshToken: pair.Refresh, TokenType: "Bearer"}, nil
}

// Register creates an account. The response body is not used; the caller still has to log in.
func (a *APIService) Register(ctx context.Context, username, email, password string) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode registration: %w", err)
	}

	resp, err := a.Post(ctx, registerPath, body, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newAPIError(resp)
	}
	return nil
}

// Summarize uploads content as a single multipart file field and returns the generated summary.
func (a *APIService) Summarize(ctx context.Context, src oauth2.TokenSource, fileName string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(FileField, fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	resp, err := a.do(ctx, "POST", summarizePath, &buf, mw.FormDataContentType(), src)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", newAPIError(resp)
	}

	var out summaryResponse
	if err := decode(resp, &out); err != nil {
		return "", err
	}
	if out.Summary == nil {
		return "", fmt.Errorf("%w: response has no summary", shared.ErrDecode)
	}
	return *out.Summary, nil
}

// ListSummaries fetches every stored summary in the order the service returns them.
func (a *APIService) ListSummaries(ctx context.Context, src oauth2.TokenSource) ([]models.SummaryRecord, error) {
	resp, err := a.Get(ctx, summariesPath, src)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError(resp)
	}

	var records []models.SummaryRecord
	if err := decode(resp, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.SummaryRecord{}
	}
	return records, nil
}
