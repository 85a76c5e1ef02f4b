package openai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

type fileObject struct {
	ID string `json:"id"`
}

type vectorStore struct {
	ID string `json:"id"`
}

type vectorStoreFile struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type searchRequest struct {
	Query         string `json:"query"`
	MaxNumResults int    `json:"max_num_results"`
}

type searchResponse struct {
	Data []searchHit `json:"data"`
}

type searchHit struct {
	FileID     string         `json:"file_id"`
	Filename   string         `json:"filename"`
	Score      float64        `json:"score"`
	Attributes map[string]any `json:"attributes"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// locator maps the optional "page" and "section" file attributes.
func (h searchHit) locator() domain.Locator {
	var loc domain.Locator
	switch page := h.Attributes["page"].(type) {
	case float64:
		loc.Page = int(page)
	case string:
		loc.Page, _ = strconv.Atoi(page)
	}
	if section, ok := h.Attributes["section"].(string); ok {
		loc.Section = section
	}
	return loc
}

// uploadFile sends content to POST /files with the assistants purpose.
func (i *Index) uploadFile(ctx context.Context, name string, content []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write purpose: %w", err)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var file fileObject
	if err := i.api.Do(ctx, http.MethodPost, "/files", w.FormDataContentType(), &body, &file); err != nil {
		return "", err
	}
	return file.ID, nil
}

// createVectorStore creates an empty vector store.
func (i *Index) createVectorStore(ctx context.Context, name string) (string, error) {
	var vs vectorStore
	if err := i.api.JSON(ctx, http.MethodPost, "/vector_stores", map[string]string{"name": name}, &vs); err != nil {
		return "", err
	}
	return vs.ID, nil
}

// attachFile adds an uploaded file to a vector store.
func (i *Index) attachFile(ctx context.Context, storeID, fileID string) (*vectorStoreFile, error) {
	var f vectorStoreFile
	if err := i.api.JSON(ctx, http.MethodPost, "/vector_stores/"+storeID+"/files", map[string]string{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// fileStatus fetches the processing status of a vector store file.
func (i *Index) fileStatus(ctx context.Context, storeID, fileID string) (*vectorStoreFile, error) {
	var f vectorStoreFile
	if err := i.api.JSON(ctx, http.MethodGet, "/vector_stores/"+storeID+"/files/"+fileID, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// searchStore runs a semantic search against a vector store.
func (i *Index) searchStore(ctx context.Context, storeID, query string, topK int) (*searchResponse, error) {
	var resp searchResponse
	req := searchRequest{Query: query, MaxNumResults: topK}
	if err := i.api.JSON(ctx, http.MethodPost, "/vector_stores/"+storeID+"/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// deleteVectorStore removes a vector store. Uploaded files are removed separately.
func (i *Index) deleteVectorStore(ctx context.Context, storeID string) error {
	return i.api.JSON(ctx, http.MethodDelete, "/vector_stores/"+storeID, nil, nil)
}

// deleteFile removes an uploaded file.
func (i *Index) deleteFile(ctx context.Context, fileID string) error {
	return i.api.JSON(ctx, http.MethodDelete, "/files/"+fileID, nil, nil)
}
