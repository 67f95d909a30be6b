package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"cosmatiqa/internal/ingredient"
	applog "cosmatiqa/internal/log"
)

const maxLabelUploadSize = 5 << 20 // 5 MiB

type labelExtractionResponse struct {
	Ingredients []string `json:"ingredients"`
	RawText     string   `json:"raw_text"`
}

// ExtractLabel turns an uploaded product label (PDF or plain text) into a
// cleaned ingredient list ready to paste into a routine analysis.
func ExtractLabel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "no active session")
		return
	}

	if err := r.ParseMultipartForm(maxLabelUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Debug(r.Context(), "failed to parse label upload form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "upload is too large or invalid")
		return
	}

	rawText := strings.TrimSpace(r.FormValue("label_text"))

	fileBytes, fileType, err := readLabelUpload(r)
	if err != nil {
		applog.Error(r.Context(), "label upload read failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to read the uploaded file")
		return
	}

	if len(fileBytes) > 0 {
		extracted, err := deriveTextFromLabel(fileBytes, fileType)
		if err != nil {
			applog.Error(r.Context(), "failed to extract label text", "error", err, "mime", fileType)
			writeJSONError(w, http.StatusUnprocessableEntity, "unable to interpret the uploaded document")
			return
		}
		if rawText != "" {
			rawText += "\n"
		}
		rawText += extracted
	}

	if strings.TrimSpace(rawText) == "" {
		writeJSONError(w, http.StatusBadRequest, "provide label text or upload a document")
		return
	}

	names := ingredient.SplitList(rawText)
	if len(names) == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, "no ingredient names found on the label")
		return
	}

	writeJSON(w, http.StatusOK, labelExtractionResponse{
		Ingredients: names,
		RawText:     rawText,
	})
}

func readLabelUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("label_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", err
	}
	defer file.Close()

	if header.Size > maxLabelUploadSize {
		return nil, "", fmt.Errorf("file exceeds %d bytes", maxLabelUploadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = mimeTypeFromName(header.Filename)
	}

	return buf.Bytes(), mime, nil
}

func deriveTextFromLabel(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	case strings.HasPrefix(lower, "text/"), strings.Contains(lower, "json"), lower == "":
		return string(data), nil
	default:
		return string(data), nil
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func mimeTypeFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
