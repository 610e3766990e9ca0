package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/go-resty/resty/v2"
)

// UploadResult is the (URL, file ID) pair the platform returns for an
// uploaded file. Both values are opaque tokens; nothing in this module parses
// them for internal structure.
type UploadResult struct {
	URL    string
	FileID int64
}

// uploadSignature is the storage-upload grant issued by the platform. The
// grant points at the object store host and carries the policy fields the
// store expects verbatim.
type uploadSignature struct {
	AccessID  string `json:"accessid"`
	Policy    string `json:"policy"`
	Signature string `json:"signature"`
	Dir       string `json:"dir"`
	Host      string `json:"host"`
}

// UploadFile streams the given content to the platform's object store and
// registers it with the backend, returning the resulting stable URL and file
// ID. The server assigns a fresh ID per call even for identical content.
//
// Uploads are writes and are never retried; a network failure surfaces
// immediately. A size rejection maps to [shared.ErrFileTooLarge] and a type
// rejection to [shared.ErrUnsupportedFileType].
func (s *Session) UploadFile(ctx context.Context, content io.Reader, fileName, mimeType string) (*UploadResult, error) {
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name required", shared.ErrInvalidArgument)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	sig, err := s.requestUploadGrant(ctx, fileName)
	if err != nil {
		return nil, err
	}

	if err := s.storeObject(ctx, sig, content, fileName, mimeType); err != nil {
		return nil, err
	}

	fileID, err := s.registerFile(ctx, sig, fileName, mimeType)
	if err != nil {
		return nil, err
	}

	return &UploadResult{URL: sig.Host + sig.Dir, FileID: fileID}, nil
}

// UploadFileByPath streams a local file to the platform, inferring the MIME
// type from the file extension when mimeType is empty.
func (s *Session) UploadFileByPath(ctx context.Context, path, mimeType string) (*UploadResult, error) {
	if mimeType == "" {
		mimeType = InferMIMEType(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return s.UploadFile(ctx, f, filepath.Base(path), mimeType)
}

// InferMIMEType guesses a MIME type from the file extension, defaulting to
// application/octet-stream.
func InferMIMEType(path string) string {
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		return "application/octet-stream"
	}
	// Strip parameters like "; charset=utf-8".
	if i := strings.Index(mt, ";"); i > 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// requestUploadGrant asks the backend for an object-store upload grant.
func (s *Session) requestUploadGrant(ctx context.Context, fileName string) (*uploadSignature, error) {
	data, err := s.getJSON(ctx, "file", map[string]string{
		"path":   fileName,
		"method": "post",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request upload grant: %w", err)
	}

	var grant struct {
		Signature *uploadSignature `json:"signature"`
	}
	if err := json.Unmarshal(data, &grant); err != nil || grant.Signature == nil {
		return nil, fmt.Errorf("%w: upload grant missing signature", shared.ErrProtocolChanged)
	}
	if grant.Signature.Host == "" || grant.Signature.Dir == "" {
		return nil, fmt.Errorf("%w: upload grant incomplete", shared.ErrProtocolChanged)
	}

	return grant.Signature, nil
}

// storeObject posts the content to the object store as a streamed multipart
// body. The multipart payload is produced through a pipe so the file is never
// buffered in memory whole; the file part comes last, as the store requires.
func (s *Session) storeObject(ctx context.Context, sig *uploadSignature, content io.Reader, fileName, mimeType string) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeObjectForm(mw, sig, content, fileName, mimeType)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sig.Host, pr)
	if err != nil {
		return fmt.Errorf("failed to create store request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.GetClient().Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return uploadError(resp.StatusCode)
}

func writeObjectForm(mw *multipart.Writer, sig *uploadSignature, content io.Reader, fileName, mimeType string) error {
	fields := [][2]string{
		{"key", sig.Dir},
		{"success_action_status", "200"},
		{"policy", sig.Policy},
		{"OSSAccessKeyId", sig.AccessID},
		{"Signature", sig.Signature},
	}
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", field[0], err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to stream file content: %w", err)
	}
	return nil
}

// registerFile records the stored object with the backend and returns the
// platform file ID.
func (s *Session) registerFile(ctx context.Context, sig *uploadSignature, fileName, mimeType string) (int64, error) {
	data, err := s.sendJSON(ctx, http.MethodPost, "file", func(req *resty.Request) {
		req.SetFormData(map[string]string{
			"mime": mimeType,
			"name": fileName,
			"path": sig.Dir,
		})
	})
	if err != nil {
		if mapped := uploadErrorFromRemote(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("failed to register file: %w", err)
	}

	var file struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &file); err != nil || file.ID == 0 {
		return 0, fmt.Errorf("%w: file registration returned no id", shared.ErrProtocolChanged)
	}

	return file.ID, nil
}

// uploadError maps an object-store status code to the upload taxonomy.
func uploadError(status int) error {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusRequestEntityTooLarge:
		return shared.ErrFileTooLarge
	case status == http.StatusUnsupportedMediaType:
		return shared.ErrUnsupportedFileType
	default:
		return &RemoteError{Status: status}
	}
}

// uploadErrorFromRemote converts a [*RemoteError] from the registration leg
// into the upload taxonomy when the status calls for it.
func uploadErrorFromRemote(err error) error {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return nil
	}
	switch remoteErr.Status {
	case http.StatusRequestEntityTooLarge:
		return shared.ErrFileTooLarge
	case http.StatusUnsupportedMediaType:
		return shared.ErrUnsupportedFileType
	}
	return nil
}
