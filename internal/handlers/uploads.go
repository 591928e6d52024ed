package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"turfbook/backend/internal/config"
	"turfbook/backend/internal/firebase"
	"turfbook/backend/internal/httpjson"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Uploads hands out short-lived signed PUT URLs for turf photos. The client
// uploads directly to the bucket and then attaches the returned photo ids to
// the turf listing.
type Uploads struct {
	cfg     config.Config
	clients *firebase.Clients
	iam     *credentials.IamCredentialsClient
}

func NewUploads(cfg config.Config, clients *firebase.Clients) *Uploads {
	// IAM client is optional; only needed for signed URLs.
	iamClient, _ := credentials.NewIamCredentialsClient(context.Background())
	return &Uploads{cfg: cfg, clients: clients, iam: iamClient}
}

type photoUploadReq struct {
	TurfID         string `json:"turfId"`
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType,omitempty"`
	ExpiresSeconds int64  `json:"expiresSeconds,omitempty"` // default 900
}

type photoUploadResp struct {
	PhotoID   string `json:"photoId"`
	URL       string `json:"url"`
	Method    string `json:"method"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (h *Uploads) CreatePhotoUploadURL(w http.ResponseWriter, r *http.Request) {
	var req photoUploadReq
	if err := httpjson.Read(r, &req); err != nil || req.TurfID == "" {
		httpjson.Error(w, http.StatusBadRequest, "turfId is required")
		return
	}

	photoID := uuid.NewString()
	if ext := path.Ext(req.FileName); ext != "" && len(ext) <= 8 {
		photoID += strings.ToLower(ext)
	}
	objectPath := path.Join(h.cfg.TurfImagesPrefix, req.TurfID, photoID)

	url, exp, err := h.signedURL(r.Context(), objectPath, req.ContentType, req.ExpiresSeconds)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, photoUploadResp{
		PhotoID:   photoID,
		URL:       url,
		Method:    "PUT",
		ExpiresAt: exp.Unix(),
	})
}

type photoUploadsReq struct {
	Items []photoUploadReq `json:"items"`
}

func (h *Uploads) CreatePhotoUploadURLs(w http.ResponseWriter, r *http.Request) {
	var req photoUploadsReq
	if err := httpjson.Read(r, &req); err != nil || len(req.Items) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "items is required")
		return
	}
	out := make([]photoUploadResp, 0, len(req.Items))
	for _, it := range req.Items {
		if it.TurfID == "" {
			continue
		}
		photoID := uuid.NewString()
		if ext := path.Ext(it.FileName); ext != "" && len(ext) <= 8 {
			photoID += strings.ToLower(ext)
		}
		objectPath := path.Join(h.cfg.TurfImagesPrefix, it.TurfID, photoID)

		url, exp, err := h.signedURL(r.Context(), objectPath, it.ContentType, it.ExpiresSeconds)
		if err != nil {
			// return partial success info (keep it simple)
			out = append(out, photoUploadResp{PhotoID: "", URL: "", Method: "PUT", ExpiresAt: 0})
			continue
		}
		out = append(out, photoUploadResp{PhotoID: photoID, URL: url, Method: "PUT", ExpiresAt: exp.Unix()})
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"items": out})
}

// PhotoViewURL resolves a stored photo id to a public media link so listings
// can render images without another signing round-trip.
func (h *Uploads) PhotoViewURL(w http.ResponseWriter, r *http.Request) {
	turfID := r.URL.Query().Get("turfId")
	photoID := r.URL.Query().Get("photoId")
	if turfID == "" || photoID == "" {
		httpjson.Error(w, http.StatusBadRequest, "turfId and photoId are required")
		return
	}
	objectPath := path.Join(h.cfg.TurfImagesPrefix, turfID, photoID)
	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", h.cfg.StorageBucket, objectPath)
	httpjson.Write(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Uploads) signedURL(ctx context.Context, objectPath, contentType string, expiresSeconds int64) (string, time.Time, error) {
	if h.cfg.StorageBucket == "" {
		return "", time.Time{}, fmt.Errorf("FIREBASE_STORAGE_BUCKET is not set")
	}
	if h.cfg.SignedURLServiceAccountEmail == "" {
		return "", time.Time{}, fmt.Errorf("SIGNED_URL_SERVICE_ACCOUNT_EMAIL is not set")
	}
	if h.iam == nil {
		return "", time.Time{}, fmt.Errorf("IAM credentials client not available")
	}
	if expiresSeconds <= 0 || expiresSeconds > 3600 {
		expiresSeconds = 900
	}
	exp := time.Now().Add(time.Duration(expiresSeconds) * time.Second)

	// V4 signed URL for PUT (upload).
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		Expires:        exp,
		ContentType:    contentType,
		GoogleAccessID: h.cfg.SignedURLServiceAccountEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			name := fmt.Sprintf("projects/-/serviceAccounts/%s", h.cfg.SignedURLServiceAccountEmail)
			resp, err := h.iam.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    name,
				Payload: b,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}

	// Some clients like to know the expected Content-Type; if blank, omit to allow any.
	if opts.ContentType == "" {
		opts.ContentType = "application/octet-stream"
	}

	url, err := storage.SignedURL(h.cfg.StorageBucket, objectPath, opts)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign url (check service account + permissions): %v", err)
	}

	return url, exp, nil
}
