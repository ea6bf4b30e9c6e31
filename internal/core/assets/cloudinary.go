package assets

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultCloudinaryAPI is the Cloudinary upload API base.
const DefaultCloudinaryAPI = "https://api.cloudinary.com/v1_1"

// CloudinaryUploader performs unsigned uploads with an upload preset.
type CloudinaryUploader struct {
	rest      *resty.Client
	cloudName string
	preset    string
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewCloudinaryUploader creates an uploader for cloudName using the unsigned
// upload preset. apiBase may be empty to use DefaultCloudinaryAPI.
func NewCloudinaryUploader(apiBase, cloudName, preset string) (*CloudinaryUploader, error) {
	if cloudName == "" || preset == "" {
		return nil, fmt.Errorf("cloudinary cloud name and upload preset are required")
	}
	if apiBase == "" {
		apiBase = DefaultCloudinaryAPI
	}
	return &CloudinaryUploader{
		rest:      resty.New().SetBaseURL(apiBase).SetTimeout(60 * time.Second),
		cloudName: cloudName,
		preset:    preset,
	}, nil
}

// Upload sends data as a multipart form and returns the asset's secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	var result cloudinaryResponse
	resp, err := u.rest.R().
		SetContext(ctx).
		SetMultipartField("file", filename, contentType, bytes.NewReader(data)).
		SetFormData(map[string]string{"upload_preset": u.preset}).
		SetResult(&result).
		SetError(&result).
		Post("/" + u.cloudName + "/image/upload")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, msg)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("%w: response carried no secure_url", ErrUploadFailed)
	}
	return result.SecureURL, nil
}
