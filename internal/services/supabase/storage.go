package supabase

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/apperr"
)

// AvatarBucket is the storage bucket holding profile pictures
const AvatarBucket = "profile-pictures"

// UploadAvatar stores a profile picture and returns its public URL. The
// object is named <userID>-<unix>.<ext> after the uploaded file's extension.
func (c *Client) UploadAvatar(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.New(apperr.KindValidation, "storage.upload", fmt.Errorf("empty image %q", filename))
	}

	objectPath := AvatarObjectName(userID, filename, c.now().Unix())
	err := c.doRequest(ctx, request{
		op:          "storage.upload",
		method:      http.MethodPost,
		path:        "/storage/v1/object/" + AvatarBucket + "/" + objectPath,
		raw:         bytes.NewReader(data),
		contentType: imageContentType(filename),
		headers:     map[string]string{"Cache-Control": "max-age=3600"},
	}, nil)
	if err != nil {
		return "", err
	}

	c.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"object":  objectPath,
		"bytes":   len(data),
	}).Info("Uploaded profile picture")

	return c.PublicURL(objectPath), nil
}

// PublicURL returns the public URL of an avatar object
func (c *Client) PublicURL(objectPath string) string {
	return c.baseURL + "/storage/v1/object/public/" + AvatarBucket + "/" + objectPath
}

// AvatarObjectName builds the object name of an uploaded profile picture
func AvatarObjectName(userID, filename string, unix int64) string {
	return fmt.Sprintf("%s-%d.%s", userID, unix, imageExt(filename))
}

func imageExt(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || ext == "jpeg" {
		return "jpg"
	}
	return ext
}

func imageContentType(filename string) string {
	if ext := imageExt(filename); ext != "jpg" {
		return "image/" + ext
	}
	return "image/jpeg"
}
