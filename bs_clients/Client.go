package bs_clients

import (
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

// Client : Like an OOP interface. Paths are local paths or URIs like s3://bucket/key, az://container/blob
type Client interface {
	OpenPath(string) (io.ReadCloser, error)
	WriteToPath(string, []byte) error
}

func GetSchema(uri string) string {
	if strings.HasPrefix(uri, string(filepath.Separator)) || !strings.Contains(uri, "://") {
		return "file"
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "" // Return empty string if parsing fails
	}
	return u.Scheme
}

// GetContainerAndKey returns the Container/Bucket and the object key of the URI.
func GetContainerAndKey(uri string) (string, string) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", ""
	}
	return u.Host, strings.TrimPrefix(u.Path, "/")
}

func GetClient(uri string) Client {
	switch GetSchema(uri) {
	case "s3":
		return &S3Client{}
	case "az":
		return &AzClient{}
	}
	// Default is FileClient
	return &FileClient{}
}
