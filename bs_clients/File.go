package bs_clients

import (
	"io"
	"os"
	"strings"
	"time"

	"Xml2Json/common"
	h "Xml2Json/helpers"
)

type FileClient struct{}

// OpenPath returns the os error as it is, so that os.IsNotExist works.
func (c *FileClient) OpenPath(path string) (io.ReadCloser, error) {
	return os.Open(localPath(path))
}

func (c *FileClient) WriteToPath(path string, data []byte) error {
	if common.Debug {
		defer h.Elapsed(time.Now().UnixMilli(), "Wrote "+path, 0)
	} else {
		defer h.Elapsed(time.Now().UnixMilli(), "Slow file write for path:"+path, common.SlowMS)
	}
	f, err := os.OpenFile(localPath(path), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	return err
}

func localPath(path string) string {
	return strings.TrimPrefix(path, "file://")
}
