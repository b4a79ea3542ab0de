package bs_clients

import (
	"context"
	"fmt"
	"io"
	"time"

	"Xml2Json/common"
	h "Xml2Json/helpers"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/pkg/errors"
)

type AzClient struct{}

var AzApi *azblob.Client

func getAzApi() (*azblob.Client, error) {
	if AzApi != nil {
		return AzApi, nil
	}
	accountName := h.GetEnv("AZURE_STORAGE_ACCOUNT_NAME", "")
	accountKey := h.GetEnv("AZURE_STORAGE_ACCOUNT_KEY", "")
	connStr := h.GetEnv("AZURE_STORAGE_CONNECTION_STRING", "")

	var err error
	switch {
	case len(connStr) > 0:
		AzApi, err = azblob.NewClientFromConnectionString(connStr, nil)
	case len(accountName) > 0 && len(accountKey) > 0:
		connStr = "DefaultEndpointsProtocol=https;AccountName=" + accountName + ";AccountKey=" + accountKey + ";EndpointSuffix=core.windows.net"
		AzApi, err = azblob.NewClientFromConnectionString(connStr, nil)
	case len(accountName) > 0:
		// https://pkg.go.dev/github.com/Azure/azure-sdk-for-go/sdk/azidentity#readme-environment-variables
		h.Log("INFO", "AZURE_STORAGE_ACCOUNT_KEY is missing. Using the default Azure credential")
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, errors.Wrap(credErr, "Azure credential error")
		}
		AzApi, err = azblob.NewClient("https://"+accountName+".blob.core.windows.net/", cred, nil)
	default:
		return nil, errors.New("missing AZURE_STORAGE_CONNECTION_STRING or AZURE_STORAGE_ACCOUNT_NAME")
	}
	if err != nil {
		AzApi = nil
		return nil, errors.Wrap(err, "Azure configuration error")
	}
	return AzApi, nil
}

func containerAndBlob(uri string) (string, string, error) {
	container, blob := GetContainerAndKey(uri)
	if len(container) == 0 || len(blob) == 0 {
		return "", "", errors.Errorf("no container or blob name in %s", uri)
	}
	return container, blob, nil
}

func (a *AzClient) OpenPath(uri string) (io.ReadCloser, error) {
	container, blob, err := containerAndBlob(uri)
	if err != nil {
		return nil, err
	}
	api, err := getAzApi()
	if err != nil {
		return nil, err
	}
	resp, err := api.DownloadStream(context.TODO(), container, blob, nil)
	if err != nil {
		h.Log("DEBUG", fmt.Sprintf("DownloadStream for %s failed with %s.", uri, err.Error()))
		return nil, errors.Wrapf(err, "failed to download %s", uri)
	}
	return resp.Body, nil
}

func (a *AzClient) WriteToPath(uri string, data []byte) error {
	if common.Debug {
		defer h.Elapsed(time.Now().UnixMilli(), "Wrote "+uri, 0)
	} else {
		defer h.Elapsed(time.Now().UnixMilli(), "Slow file write for blob:"+uri, common.SlowMS*2)
	}
	container, blob, err := containerAndBlob(uri)
	if err != nil {
		return err
	}
	api, err := getAzApi()
	if err != nil {
		return err
	}
	if _, err := api.UploadBuffer(context.TODO(), container, blob, data, nil); err != nil {
		return errors.Wrapf(err, "failed to upload %s", uri)
	}
	return nil
}
