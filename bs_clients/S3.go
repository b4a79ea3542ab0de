package bs_clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"Xml2Json/common"
	h "Xml2Json/helpers"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

type S3Client struct{}

var S3Api *s3.Client

var contentTypes = map[string]string{
	".json": "application/json; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".yaml": "application/yaml; charset=utf-8",
	".yml":  "application/yaml; charset=utf-8",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":  "application/xml",
}

func getS3Api() (*s3.Client, error) {
	if S3Api != nil {
		return S3Api, nil
	}
	var cfg aws.Config
	var err error
	if common.Debug {
		// https://aws.github.io/aws-sdk-go-v2/docs/configuring-sdk/logging/
		cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithClientLogMode(aws.LogRetries|aws.LogRequest))
	} else {
		cfg, err = config.LoadDefaultConfig(context.TODO())
	}
	if err != nil {
		return nil, errors.Wrap(err, "AWS configuration error")
	}
	S3Api = s3.NewFromConfig(cfg)
	return S3Api, nil
}

func bucketAndKey(uri string) (string, string, error) {
	bucket, key := GetContainerAndKey(uri)
	if len(bucket) == 0 || len(key) == 0 {
		return "", "", errors.Errorf("no bucket or key in %s", uri)
	}
	return bucket, key, nil
}

func (s *S3Client) OpenPath(uri string) (io.ReadCloser, error) {
	bucket, key, err := bucketAndKey(uri)
	if err != nil {
		return nil, err
	}
	api, err := getS3Api()
	if err != nil {
		return nil, err
	}
	obj, err := api.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		h.Log("DEBUG", fmt.Sprintf("GetObject for %s failed with %s.", uri, err.Error()))
		return nil, errors.Wrapf(err, "failed to get %s", uri)
	}
	return obj.Body, nil
}

func (s *S3Client) WriteToPath(uri string, data []byte) error {
	if common.Debug {
		defer h.Elapsed(time.Now().UnixMilli(), "Wrote "+uri, 0)
	} else {
		// As S3, using *2
		defer h.Elapsed(time.Now().UnixMilli(), "Slow file write for key:"+uri, common.SlowMS*2)
	}
	bucket, key, err := bucketAndKey(uri)
	if err != nil {
		return err
	}
	api, err := getS3Api()
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		input.ContentType = aws.String(ct)
	}
	resp, err := api.PutObject(context.TODO(), input)
	if err != nil {
		h.Log("DEBUG", fmt.Sprintf("Key: %s. Resp: %v", key, resp))
		return errors.Wrapf(err, "failed to put %s", uri)
	}
	return nil
}
