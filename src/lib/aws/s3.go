package aws

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var s3Client *s3.Client

func GetS3Client() *s3.Client {
	if s3Client != nil {
		return s3Client
	}
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil
	}
	s3Client = s3.NewFromConfig(cfg)
	return s3Client
}

// NewS3Client replaces the S3 client. Used by tests to inject a stub.
func NewS3Client(c *s3.Client) {
	s3Client = c
}

// S3UploadProof stores a proof-of-payment image and returns a presigned URL
// the admin review UI can open.
func S3UploadProof(key string, body io.Reader, contentType string) (*string, error) {
	return uploadPresigned(os.Getenv("S3_PROOFS_BUCKET"), key, body, contentType)
}

// S3UploadAsset uploads a generated file, the e-ticket QR image, from disk.
func S3UploadAsset(key string, filepath string) (*string, error) {
	f, err := os.Open(filepath)
	if err != nil {
		log.Printf("Could not open file [%s]: %s\n", filepath, err.Error())
		return nil, err
	}
	defer f.Close()
	return uploadPresigned(os.Getenv("S3_ASSETS_BUCKET"), key, f, "image/jpeg")
}

func uploadPresigned(bucket, key string, body io.Reader, contentType string) (*string, error) {
	client := GetS3Client()
	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return nil, err
	}
	err = s3.NewObjectExistsWaiter(client).Wait(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, time.Minute)
	if err != nil {
		log.Printf("Failed attempt to wait for object %s to exist: %s\n", key, err.Error())
		return nil, err
	}
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = 7 * 24 * time.Hour
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", key, err.Error())
		return nil, err
	}
	return &r.URL, nil
}
