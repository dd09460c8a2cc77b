// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for brand
// assets and exported ad images. It wraps the AWS SDK v2 and uses path-style
// addressing so it works against MinIO, CEPH and similar services.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Config holds connection settings for the object store.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // optional CDN or direct URL prefix for stored objects
}

// Client stores objects in a single public bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// New creates a storage client. It returns (nil, nil) when the endpoint,
// credentials or bucket are empty, allowing the app to start without
// storage.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, nil
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Client{
		s3:        client,
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores an object with public-read access and returns its URL.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return c.FileURL(key), nil
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL of an object. It uses the configured public
// URL if set, otherwise a path-style endpoint URL.
func (c *Client) FileURL(key string) string {
	return FileURL(c.endpoint, c.bucket, c.publicURL, key)
}

// FileURL builds the public URL of key without a client.
func FileURL(endpoint, bucket, publicURL, key string) string {
	if publicURL != "" {
		return publicURL + "/" + key
	}
	return endpoint + "/" + bucket + "/" + key
}

// AssetKey returns the storage key for an uploaded brand asset. Assets are
// grouped by category and upload month.
func AssetKey(category string, id uuid.UUID, ext string, now time.Time) string {
	return path.Join("brand-assets", category, fmt.Sprintf("%d/%02d", now.Year(), now.Month()), id.String()+ext)
}

// ThumbKey returns the thumbnail key stored next to an asset key.
func ThumbKey(assetKey string) string {
	return strings.TrimSuffix(assetKey, path.Ext(assetKey)) + "_thumb.png"
}

// ExportKey returns the storage key for an exported gallery image. The name
// is only used to make downloads readable.
func ExportKey(id uuid.UUID, name string, now time.Time) string {
	file := id.String()
	if name != "" {
		file = name + "-" + file
	}
	return path.Join("exports", fmt.Sprintf("%d/%02d", now.Year(), now.Month()), file+".png")
}
