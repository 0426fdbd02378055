// Package s3 publishes readiness reports to S3-compatible object storage
// (AWS S3, Ceph RGW, MinIO). Destinations are given as s3://bucket/prefix.
package s3
