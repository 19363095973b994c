// Package s3 provides a client for S3-compatible object storage.
//
// It stores the failover state document. Any S3-compatible endpoint works
// (AWS S3, Hetzner Object Storage, MinIO); without static keys the default
// AWS credential chain is used.
package s3
