package s3

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Location is an s3://bucket/prefix destination.
type Location struct {
	Bucket string
	Prefix string
}

// ParseLocation parses an s3:// URL.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid s3 location %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return Location{}, fmt.Errorf("invalid s3 location %q: scheme must be s3", raw)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("invalid s3 location %q: missing bucket", raw)
	}
	return Location{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Key joins the prefix and name.
func (l Location) Key(name string) string {
	if l.Prefix == "" {
		return name
	}
	return path.Join(l.Prefix, name)
}

func (l Location) String() string {
	if l.Prefix == "" {
		return "s3://" + l.Bucket
	}
	return "s3://" + l.Bucket + "/" + l.Prefix
}

// Publisher uploads reports below a Location.
type Publisher struct {
	client *Client
	loc    Location
	ensure bool
}

// NewPublisher returns a publisher. With createBucket set the bucket is
// created on first publish if missing.
func NewPublisher(client *Client, loc Location, createBucket bool) *Publisher {
	return &Publisher{client: client, loc: loc, ensure: createBucket}
}

// Publish uploads data as name and returns its s3:// URL.
func (p *Publisher) Publish(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if p.ensure {
		if err := p.client.EnsureBucket(ctx, p.loc.Bucket); err != nil {
			return "", err
		}
		p.ensure = false
	}
	key := p.loc.Key(name)
	if err := p.client.PutObject(ctx, p.loc.Bucket, key, contentType, data); err != nil {
		return "", err
	}
	return "s3://" + p.loc.Bucket + "/" + key, nil
}
