// Package artifact holds what the storage backends share: the artifact
// lifetime, key rules and public URL layout.
package artifact

import (
	"fmt"
	"path"
	"strings"
	"time"

	"image-converter/internal/domain"
)

// Sentinel is the placeholder kept in the local upload directory.
const Sentinel = ".gitkeep"

func New(key, url string, now time.Time) *domain.Artifact {
	return &domain.Artifact{
		Key:       key,
		URL:       url,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.ArtifactTTL),
	}
}

// ValidateKey accepts flat file names only.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || key == Sentinel {
		return fmt.Errorf("%w: invalid key %q", ErrStorageValidation, key)
	}
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: key %q must not contain path separators", ErrStorageValidation, key)
	}
	return nil
}

// Expired reports whether an object modified at modTime is past ttl.
func Expired(modTime, now time.Time, ttl time.Duration) bool {
	return now.Sub(modTime) > ttl
}

// ObjectURL joins a public base URL, bucket and object key.
func ObjectURL(baseURL, bucket, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + path.Join(bucket, key)
}
