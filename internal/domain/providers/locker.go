package providers

import "context"

// SlugLocker serializes work on the same slug
type SlugLocker interface {
	// Lock blocks until the lock for key is held or ctx ends
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
