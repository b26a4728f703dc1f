package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix      = "post:%d"
	PostSlugKeyPrefix  = "post:slug:%s"
	PostListKeyPrefix  = "posts:%s"
	TagsKey            = "tags"
	BlacklistKeyPrefix = "blacklist:%s"
	ViewKeyPrefix      = "view:%d:%s"
	LockKeyPrefix      = "lock:%s"
)

const (
	PostTTL      = 30 * time.Minute
	PostListTTL  = 5 * time.Minute
	TagsTTL      = 10 * time.Minute
	ViewDedupTTL = time.Hour
	LockTTL      = 10 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyPrefix, slug)
}

// PostListKey builds the cache key for a post listing. The filter string is
// a stable serialization of the query parameters.
func PostListKey(filter string) string {
	return fmt.Sprintf(PostListKeyPrefix, filter)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func ViewKey(postID uint, ip string) string {
	return fmt.Sprintf(ViewKeyPrefix, postID, ip)
}

func LockKey(name string) string {
	return fmt.Sprintf(LockKeyPrefix, name)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePost drops the cached post by ID and slug, plus every cached
// listing and the tag index, since any of them may now be stale.
func InvalidatePost(ctx context.Context, postID uint, slug string) {
	Invalidate(ctx, PostKey(postID))
	if slug != "" {
		Invalidate(ctx, PostSlugKey(slug))
	}
	InvalidatePostLists(ctx)
}

// InvalidatePostLists drops every cached post listing and the tag index.
func InvalidatePostLists(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, fmt.Sprintf(PostListKeyPrefix, "*"), 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
	client.Del(ctx, TagsKey)
}
