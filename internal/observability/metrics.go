package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts posts written through the create form.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostsEdited counts successful post edits.
	PostsEdited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_edited_total",
		Help: "Total number of posts edited by their author",
	})

	// CommentsCreated counts comments added to posts.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_comments_created_total",
		Help: "Total number of comments created",
	})

	// FollowChanges counts follow graph mutations by action and outcome.
	// action is follow or unfollow; outcome is changed or noop.
	FollowChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_changes_total",
		Help: "Follow and unfollow requests by outcome",
	}, []string{"action", "outcome"})

	// PageCacheLookups counts index page cache lookups by result (hit, miss, error).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_lookups_total",
		Help: "Listing page cache lookups by result",
	}, []string{"result"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ImagesStored counts accepted post image uploads by decoded format.
	ImagesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_images_stored_total",
		Help: "Accepted post image uploads by format",
	}, []string{"format"})
)
