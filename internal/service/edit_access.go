package service

import "yatube/internal/models"

// EditDecision tags the outcome of an edit permission check.
type EditDecision int

const (
	EditAllowed EditDecision = iota
	EditRedirectToPost
)

func (d EditDecision) String() string {
	switch d {
	case EditAllowed:
		return "allowed"
	case EditRedirectToPost:
		return "redirect_to_post"
	default:
		return "unknown"
	}
}

// EditAccess is the result of AuthorizeEdit. RedirectTo is set only when
// Decision is EditRedirectToPost.
type EditAccess struct {
	Decision   EditDecision
	RedirectTo string
}

// AuthorizeEdit decides whether requesterID may edit post. Anyone but the
// author is sent back to the post page.
func AuthorizeEdit(post *models.Post, requesterID uint) EditAccess {
	if requesterID != 0 && post.AuthorID == requesterID {
		return EditAccess{Decision: EditAllowed}
	}
	return EditAccess{
		Decision:   EditRedirectToPost,
		RedirectTo: PostPath(post.Author.Username, post.ID),
	}
}
