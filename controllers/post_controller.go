package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/middleware"
	"github.com/cppla/topicbbs/models"
	"github.com/cppla/topicbbs/services"
	"github.com/cppla/topicbbs/utils"
)

// IdempotentHeader tells clients whether retrying the request is safe. Like and dislike send
// "false": every call counts. An error response from them means the counter was not changed.
const IdempotentHeader = "X-Idempotent"

// PostController serves post creation, engagement and topic queries.
type PostController struct {
	posts  *services.PostService
	topics *services.TopicService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, topics *services.TopicService) *PostController {
	return &PostController{posts: posts, topics: topics}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title          string     `json:"title"`
		Body           string     `json:"body"`
		Topic          string     `json:"topic"`
		ExpirationTime *time.Time `json:"expirationTime"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, apperrors.Validation("invalid request payload"))
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), middleware.UserID(ctx), services.CreatePostInput{
		Title:          req.Title,
		Body:           req.Body,
		Topic:          req.Topic,
		ExpirationTime: req.ExpirationTime,
	})
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	utils.Created(ctx, post)
}

// GetPost returns a single post with comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

// ListLive returns the topic's Live posts, newest first.
func (p *PostController) ListLive(ctx *gin.Context) {
	p.respondList(ctx, models.StatusLive)
}

// ListExpired returns the topic's Expired posts, newest first.
func (p *PostController) ListExpired(ctx *gin.Context) {
	p.respondList(ctx, models.StatusExpired)
}

func (p *PostController) respondList(ctx *gin.Context, status models.PostStatus) {
	posts, err := p.topics.ListByTopicAndStatus(ctx.Request.Context(), ctx.Param("topic"), string(status))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, posts)
}

// MostActive returns the topic's Live post with the most engagement.
func (p *PostController) MostActive(ctx *gin.Context) {
	post, err := p.topics.MostActive(ctx.Request.Context(), ctx.Param("topic"))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

// Like increments the like counter of a Live post.
func (p *PostController) Like(ctx *gin.Context) {
	ctx.Header(IdempotentHeader, "false")
	p.respondPost(ctx)(p.posts.Like(ctx.Request.Context(), middleware.UserID(ctx), ctx.Param("id")))
}

// Dislike increments the dislike counter of a Live post.
func (p *PostController) Dislike(ctx *gin.Context) {
	ctx.Header(IdempotentHeader, "false")
	p.respondPost(ctx)(p.posts.Dislike(ctx.Request.Context(), middleware.UserID(ctx), ctx.Param("id")))
}

// Comment appends a comment to a Live post.
func (p *PostController) Comment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, apperrors.Validation("invalid request payload"))
		return
	}
	p.respondPost(ctx)(p.posts.Comment(ctx.Request.Context(), middleware.UserID(ctx), ctx.Param("id"), req.Text))
}

func (p *PostController) respondPost(ctx *gin.Context) func(*models.Post, error) {
	return func(post *models.Post, err error) {
		if err != nil {
			utils.RespondError(ctx, err)
			return
		}
		utils.Success(ctx, post)
	}
}
