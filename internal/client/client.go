// Package client is a Go client for the HTTP API, used by integration tooling
// and by anything that wants the optimistic toggle behavior of the apps.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"mysns/internal/model"
)

// APIError is an error envelope returned by the server. It unwraps to the
// matching model error kind.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return model.ErrValidation
	case e.Status == http.StatusUnauthorized:
		return model.ErrUnauthenticated
	case e.Status == http.StatusForbidden:
		return model.ErrForbidden
	case e.Status == http.StatusNotFound:
		return model.ErrNotFound
	case e.Status == http.StatusConflict:
		return model.ErrConflict
	default:
		return model.ErrUnavailable
	}
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("%w: decode response: %w", model.ErrUnavailable, err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func (c *Client) Follow(ctx context.Context, userID uuid.UUID) (bool, error) {
	return c.follow(ctx, userID, "follow")
}

func (c *Client) Unfollow(ctx context.Context, userID uuid.UUID) (bool, error) {
	return c.follow(ctx, userID, "unfollow")
}

func (c *Client) follow(ctx context.Context, userID uuid.UUID, action string) (bool, error) {
	var out struct {
		Following bool `json:"following"`
	}
	req := model.FollowRequest{FollowingID: userID.String(), Action: action}
	if err := c.do(ctx, http.MethodPost, "/api/follows", req, &out); err != nil {
		return false, err
	}
	return out.Following, nil
}

func (c *Client) Like(ctx context.Context, postID uuid.UUID) (*model.LikeState, error) {
	return c.like(ctx, http.MethodPost, postID)
}

func (c *Client) Unlike(ctx context.Context, postID uuid.UUID) (*model.LikeState, error) {
	return c.like(ctx, http.MethodDelete, postID)
}

func (c *Client) like(ctx context.Context, method string, postID uuid.UUID) (*model.LikeState, error) {
	var out model.LikeState
	if err := c.do(ctx, method, "/api/likes", model.LikeRequest{PostID: postID.String()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Save(ctx context.Context, postID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/saved-posts", model.BookmarkRequest{PostID: postID.String()}, nil)
}

func (c *Client) Unsave(ctx context.Context, postID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/saved-posts", model.BookmarkRequest{PostID: postID.String()}, nil)
}

func (c *Client) GetPost(ctx context.Context, postID uuid.UUID) (*model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+postID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context, ref string) (*model.Profile, error) {
	var out model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(ref), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddComment(ctx context.Context, postID uuid.UUID, content string) (*model.Comment, error) {
	var out model.Comment
	req := model.CreateCommentRequest{PostID: postID.String(), Content: content}
	if err := c.do(ctx, http.MethodPost, "/api/comments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/comments/"+commentID.String(), nil, nil)
}

func (c *Client) StartConversation(ctx context.Context, otherUserID uuid.UUID) (*model.CreateConversationResponse, error) {
	var out model.CreateConversationResponse
	req := model.CreateConversationRequest{OtherUserID: otherUserID.String()}
	if err := c.do(ctx, http.MethodPost, "/api/conversations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var out []model.ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages fetches a conversation. The server marks inbound messages read.
func (c *Client) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error) {
	var out model.MessageListResponse
	path := "/api/messages?conversation_id=" + url.QueryEscape(conversationID.String())
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*model.Message, error) {
	var out model.Message
	req := model.SendMessageRequest{ConversationID: conversationID.String(), Content: content}
	if err := c.do(ctx, http.MethodPost, "/api/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnreadCount returns how many messages in the conversation are waiting for the caller.
func (c *Client) UnreadCount(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+conversationID.String()+"/unread", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}
